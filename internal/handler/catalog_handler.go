package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lubeworks/drumplan/internal/service"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	products, total, err := h.svc.ListProducts(c.Query("keyword"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": products, "total": total, "page": page, "size": size})
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.CreateProduct(req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.svc.GetProduct(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *CatalogHandler) ListPackagings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	packagings, total, err := h.svc.ListPackagings(page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": packagings, "total": total, "page": page, "size": size})
}

func (h *CatalogHandler) CreatePackaging(c *gin.Context) {
	var req service.CreatePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.CreatePackaging(req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *CatalogHandler) UpsertSpec(c *gin.Context) {
	var req service.UpsertSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	spec, err := h.svc.UpsertSpec(req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, spec)
}

func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	suppliers, total, err := h.svc.ListSuppliers(page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": suppliers, "total": total, "page": page, "size": size})
}

func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.svc.CreateSupplier(req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, s)
}
