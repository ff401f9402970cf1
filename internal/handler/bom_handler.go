package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lubeworks/drumplan/internal/service"
)

type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

func (h *BOMHandler) ListProductBOMs(c *gin.Context) {
	boms, err := h.svc.ListProductBOMs(c.Query("product_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, boms)
}

func (h *BOMHandler) CreateProductBOM(c *gin.Context) {
	var req service.CreateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bom, err := h.svc.CreateProductBOM(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, bom)
}

func (h *BOMHandler) ActivateProductBOM(c *gin.Context) {
	if err := h.svc.ActivateProductBOM(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// ResolveProductBOM returns the BOM version an approval would explode.
func (h *BOMHandler) ResolveProductBOM(c *gin.Context) {
	bom, err := h.svc.Resolve(c.Param("product_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, bom)
}

func (h *BOMHandler) ListPackagingBOMs(c *gin.Context) {
	boms, err := h.svc.ListPackagingBOMs(c.Query("packaging_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, boms)
}

func (h *BOMHandler) CreatePackagingBOM(c *gin.Context) {
	var req service.CreatePackagingBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bom, err := h.svc.CreatePackagingBOM(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, bom)
}

func (h *BOMHandler) ActivatePackagingBOM(c *gin.Context) {
	if err := h.svc.ActivatePackagingBOM(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
