package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/service"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.ItemListParams{
		ItemType:  c.Query("item_type"),
		Keyword:   c.Query("keyword"),
		ShortOnly: c.Query("short_only") == "true",
		Page:      page,
		Size:      size,
	}
	items, total, err := h.svc.List(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": items, "total": total, "page": page, "size": size})
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.CreateItem(req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, item)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.svc.GetItem(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, item)
}

// Availability returns the point-in-time promise snapshot for an item.
func (h *InventoryHandler) Availability(c *gin.Context) {
	avail, err := h.svc.AvailableToPromise(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, avail)
}

func (h *InventoryHandler) Movements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	movements, total, err := h.svc.ListMovements(c.Param("id"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": movements, "total": total, "page": page, "size": size})
}

type reserveBody struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	Mode     string  `json:"mode" binding:"omitempty,oneof=hard soft"`
	RefType  string  `json:"ref_type" binding:"required"`
	RefID    string  `json:"ref_id" binding:"required"`
}

func (h *InventoryHandler) Reserve(c *gin.Context) {
	var body reserveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.Mode == "" {
		body.Mode = service.ReserveHard
	}
	res, err := h.svc.Reserve(c.Param("id"), body.Quantity, body.Mode, body.RefType, body.RefID, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (h *InventoryHandler) Receive(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Receive(req, currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
