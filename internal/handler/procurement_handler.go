package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/service"
)

type ProcurementHandler struct {
	svc         *service.ProcurementService
	shortageSvc *service.ShortageService
}

func NewProcurementHandler(svc *service.ProcurementService, shortageSvc *service.ShortageService) *ProcurementHandler {
	return &ProcurementHandler{svc: svc, shortageSvc: shortageSvc}
}

// Shortages recomputes the shortage report over all open jobs.
func (h *ProcurementHandler) Shortages(c *gin.Context) {
	report, err := h.shortageSvc.ComputeOpen(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, report)
}

// ExportShortages streams the current shortage report as an xlsx download.
func (h *ProcurementHandler) ExportShortages(c *gin.Context) {
	report, err := h.shortageSvc.ComputeOpen(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	f, err := service.ExportShortageXLSX(report)
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("shortages-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (h *ProcurementHandler) ListPOs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.POListParams{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		Page:       page,
		Size:       size,
	}
	pos, total, err := h.svc.ListPOs(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": pos, "total": total, "page": page, "size": size})
}

func (h *ProcurementHandler) GeneratePO(c *gin.Context) {
	var req service.GeneratePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	po, err := h.svc.GeneratePO(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *ProcurementHandler) GetPO(c *gin.Context) {
	po, err := h.svc.GetPO(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *ProcurementHandler) ApprovePO(c *gin.Context) {
	po, err := h.svc.Approve(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

type rejectBody struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *ProcurementHandler) RejectPO(c *gin.Context) {
	var body rejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	po, err := h.svc.Reject(c.Param("id"), body.Reason, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *ProcurementHandler) SendPO(c *gin.Context) {
	po, err := h.svc.Send(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}

func (h *ProcurementHandler) ReceivePO(c *gin.Context) {
	var req service.ReceivePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	po, err := h.svc.Receive(c.Param("id"), req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, po)
}
