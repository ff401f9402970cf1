package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/service"
)

type ScheduleHandler struct {
	svc         *service.ScheduleService
	shortageSvc *service.ShortageService
}

func NewScheduleHandler(svc *service.ScheduleService, shortageSvc *service.ShortageService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, shortageSvc: shortageSvc}
}

// GetSchedule renders the unified day-by-day view. Defaults: today, 7 days.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	start := time.Now()
	if s := c.Query("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			badRequest(c, err)
			return
		}
		start = t
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	view, err := h.svc.GetSchedule(c.Request.Context(), start, days)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (h *ScheduleHandler) ListJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.JobListParams{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
		Keyword:   c.Query("keyword"),
		Page:      page,
		Size:      size,
	}
	jobs, total, err := h.svc.ListJobs(params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": jobs, "total": total, "page": page, "size": size})
}

func (h *ScheduleHandler) CreateJob(c *gin.Context) {
	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.svc.CreateJob(req, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func (h *ScheduleHandler) GetJob(c *gin.Context) {
	job, err := h.svc.GetJob(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

type updateStatusBody struct {
	Status        string `json:"status" binding:"required"`
	AllowShortage bool   `json:"allow_shortage"`
}

func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	var body updateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.svc.UpdateStatus(c.Param("id"), body.Status, body.AllowShortage, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

type rescheduleBody struct {
	Date  string `json:"date" binding:"required"` // YYYY-MM-DD
	Shift string `json:"shift" binding:"omitempty,oneof=DAY NIGHT"`
}

func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	var body rescheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.svc.Reschedule(c.Param("id"), date, body.Shift, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}
