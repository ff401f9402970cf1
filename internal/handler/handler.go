package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lubeworks/drumplan/internal/service"
)

// Handlers is the planning HTTP handler set.
type Handlers struct {
	Catalog     *CatalogHandler
	Inventory   *InventoryHandler
	BOM         *BOMHandler
	Schedule    *ScheduleHandler
	Procurement *ProcurementHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Catalog:     NewCatalogHandler(services.Catalog),
		Inventory:   NewInventoryHandler(services.Inventory),
		BOM:         NewBOMHandler(services.BOM),
		Schedule:    NewScheduleHandler(services.Schedule, services.Shortage),
		Procurement: NewProcurementHandler(services.Procurement, services.Shortage),
	}
}

// fail maps service sentinels onto HTTP statuses. Conflicts (lost version
// races, illegal transitions, capacity or stock refusals) come back 409 so
// clients retry with fresh state instead of treating them as failures.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"code": 40901, "message": err.Error()})
	case errors.Is(err, service.ErrEmptySelection),
		errors.Is(err, service.ErrMissingUnitPrice),
		errors.Is(err, service.ErrNoActiveBOM):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
}

func currentUser(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
