package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
)

// Services is the planning service set.
type Services struct {
	Catalog     *CatalogService
	Inventory   *InventoryService
	BOM         *BOMService
	Shortage    *ShortageService
	Schedule    *ScheduleService
	Procurement *ProcurementService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, notifier *notify.Notifier, logger *zap.Logger, drumsPerDay int) *Services {
	catalog := NewCatalogService(repos.Catalog)
	inventory := NewInventoryService(repos.Inventory, db)
	bom := NewBOMService(repos.BOM, logger)
	shortage := NewShortageService(bom, repos.Inventory, repos.Job, notifier)
	schedule := NewScheduleService(repos.Job, repos.Inventory, bom, inventory, shortage, catalog, drumsPerDay)
	procurement := NewProcurementService(repos.Purchase, repos.Inventory, repos.Catalog, inventory, notifier)
	return &Services{
		Catalog:     catalog,
		Inventory:   inventory,
		BOM:         bom,
		Shortage:    shortage,
		Schedule:    schedule,
		Procurement: procurement,
	}
}
