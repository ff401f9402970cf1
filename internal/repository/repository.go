package repository

import "gorm.io/gorm"

// Repositories bundles every planning repository.
type Repositories struct {
	Catalog   *CatalogRepository
	Inventory *InventoryRepository
	BOM       *BOMRepository
	Job       *JobRepository
	Purchase  *PurchaseRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Catalog:   NewCatalogRepository(db),
		Inventory: NewInventoryRepository(db),
		BOM:       NewBOMRepository(db),
		Job:       NewJobRepository(db),
		Purchase:  NewPurchaseRepository(db),
	}
}
