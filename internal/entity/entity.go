package entity

import "gorm.io/gorm"

// AutoMigrate creates or updates every planning table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// catalog
		&Product{},
		&Packaging{},
		&ProductPackagingSpec{},
		&Supplier{},

		// inventory ledger
		&InventoryItem{},
		&StockMovement{},
		&JobReservation{},

		// BOM
		&ProductBOM{},
		&ProductBOMLine{},
		&PackagingBOM{},
		&PackagingBOMLine{},

		// scheduling
		&JobOrder{},

		// procurement
		&PurchaseOrder{},
		&POLine{},
		&ApprovalTask{},
		&EmailOutbox{},
	)
}
