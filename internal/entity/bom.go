package entity

import (
	"time"
)

// ProductBOM is one version of a product's recipe. At most one version per
// product is active; activation flips versions atomically.
type ProductBOM struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID string    `json:"product_id" gorm:"type:uuid;not null;index"`
	Version   int       `json:"version" gorm:"not null;default:1"`
	IsActive  bool      `json:"is_active" gorm:"default:false;index"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lines []ProductBOMLine `json:"lines,omitempty" gorm:"foreignKey:BOMID"`
}

func (ProductBOM) TableName() string {
	return "plan_product_boms"
}

// ProductBOMLine is a raw-material requirement per drum of finished product.
type ProductBOMLine struct {
	ID             string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BOMID          string  `json:"bom_id" gorm:"type:uuid;not null;index"`
	MaterialItemID string  `json:"material_item_id" gorm:"type:uuid;not null"`
	QtyPerUnit     float64 `json:"qty_per_unit" gorm:"type:decimal(14,4);not null"`
}

func (ProductBOMLine) TableName() string {
	return "plan_product_bom_lines"
}

// PackagingBOM lists the PACK components consumed per drum (drum shell,
// lid, label, pallet share).
type PackagingBOM struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PackagingID string    `json:"packaging_id" gorm:"type:uuid;not null;index"`
	Version     int       `json:"version" gorm:"not null;default:1"`
	IsActive    bool      `json:"is_active" gorm:"default:false;index"`
	CreatedBy   string    `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Lines []PackagingBOMLine `json:"lines,omitempty" gorm:"foreignKey:BOMID"`
}

func (PackagingBOM) TableName() string {
	return "plan_packaging_boms"
}

type PackagingBOMLine struct {
	ID         string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BOMID      string  `json:"bom_id" gorm:"type:uuid;not null;index"`
	PackItemID string  `json:"pack_item_id" gorm:"type:uuid;not null"`
	QtyPerUnit float64 `json:"qty_per_unit" gorm:"type:decimal(14,4);not null"`
	UOM        string  `json:"uom" gorm:"size:10;not null;default:EA"`
}

func (PackagingBOMLine) TableName() string {
	return "plan_packaging_bom_lines"
}
