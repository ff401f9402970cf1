package entity

import (
	"time"
)

// ProductType
const (
	ProductTypeManufactured = "MANUFACTURED"
	ProductTypeTraded       = "TRADED"
)

// Packaging categories. Only drums ship today.
const (
	PackagingCategoryDrum = "DRUM"
)

// Product is a finished product sold in drums.
type Product struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SKU           string     `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:128;not null"`
	Type          string     `json:"type" gorm:"size:20;not null;default:MANUFACTURED"`
	DensityKgPerL float64    `json:"density_kg_per_l" gorm:"type:decimal(8,4);default:0"`
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`
}

func (Product) TableName() string {
	return "plan_products"
}

// Packaging describes a drum variant (material, capacity, default fill).
type Packaging struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name               string     `json:"name" gorm:"size:128;not null"`
	Category           string     `json:"category" gorm:"size:20;not null;default:DRUM"`
	MaterialType       string     `json:"material_type" gorm:"size:20"` // STEEL, HDPE, RECON
	CapacityLiters     float64    `json:"capacity_liters" gorm:"type:decimal(10,2);default:0"`
	TareWeightKg       float64    `json:"tare_weight_kg" gorm:"type:decimal(10,2);default:0"`
	NetWeightKgDefault float64    `json:"net_weight_kg_default" gorm:"type:decimal(10,2);default:0"`
	IsActive           bool       `json:"is_active" gorm:"default:true"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at" gorm:"index"`
}

func (Packaging) TableName() string {
	return "plan_packagings"
}

// ProductPackagingSpec pins the net finished-product weight per drum for a
// product/packaging pair. Resolution order when converting drums to KG:
// spec net weight, then packaging default, then capacity × product density.
type ProductPackagingSpec struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID   string    `json:"product_id" gorm:"type:uuid;not null;index:idx_spec_product_packaging,unique"`
	PackagingID string    `json:"packaging_id" gorm:"type:uuid;not null;index:idx_spec_product_packaging,unique"`
	NetWeightKg float64   `json:"net_weight_kg" gorm:"type:decimal(10,2);not null"`
	IsDefault   bool      `json:"is_default" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProductPackagingSpec) TableName() string {
	return "plan_product_packaging_specs"
}

// Supplier master data. Address and payment terms live in the finance
// system; procurement only needs contact and currency.
type Supplier struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code      string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:200;not null"`
	Email     string     `json:"email" gorm:"size:128"`
	Phone     string     `json:"phone" gorm:"size:32"`
	Currency  string     `json:"currency" gorm:"size:10;default:USD"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (Supplier) TableName() string {
	return "plan_suppliers"
}
