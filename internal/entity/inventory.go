package entity

import (
	"time"
)

// InventoryItemType
const (
	ItemTypeRaw  = "RAW"  // raw material, tracked in KG
	ItemTypePack = "PACK" // packaging component, tracked in EA
)

// MovementType covers every way a balance can change. Movements are
// append-only; balances are always explainable by replaying them.
const (
	MovementGRNReceipt = "GRN_RECEIPT" // goods received note, +on_hand
	MovementPOReceive  = "PO_RECEIVE"  // PO line receipt, +on_hand −inbound
	MovementReserve    = "RESERVE"     // +reserved
	MovementRelease    = "RELEASE"     // −reserved
	MovementConsume    = "CONSUME"     // production issue, −on_hand −reserved
	MovementPOInbound  = "PO_INBOUND"  // PO created/cancelled, ±inbound
	MovementAdjust     = "ADJUST"      // manual correction
)

// InventoryItem is the ledger row for one SKU. Available-to-promise is
// on_hand − reserved; inbound is open PO supply and is informational for
// ATP. The version column serializes concurrent writers: every mutation
// must match the version it read or fail with a conflict.
type InventoryItem struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SKU       string     `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	ItemType  string     `json:"item_type" gorm:"size:10;not null;default:RAW"`
	UOM       string     `json:"uom" gorm:"size:10;not null;default:KG"`
	OnHand    float64    `json:"on_hand" gorm:"type:decimal(14,4);not null;default:0"`
	Reserved  float64    `json:"reserved" gorm:"type:decimal(14,4);not null;default:0"`
	Inbound   float64    `json:"inbound" gorm:"type:decimal(14,4);not null;default:0"`
	Version   int64      `json:"version" gorm:"not null;default:0"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (InventoryItem) TableName() string {
	return "plan_inventory_items"
}

// Available returns available-to-promise, clamped at zero.
func (i *InventoryItem) Available() float64 {
	avail := i.OnHand - i.Reserved
	if avail < 0 {
		return 0
	}
	return avail
}

// StockMovement is the immutable audit record for a ledger mutation.
// Quantity is signed against the balance named by MovementType.
type StockMovement struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ItemID        string    `json:"item_id" gorm:"type:uuid;not null;index"`
	ItemSKU       string    `json:"item_sku" gorm:"size:64"`
	MovementType  string    `json:"movement_type" gorm:"size:20;not null"`
	Quantity      float64   `json:"quantity" gorm:"type:decimal(14,4);not null"`
	PrevOnHand    float64   `json:"prev_on_hand" gorm:"type:decimal(14,4);not null"`
	NewOnHand     float64   `json:"new_on_hand" gorm:"type:decimal(14,4);not null"`
	PrevReserved  float64   `json:"prev_reserved" gorm:"type:decimal(14,4);not null"`
	NewReserved   float64   `json:"new_reserved" gorm:"type:decimal(14,4);not null"`
	ShortfallQty  float64   `json:"shortfall_qty" gorm:"type:decimal(14,4);default:0"` // soft-mode deficit observed
	ReferenceType string    `json:"reference_type" gorm:"size:20;not null"`            // GRN, PO, JOB, ADJUST
	ReferenceID   string    `json:"reference_id" gorm:"size:64;not null"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedBy     string    `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "plan_stock_movements"
}

// JobReservation links hard reservations to the job that placed them so a
// reschedule can release exactly what the approval took.
type JobReservation struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	JobOrderID string    `json:"job_order_id" gorm:"type:uuid;not null;index"`
	ItemID     string    `json:"item_id" gorm:"type:uuid;not null;index"`
	Quantity   float64   `json:"quantity" gorm:"type:decimal(14,4);not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (JobReservation) TableName() string {
	return "plan_job_reservations"
}
