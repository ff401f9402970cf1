package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder status values. REJECTED is terminal and keeps the reason.
const (
	POStatusDraft    = "DRAFT"
	POStatusApproved = "APPROVED"
	POStatusSent     = "SENT"
	POStatusPartial  = "PARTIAL"
	POStatusReceived = "RECEIVED"
	POStatusRejected = "REJECTED"
)

// POLine status values.
const (
	POLineStatusOpen     = "OPEN"
	POLineStatusPartial  = "PARTIAL"
	POLineStatusReceived = "RECEIVED"
)

// Outbox email states.
const (
	EmailStatusQueued = "QUEUED"
	EmailStatusSent   = "SENT"
	EmailStatusFailed = "FAILED"
)

var poTransitions = map[string][]string{
	POStatusDraft:    {POStatusApproved, POStatusRejected},
	POStatusApproved: {POStatusSent, POStatusRejected},
	POStatusSent:     {POStatusPartial, POStatusReceived},
	POStatusPartial:  {POStatusPartial, POStatusReceived},
	POStatusReceived: {},
	POStatusRejected: {},
}

// POCanTransition reports whether from → to is a legal PO status change.
func POCanTransition(from, to string) bool {
	for _, next := range poTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PurchaseOrder is a priced order to a supplier, created only from a
// non-empty set of priced shortage lines. Money is decimal; quantities
// follow the ledger's float columns.
type PurchaseOrder struct {
	ID           string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PONumber     string          `json:"po_number" gorm:"size:50;not null;uniqueIndex"`
	SupplierID   string          `json:"supplier_id" gorm:"type:uuid;not null;index"`
	SupplierName string          `json:"supplier_name" gorm:"size:200"`
	Status       string          `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	Currency     string          `json:"currency" gorm:"size:10;not null;default:USD"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,2);not null"`
	RejectReason string          `json:"reject_reason" gorm:"type:text"`
	EmailStatus  string          `json:"email_status" gorm:"size:20;default:QUEUED"`
	ApprovedBy   string          `json:"approved_by" gorm:"size:64"`
	ApprovedAt   *time.Time      `json:"approved_at"`
	SentAt       *time.Time      `json:"sent_at"`
	ReceivedAt   *time.Time      `json:"received_at"`
	Notes        string          `json:"notes" gorm:"type:text"`
	CreatedBy    string          `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Lines []POLine `json:"lines,omitempty" gorm:"foreignKey:POID"`
}

func (PurchaseOrder) TableName() string {
	return "plan_purchase_orders"
}

// POLine is one item on a purchase order. ReceivedQty accumulates across
// partial receipts and never exceeds Quantity.
type POLine struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	POID        string          `json:"po_id" gorm:"type:uuid;not null;index"`
	ItemID      string          `json:"item_id" gorm:"type:uuid;not null;index"`
	ItemSKU     string          `json:"item_sku" gorm:"size:64"`
	ItemName    string          `json:"item_name" gorm:"size:128"`
	ItemType    string          `json:"item_type" gorm:"size:10"` // RAW or PACK
	Quantity    float64         `json:"quantity" gorm:"type:decimal(14,4);not null"`
	UOM         string          `json:"uom" gorm:"size:10;not null;default:KG"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(14,4);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	ReceivedQty float64         `json:"received_qty" gorm:"type:decimal(14,4);default:0"`
	RequiredBy  *time.Time      `json:"required_by"`
	Status      string          `json:"status" gorm:"size:20;not null;default:OPEN"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (POLine) TableName() string {
	return "plan_purchase_order_lines"
}

// ApprovalTask is the row handed to the finance approval queue. The queue
// is an external collaborator; this core only enqueues and reads status.
type ApprovalTask struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	POID        string     `json:"po_id" gorm:"type:uuid;not null;index"`
	PONumber    string     `json:"po_number" gorm:"size:50"`
	Status      string     `json:"status" gorm:"size:20;not null;default:PENDING"` // PENDING, DECIDED
	DecidedBy   string     `json:"decided_by" gorm:"size:64"`
	DecidedAt   *time.Time `json:"decided_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (ApprovalTask) TableName() string {
	return "plan_approval_tasks"
}

// EmailOutbox rows are fire-and-forget notifications; the dispatcher drains
// QUEUED rows in the background and records the outcome, never blocking the
// flow that queued them.
type EmailOutbox struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	To           string     `json:"to" gorm:"size:256;not null"`
	Subject      string     `json:"subject" gorm:"size:256;not null"`
	Body         string     `json:"body" gorm:"type:text"`
	RefType      string     `json:"ref_type" gorm:"size:20;not null"` // PO, SHORTAGE
	RefID        string     `json:"ref_id" gorm:"size:64;not null"`
	Status       string     `json:"status" gorm:"size:20;not null;default:QUEUED;index"`
	ErrorMessage string     `json:"error_message" gorm:"type:text"`
	SentAt       *time.Time `json:"sent_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (EmailOutbox) TableName() string {
	return "plan_email_outbox"
}
