package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/repository"
)

// Reservation modes. Hard reservations refuse to overdraw; soft
// reservations clamp at available and record the observed deficit, which
// lets the scheduler track shortages without blocking approval-adjacent
// flows.
const (
	ReserveHard = "hard"
	ReserveSoft = "soft"
)

// Stock status labels for the availability view.
const (
	StockStatusInStock    = "IN_STOCK"
	StockStatusInbound    = "INBOUND"
	StockStatusOutOfStock = "OUT_OF_STOCK"
)

// InventoryService is the ledger. Every balance mutation runs in a
// transaction with an optimistic version check and writes an append-only
// movement row carrying the previous and new balances.
type InventoryService struct {
	repo *repository.InventoryRepository
	db   *gorm.DB
}

func NewInventoryService(repo *repository.InventoryRepository, db *gorm.DB) *InventoryService {
	return &InventoryService{repo: repo, db: db}
}

type CreateItemRequest struct {
	SKU      string  `json:"sku" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	ItemType string  `json:"item_type" binding:"required,oneof=RAW PACK"`
	UOM      string  `json:"uom"`
	OnHand   float64 `json:"on_hand" binding:"gte=0"`
}

func (s *InventoryService) CreateItem(req CreateItemRequest) (*entity.InventoryItem, error) {
	uom := req.UOM
	if uom == "" {
		if req.ItemType == entity.ItemTypePack {
			uom = "EA"
		} else {
			uom = "KG"
		}
	}
	item := &entity.InventoryItem{
		ID:       uuid.New().String(),
		SKU:      req.SKU,
		Name:     req.Name,
		ItemType: req.ItemType,
		UOM:      uom,
		OnHand:   req.OnHand,
		IsActive: true,
	}
	if err := s.repo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) GetItem(id string) (*entity.InventoryItem, error) {
	item, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return item, err
}

func (s *InventoryService) List(params repository.ItemListParams) ([]entity.InventoryItem, int64, error) {
	return s.repo.List(params)
}

func (s *InventoryService) ListMovements(itemID string, page, size int) ([]entity.StockMovement, int64, error) {
	return s.repo.ListMovements(itemID, page, size)
}

// Availability is the availability snapshot exposed to callers. Available
// is on-hand minus reserved, clamped at zero; the display status follows
// the original rule: in stock, covered by inbound, or out of stock.
type Availability struct {
	ItemID    string  `json:"item_id"`
	SKU       string  `json:"sku"`
	OnHand    float64 `json:"on_hand"`
	Reserved  float64 `json:"reserved"`
	Available float64 `json:"available"`
	Inbound   float64 `json:"inbound"`
	Status    string  `json:"status"`
}

// AvailableToPromise returns the current availability snapshot.
func (s *InventoryService) AvailableToPromise(itemID string) (*Availability, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	status := StockStatusOutOfStock
	switch {
	case item.Available() > 0:
		status = StockStatusInStock
	case item.Inbound > 0:
		status = StockStatusInbound
	}
	return &Availability{
		ItemID:    item.ID,
		SKU:       item.SKU,
		OnHand:    item.OnHand,
		Reserved:  item.Reserved,
		Available: item.Available(),
		Inbound:   item.Inbound,
		Status:    status,
	}, nil
}

// ReserveResult reports what a reservation actually took. In soft mode
// ReservedQty may be below the request, with the difference in Shortfall.
type ReserveResult struct {
	ItemID       string  `json:"item_id"`
	RequestedQty float64 `json:"requested_qty"`
	ReservedQty  float64 `json:"reserved_qty"`
	Shortfall    float64 `json:"shortfall"`
}

// Reserve takes stock for a reference. Hard mode fails with
// ErrInsufficientStock when available < qty; soft mode reserves what is
// there and reports the deficit. Either way the balance never goes
// negative and the mutation is atomic.
func (s *InventoryService) Reserve(itemID string, qty float64, mode, refType, refID, userID string) (*ReserveResult, error) {
	var result *ReserveResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.ReserveTx(tx, itemID, qty, mode, refType, refID, userID)
		return err
	})
	return result, err
}

// ReserveTx is Reserve inside a caller-owned transaction, for flows that
// reserve several items atomically (job approval).
func (s *InventoryService) ReserveTx(tx *gorm.DB, itemID string, qty float64, mode, refType, refID, userID string) (*ReserveResult, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("reserve quantity must be positive")
	}
	item, err := s.repo.GetForUpdate(tx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	available := item.Available()
	reserveQty := qty
	shortfall := 0.0
	if available < qty {
		if mode != ReserveSoft {
			return nil, fmt.Errorf("item %s: need %.4f, available %.4f: %w", item.SKU, qty, available, ErrInsufficientStock)
		}
		reserveQty = available
		shortfall = qty - available
	}

	prev := *item
	item.Reserved += reserveQty
	applied, err := s.repo.ApplyBalances(tx, item)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("item %s: %w", item.SKU, ErrConcurrencyConflict)
	}

	move := &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		ItemSKU:       item.SKU,
		MovementType:  entity.MovementReserve,
		Quantity:      reserveQty,
		PrevOnHand:    prev.OnHand,
		NewOnHand:     item.OnHand,
		PrevReserved:  prev.Reserved,
		NewReserved:   item.Reserved,
		ShortfallQty:  shortfall,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedBy:     userID,
	}
	if err := s.repo.CreateMovement(tx, move); err != nil {
		return nil, err
	}
	return &ReserveResult{ItemID: item.ID, RequestedQty: qty, ReservedQty: reserveQty, Shortfall: shortfall}, nil
}

// ReleaseTx returns reserved stock, clamped so reserved never goes negative.
func (s *InventoryService) ReleaseTx(tx *gorm.DB, itemID string, qty float64, refType, refID, userID string) error {
	item, err := s.repo.GetForUpdate(tx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	releaseQty := qty
	if releaseQty > item.Reserved {
		releaseQty = item.Reserved
	}
	prev := *item
	item.Reserved -= releaseQty
	applied, err := s.repo.ApplyBalances(tx, item)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("item %s: %w", item.SKU, ErrConcurrencyConflict)
	}
	return s.repo.CreateMovement(tx, &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		ItemSKU:       item.SKU,
		MovementType:  entity.MovementRelease,
		Quantity:      -releaseQty,
		PrevOnHand:    prev.OnHand,
		NewOnHand:     item.OnHand,
		PrevReserved:  prev.Reserved,
		NewReserved:   item.Reserved,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedBy:     userID,
	})
}

// ConsumeTx issues reserved stock to production: on-hand and reserved both
// drop. Quantity is clamped so neither balance goes negative.
func (s *InventoryService) ConsumeTx(tx *gorm.DB, itemID string, qty float64, refType, refID, userID string) error {
	item, err := s.repo.GetForUpdate(tx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	consumeQty := qty
	if consumeQty > item.Reserved {
		consumeQty = item.Reserved
	}
	if consumeQty > item.OnHand {
		consumeQty = item.OnHand
	}
	prev := *item
	item.OnHand -= consumeQty
	item.Reserved -= consumeQty
	applied, err := s.repo.ApplyBalances(tx, item)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("item %s: %w", item.SKU, ErrConcurrencyConflict)
	}
	return s.repo.CreateMovement(tx, &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		ItemSKU:       item.SKU,
		MovementType:  entity.MovementConsume,
		Quantity:      -consumeQty,
		PrevOnHand:    prev.OnHand,
		NewOnHand:     item.OnHand,
		PrevReserved:  prev.Reserved,
		NewReserved:   item.Reserved,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedBy:     userID,
	})
}

type ReceiveRequest struct {
	ItemID   string  `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	RefType  string  `json:"ref_type" binding:"required"` // GRN or PO
	RefID    string  `json:"ref_id" binding:"required"`
	Notes    string  `json:"notes"`
}

// Receive books a goods receipt: on-hand up, and when the reference is a
// purchase order, inbound down by the same quantity (floored at zero).
func (s *InventoryService) Receive(req ReceiveRequest, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ReceiveTx(tx, req, userID)
	})
}

func (s *InventoryService) ReceiveTx(tx *gorm.DB, req ReceiveRequest, userID string) error {
	item, err := s.repo.GetForUpdate(tx, req.ItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("item %s: %w", req.ItemID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	prev := *item
	item.OnHand += req.Quantity
	moveType := entity.MovementGRNReceipt
	if req.RefType == "PO" {
		moveType = entity.MovementPOReceive
		item.Inbound -= req.Quantity
		if item.Inbound < 0 {
			item.Inbound = 0
		}
	}
	applied, err := s.repo.ApplyBalances(tx, item)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("item %s: %w", item.SKU, ErrConcurrencyConflict)
	}
	return s.repo.CreateMovement(tx, &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		ItemSKU:       item.SKU,
		MovementType:  moveType,
		Quantity:      req.Quantity,
		PrevOnHand:    prev.OnHand,
		NewOnHand:     item.OnHand,
		PrevReserved:  prev.Reserved,
		NewReserved:   item.Reserved,
		ReferenceType: req.RefType,
		ReferenceID:   req.RefID,
		Notes:         req.Notes,
		CreatedBy:     userID,
	})
}

// AddInboundTx registers open PO supply against an item.
func (s *InventoryService) AddInboundTx(tx *gorm.DB, itemID string, qty float64, refID, userID string) error {
	return s.adjustInbound(tx, itemID, qty, refID, userID)
}

// RemoveInboundTx backs inbound supply out, e.g. on PO rejection.
func (s *InventoryService) RemoveInboundTx(tx *gorm.DB, itemID string, qty float64, refID, userID string) error {
	return s.adjustInbound(tx, itemID, -qty, refID, userID)
}

func (s *InventoryService) adjustInbound(tx *gorm.DB, itemID string, delta float64, refID, userID string) error {
	item, err := s.repo.GetForUpdate(tx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	prev := *item
	item.Inbound += delta
	if item.Inbound < 0 {
		item.Inbound = 0
	}
	applied, err := s.repo.ApplyBalances(tx, item)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("item %s: %w", item.SKU, ErrConcurrencyConflict)
	}
	return s.repo.CreateMovement(tx, &entity.StockMovement{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		ItemSKU:       item.SKU,
		MovementType:  entity.MovementPOInbound,
		Quantity:      delta,
		PrevOnHand:    prev.OnHand,
		NewOnHand:     item.OnHand,
		PrevReserved:  prev.Reserved,
		NewReserved:   item.Reserved,
		ReferenceType: "PO",
		ReferenceID:   refID,
		CreatedBy:     userID,
	})
}
