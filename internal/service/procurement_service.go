package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
)

// ProcurementService turns shortage lines into purchase orders and walks
// them through approval, sending and receipt. A PO's expected quantities sit
// on the ledger's inbound column from DRAFT creation until receipt or
// rejection.
type ProcurementService struct {
	purchaseRepo *repository.PurchaseRepository
	invRepo      *repository.InventoryRepository
	catalogRepo  *repository.CatalogRepository
	invSvc       *InventoryService
	notifier     *notify.Notifier
}

func NewProcurementService(
	purchaseRepo *repository.PurchaseRepository,
	invRepo *repository.InventoryRepository,
	catalogRepo *repository.CatalogRepository,
	invSvc *InventoryService,
	notifier *notify.Notifier,
) *ProcurementService {
	return &ProcurementService{
		purchaseRepo: purchaseRepo,
		invRepo:      invRepo,
		catalogRepo:  catalogRepo,
		invSvc:       invSvc,
		notifier:     notifier,
	}
}

type GeneratePORequest struct {
	SupplierID string          `json:"supplier_id" binding:"required"`
	Currency   string          `json:"currency"`
	Notes      string          `json:"notes"`
	RequiredBy string          `json:"required_by"` // YYYY-MM-DD, optional
	Lines      []POLineRequest `json:"lines" binding:"required,dive"`
}

type POLineRequest struct {
	ItemID    string          `json:"item_id" binding:"required"`
	Quantity  float64         `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// GeneratePO creates a DRAFT purchase order from selected shortage lines.
// Every line must carry a positive unit price; a zero-priced selection is
// rejected naming the offending item. Creation books each quantity onto the
// item's inbound balance in the same transaction.
func (s *ProcurementService) GeneratePO(req GeneratePORequest, userID string) (*entity.PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptySelection
	}
	supplier, err := s.catalogRepo.GetSupplier(req.SupplierID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("supplier %s: %w", req.SupplierID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	itemIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}
	items, err := s.invRepo.GetByIDs(itemIDs)
	if err != nil {
		return nil, err
	}

	var requiredBy *time.Time
	if req.RequiredBy != "" {
		t, err := time.Parse("2006-01-02", req.RequiredBy)
		if err != nil {
			return nil, fmt.Errorf("invalid required_by: %w", err)
		}
		requiredBy = &t
	}

	currency := req.Currency
	if currency == "" {
		currency = supplier.Currency
	}

	now := time.Now()
	po := &entity.PurchaseOrder{
		PONumber:     fmt.Sprintf("PO-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Status:       entity.POStatusDraft,
		Currency:     currency,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	total := decimal.Zero
	for _, lr := range req.Lines {
		item, ok := items[lr.ItemID]
		if !ok {
			return nil, fmt.Errorf("item %s: %w", lr.ItemID, ErrNotFound)
		}
		if lr.UnitPrice.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("item %s has no unit price: %w", item.SKU, ErrMissingUnitPrice)
		}
		amount := lr.UnitPrice.Mul(decimal.NewFromFloat(lr.Quantity)).Round(2)
		po.Lines = append(po.Lines, entity.POLine{
			ItemID:     item.ID,
			ItemSKU:    item.SKU,
			ItemName:   item.Name,
			ItemType:   item.ItemType,
			Quantity:   lr.Quantity,
			UOM:        item.UOM,
			UnitPrice:  lr.UnitPrice,
			Amount:     amount,
			RequiredBy: requiredBy,
			Status:     entity.POLineStatusOpen,
		})
		total = total.Add(amount)
	}
	po.TotalAmount = total

	err = s.purchaseRepo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.purchaseRepo.Create(tx, po); err != nil {
			return err
		}
		for _, line := range po.Lines {
			if err := s.invSvc.AddInboundTx(tx, line.ItemID, line.Quantity, po.ID, userID); err != nil {
				return err
			}
		}
		return s.purchaseRepo.CreateApprovalTask(tx, &entity.ApprovalTask{
			POID:     po.ID,
			PONumber: po.PONumber,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate PO: %w", err)
	}
	return po, nil
}

func (s *ProcurementService) GetPO(id string) (*entity.PurchaseOrder, error) {
	po, err := s.purchaseRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("purchase order %s: %w", id, ErrNotFound)
	}
	return po, err
}

func (s *ProcurementService) ListPOs(params repository.POListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.purchaseRepo.List(params)
}

// Approve moves a DRAFT order to APPROVED, settles its approval task and
// queues the supplier notification. The email is fire-and-forget; a dead
// mail relay never rolls back an approval.
func (s *ProcurementService) Approve(ctx context.Context, poID, userID string) (*entity.PurchaseOrder, error) {
	po, err := s.GetPO(poID)
	if err != nil {
		return nil, err
	}
	if !entity.POCanTransition(po.Status, entity.POStatusApproved) {
		return nil, fmt.Errorf("%s -> %s: %w", po.Status, entity.POStatusApproved, ErrInvalidTransition)
	}
	now := time.Now()
	po.Status = entity.POStatusApproved
	po.ApprovedBy = userID
	po.ApprovedAt = &now
	if err := s.purchaseRepo.Update(po); err != nil {
		return nil, err
	}
	s.settleApprovalTask(poID, userID)

	supplierEmail := ""
	if supplier, err := s.catalogRepo.GetSupplier(po.SupplierID); err == nil {
		supplierEmail = supplier.Email
	}
	if s.notifier != nil {
		s.notifier.POApproved(ctx, po, supplierEmail)
	}
	return po, nil
}

// Reject terminally refuses an order; the reason is mandatory and kept on
// the record. Rejection hands the expected quantities back off the inbound
// balance so shortage math stops counting them.
func (s *ProcurementService) Reject(poID, reason, userID string) (*entity.PurchaseOrder, error) {
	if reason == "" {
		return nil, fmt.Errorf("reject reason is required")
	}
	po, err := s.GetPO(poID)
	if err != nil {
		return nil, err
	}
	if !entity.POCanTransition(po.Status, entity.POStatusRejected) {
		return nil, fmt.Errorf("%s -> %s: %w", po.Status, entity.POStatusRejected, ErrInvalidTransition)
	}
	err = s.purchaseRepo.DB().Transaction(func(tx *gorm.DB) error {
		for _, line := range po.Lines {
			remaining := line.Quantity - line.ReceivedQty
			if remaining <= 0 {
				continue
			}
			if err := s.invSvc.RemoveInboundTx(tx, line.ItemID, remaining, po.ID, userID); err != nil {
				return err
			}
		}
		po.Status = entity.POStatusRejected
		po.RejectReason = reason
		return tx.Save(po).Error
	})
	if err != nil {
		return nil, err
	}
	s.settleApprovalTask(poID, userID)
	return po, nil
}

// Send marks an approved order as dispatched to the supplier.
func (s *ProcurementService) Send(poID string) (*entity.PurchaseOrder, error) {
	po, err := s.GetPO(poID)
	if err != nil {
		return nil, err
	}
	if !entity.POCanTransition(po.Status, entity.POStatusSent) {
		return nil, fmt.Errorf("%s -> %s: %w", po.Status, entity.POStatusSent, ErrInvalidTransition)
	}
	now := time.Now()
	po.Status = entity.POStatusSent
	po.SentAt = &now
	if err := s.purchaseRepo.Update(po); err != nil {
		return nil, err
	}
	return po, nil
}

type ReceivePORequest struct {
	Lines []ReceiveLineRequest `json:"lines" binding:"required,dive"`
}

type ReceiveLineRequest struct {
	LineID   string  `json:"line_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// Receive books a (possibly partial) goods receipt against a sent order.
// Each received quantity lands on the item's on-hand and comes off its
// inbound in one transaction. A line never accumulates past its ordered
// quantity; the order closes when every line is fully received.
func (s *ProcurementService) Receive(poID string, req ReceivePORequest, userID string) (*entity.PurchaseOrder, error) {
	po, err := s.GetPO(poID)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.POStatusSent && po.Status != entity.POStatusPartial {
		return nil, fmt.Errorf("cannot receive against %s order: %w", po.Status, ErrInvalidTransition)
	}
	lineByID := make(map[string]*entity.POLine, len(po.Lines))
	for i := range po.Lines {
		lineByID[po.Lines[i].ID] = &po.Lines[i]
	}

	err = s.purchaseRepo.DB().Transaction(func(tx *gorm.DB) error {
		for _, lr := range req.Lines {
			line, ok := lineByID[lr.LineID]
			if !ok {
				return fmt.Errorf("line %s: %w", lr.LineID, ErrNotFound)
			}
			open := line.Quantity - line.ReceivedQty
			if open <= 0 {
				continue
			}
			qty := lr.Quantity
			if qty > open {
				qty = open
			}
			if err := s.invSvc.ReceiveTx(tx, ReceiveRequest{
				ItemID:   line.ItemID,
				Quantity: qty,
				RefType:  "PO",
				RefID:    po.ID,
			}, userID); err != nil {
				return err
			}
			line.ReceivedQty += qty
			if line.ReceivedQty >= line.Quantity {
				line.Status = entity.POLineStatusReceived
			} else {
				line.Status = entity.POLineStatusPartial
			}
			if err := s.purchaseRepo.UpdateLine(tx, line); err != nil {
				return err
			}
		}

		allReceived := true
		for i := range po.Lines {
			if po.Lines[i].Status != entity.POLineStatusReceived {
				allReceived = false
				break
			}
		}
		if allReceived {
			now := time.Now()
			po.Status = entity.POStatusReceived
			po.ReceivedAt = &now
		} else {
			po.Status = entity.POStatusPartial
		}
		return tx.Save(po).Error
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *ProcurementService) settleApprovalTask(poID, userID string) {
	task, err := s.purchaseRepo.GetApprovalTaskByPO(poID)
	if err != nil {
		return
	}
	now := time.Now()
	task.Status = "DECIDED"
	task.DecidedBy = userID
	task.DecidedAt = &now
	_ = s.purchaseRepo.UpdateApprovalTask(task)
}

// ExportShortageXLSX renders a shortage report as a spreadsheet, one sheet
// per item type, for procurement to circulate.
func ExportShortageXLSX(report *ShortageReport) (*excelize.File, error) {
	f := excelize.NewFile()
	header := []interface{}{"SKU", "Name", "Required", "On Hand", "Reserved", "Available", "Inbound", "Shortage", "UOM", "Jobs"}

	writeSheet := func(sheet string, records []ShortageRecord) error {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		for i, rec := range records {
			row := []interface{}{
				rec.SKU, rec.Name, rec.TotalRequired, rec.OnHand, rec.Reserved,
				rec.Available, rec.Inbound, rec.Shortage, rec.UOM, len(rec.Jobs),
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeSheet("Raw Materials", report.Raw); err != nil {
		return nil, err
	}
	if err := writeSheet("Packaging", report.Pack); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}
