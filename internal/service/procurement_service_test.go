package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/testutil"
)

type procurementFixture struct {
	db       *gorm.DB
	svc      *ProcurementService
	invSvc   *InventoryService
	supplier *entity.Supplier
	item     *entity.InventoryItem
}

func setupProcurementTest(t *testing.T) *procurementFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	notifier := notify.NewNotifier(db, nil, zap.NewNop())
	services := NewServices(repos, db, notifier, zap.NewNop(), 600)

	supplier := &entity.Supplier{
		Code:     "SUP-001",
		Name:     "Apex Chemicals",
		Email:    "orders@apexchem.test",
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}

	return &procurementFixture{
		db:       db,
		svc:      services.Procurement,
		invSvc:   services.Inventory,
		supplier: supplier,
		item:     testutil.SeedItem(t, db, "RM-BASE", "Base Oil", entity.ItemTypeRaw, 100, 0, 0),
	}
}

func TestGeneratePORequiresLines(t *testing.T) {
	f := setupProcurementTest(t)

	_, err := f.svc.GeneratePO(GeneratePORequest{SupplierID: f.supplier.ID}, "tester")
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
}

func TestGeneratePORequiresUnitPrice(t *testing.T) {
	f := setupProcurementTest(t)

	_, err := f.svc.GeneratePO(GeneratePORequest{
		SupplierID: f.supplier.ID,
		Lines:      []POLineRequest{{ItemID: f.item.ID, Quantity: 500}},
	}, "tester")
	if !errors.Is(err, ErrMissingUnitPrice) {
		t.Fatalf("expected ErrMissingUnitPrice, got %v", err)
	}
	// the error must name the item
	if err != nil && !strings.Contains(err.Error(), "RM-BASE") {
		t.Fatalf("error should name the offending item: %v", err)
	}
}

func TestGeneratePOBooksInbound(t *testing.T) {
	f := setupProcurementTest(t)

	po, err := f.svc.GeneratePO(GeneratePORequest{
		SupplierID: f.supplier.ID,
		Lines:      []POLineRequest{{ItemID: f.item.ID, Quantity: 500, UnitPrice: decimal.NewFromFloat(2.50)}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if po.Status != entity.POStatusDraft {
		t.Fatalf("status = %s, want DRAFT", po.Status)
	}
	if !po.TotalAmount.Equal(decimal.NewFromFloat(1250)) {
		t.Fatalf("total = %s, want 1250", po.TotalAmount)
	}

	item, _ := f.invSvc.GetItem(f.item.ID)
	if item.Inbound != 500 {
		t.Fatalf("inbound = %v, want 500", item.Inbound)
	}
}

func TestApprovePOQueuesNotification(t *testing.T) {
	f := setupProcurementTest(t)
	po, _ := f.svc.GeneratePO(GeneratePORequest{
		SupplierID: f.supplier.ID,
		Lines:      []POLineRequest{{ItemID: f.item.ID, Quantity: 500, UnitPrice: decimal.NewFromFloat(2.50)}},
	}, "tester")

	approved, err := f.svc.Approve(context.Background(), po.ID, "approver")
	if err != nil {
		t.Fatal(err)
	}
	if approved.Status != entity.POStatusApproved {
		t.Fatalf("status = %s, want APPROVED", approved.Status)
	}
	if approved.ApprovedBy != "approver" || approved.ApprovedAt == nil {
		t.Fatal("approval must record who and when")
	}

	var mails []entity.EmailOutbox
	f.db.Where("ref_type = ? AND ref_id = ?", "PO", po.ID).Find(&mails)
	if len(mails) != 1 {
		t.Fatalf("outbox rows = %d, want 1", len(mails))
	}
	if mails[0].Status != entity.EmailStatusQueued {
		t.Fatalf("mail status = %s, want QUEUED", mails[0].Status)
	}
	if mails[0].To != f.supplier.Email {
		t.Fatalf("mail to = %s, want supplier email", mails[0].To)
	}
}

func TestRejectPOIsTerminalAndReleasesInbound(t *testing.T) {
	f := setupProcurementTest(t)
	po, _ := f.svc.GeneratePO(GeneratePORequest{
		SupplierID: f.supplier.ID,
		Lines:      []POLineRequest{{ItemID: f.item.ID, Quantity: 500, UnitPrice: decimal.NewFromFloat(2.50)}},
	}, "tester")

	if _, err := f.svc.Reject(po.ID, "", "tester"); err == nil {
		t.Fatal("rejection without a reason must fail")
	}

	rejected, err := f.svc.Reject(po.ID, "wrong grade quoted", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != entity.POStatusRejected {
		t.Fatalf("status = %s, want REJECTED", rejected.Status)
	}
	if rejected.RejectReason != "wrong grade quoted" {
		t.Fatalf("reason = %q", rejected.RejectReason)
	}

	item, _ := f.invSvc.GetItem(f.item.ID)
	if item.Inbound != 0 {
		t.Fatalf("inbound = %v after rejection, want 0", item.Inbound)
	}

	// terminal: no resurrection
	if _, err := f.svc.Approve(context.Background(), po.ID, "tester"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("rejected PO must not approve, got %v", err)
	}
}

func TestReceivePOPartialThenComplete(t *testing.T) {
	f := setupProcurementTest(t)
	po, _ := f.svc.GeneratePO(GeneratePORequest{
		SupplierID: f.supplier.ID,
		Lines:      []POLineRequest{{ItemID: f.item.ID, Quantity: 500, UnitPrice: decimal.NewFromFloat(2.50)}},
	}, "tester")
	if _, err := f.svc.Approve(context.Background(), po.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Send(po.ID); err != nil {
		t.Fatal(err)
	}

	po, _ = f.svc.GetPO(po.ID)
	lineID := po.Lines[0].ID

	partial, err := f.svc.Receive(po.ID, ReceivePORequest{
		Lines: []ReceiveLineRequest{{LineID: lineID, Quantity: 200}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if partial.Status != entity.POStatusPartial {
		t.Fatalf("status = %s, want PARTIAL", partial.Status)
	}

	item, _ := f.invSvc.GetItem(f.item.ID)
	if item.OnHand != 300 {
		t.Fatalf("on_hand = %v, want 300", item.OnHand)
	}
	if item.Inbound != 300 {
		t.Fatalf("inbound = %v, want 300", item.Inbound)
	}

	// over-receipt clamps at the ordered quantity
	done, err := f.svc.Receive(po.ID, ReceivePORequest{
		Lines: []ReceiveLineRequest{{LineID: lineID, Quantity: 999}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != entity.POStatusReceived {
		t.Fatalf("status = %s, want RECEIVED", done.Status)
	}
	if done.ReceivedAt == nil {
		t.Fatal("completion must stamp received_at")
	}

	item, _ = f.invSvc.GetItem(f.item.ID)
	if item.OnHand != 600 {
		t.Fatalf("on_hand = %v, want 600 (100 seed + 500 ordered)", item.OnHand)
	}
	if item.Inbound != 0 {
		t.Fatalf("inbound = %v, want 0", item.Inbound)
	}

	fresh, _ := f.svc.GetPO(po.ID)
	if fresh.Lines[0].ReceivedQty != 500 {
		t.Fatalf("received_qty = %v, want clamped 500", fresh.Lines[0].ReceivedQty)
	}
}

func TestReceiveBeforeSendRejected(t *testing.T) {
	f := setupProcurementTest(t)
	po, _ := f.svc.GeneratePO(GeneratePORequest{
		SupplierID: f.supplier.ID,
		Lines:      []POLineRequest{{ItemID: f.item.ID, Quantity: 500, UnitPrice: decimal.NewFromFloat(2.50)}},
	}, "tester")

	_, err := f.svc.Receive(po.ID, ReceivePORequest{
		Lines: []ReceiveLineRequest{{LineID: "whatever", Quantity: 1}},
	}, "tester")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("receiving against a DRAFT must fail, got %v", err)
	}
}
