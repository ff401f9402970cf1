package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/testutil"
)

type scheduleFixture struct {
	db        *gorm.DB
	svc       *ScheduleService
	invSvc    *InventoryService
	bomSvc    *BOMService
	catalog   *CatalogService
	invRepo   *repository.InventoryRepository
	product   *entity.Product
	packaging *entity.Packaging
	material  *entity.InventoryItem
	drumShell *entity.InventoryItem
}

func setupScheduleTest(t *testing.T) *scheduleFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	notifier := notify.NewNotifier(db, nil, zap.NewNop())
	services := NewServices(repos, db, notifier, zap.NewNop(), 600)

	f := &scheduleFixture{
		db:        db,
		svc:       services.Schedule,
		invSvc:    services.Inventory,
		bomSvc:    services.BOM,
		catalog:   services.Catalog,
		invRepo:   repos.Inventory,
		product:   testutil.SeedProduct(t, db, "FG-OIL-1", "Hydraulic Oil 46"),
		packaging: testutil.SeedPackaging(t, db, "Steel Drum 200L", 200),
	}
	f.material = testutil.SeedItem(t, db, "RM-BASE", "Base Oil", entity.ItemTypeRaw, 10000, 0, 0)
	f.drumShell = testutil.SeedItem(t, db, "PK-DRUM", "Steel Drum Shell", entity.ItemTypePack, 500, 0, 0)

	// 180 KG base oil and one drum shell per drum
	if _, err := services.BOM.CreateProductBOM(CreateBOMRequest{
		ProductID: f.product.ID,
		Activate:  true,
		Lines:     []BOMLineRequest{{MaterialItemID: f.material.ID, QtyPerUnit: 180}},
	}, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := services.BOM.CreatePackagingBOM(CreatePackagingBOMRequest{
		PackagingID: f.packaging.ID,
		Activate:    true,
		Lines:       []BOMLineRequest{{MaterialItemID: f.drumShell.ID, QtyPerUnit: 1}},
	}, "tester"); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *scheduleFixture) seedJob(t *testing.T, qty int, delivery time.Time, status string) *entity.JobOrder {
	t.Helper()
	return testutil.SeedJob(t, f.db, f.product.ID, f.packaging.ID, qty, delivery, status)
}

func TestApproveReservesBothBOMs(t *testing.T) {
	f := setupScheduleTest(t)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)

	updated, err := f.svc.UpdateStatus(job.ID, entity.JobStatusApproved, false, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != entity.JobStatusApproved {
		t.Fatalf("status = %s, want approved", updated.Status)
	}

	material, _ := f.invSvc.GetItem(f.material.ID)
	if material.Reserved != 1800 {
		t.Fatalf("material reserved = %v, want 1800 (10 drums x 180)", material.Reserved)
	}
	shell, _ := f.invSvc.GetItem(f.drumShell.ID)
	if shell.Reserved != 10 {
		t.Fatalf("shell reserved = %v, want 10", shell.Reserved)
	}

	reservations, err := f.invRepo.ListJobReservations(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reservations) != 2 {
		t.Fatalf("reservations = %d, want 2", len(reservations))
	}
}

func TestApproveHardFailsAtomically(t *testing.T) {
	f := setupScheduleTest(t)
	// drain drum shells so the PACK reservation must fail after RAW succeeded
	f.db.Model(&entity.InventoryItem{}).Where("id = ?", f.drumShell.ID).
		Update("on_hand", 3)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)

	_, err := f.svc.UpdateStatus(job.ID, entity.JobStatusApproved, false, "tester")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// nothing from the failed approval may remain
	material, _ := f.invSvc.GetItem(f.material.ID)
	if material.Reserved != 0 {
		t.Fatalf("material reserved = %v after rollback, want 0", material.Reserved)
	}
	fresh, _ := f.svc.GetJob(job.ID)
	if fresh.Status != entity.JobStatusPending {
		t.Fatalf("status = %s after rollback, want pending", fresh.Status)
	}
}

func TestApproveSoftModeTracksShortfall(t *testing.T) {
	f := setupScheduleTest(t)
	f.db.Model(&entity.InventoryItem{}).Where("id = ?", f.drumShell.ID).
		Update("on_hand", 3)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)

	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusApproved, true, "tester"); err != nil {
		t.Fatal(err)
	}

	shell, _ := f.invSvc.GetItem(f.drumShell.ID)
	if shell.Reserved != 3 {
		t.Fatalf("shell reserved = %v, want clamped 3", shell.Reserved)
	}

	moves, _, _ := f.invSvc.ListMovements(f.drumShell.ID, 1, 10)
	if len(moves) != 1 || moves[0].ShortfallQty != 7 {
		t.Fatalf("expected one movement with shortfall 7, got %+v", moves)
	}
}

func TestApproveEnforcesDayCapacity(t *testing.T) {
	f := setupScheduleTest(t)
	f.seedJob(t, 500, day(1), entity.JobStatusApproved)
	job := f.seedJob(t, 200, day(1), entity.JobStatusPending)

	_, err := f.svc.UpdateStatus(job.ID, entity.JobStatusApproved, false, "tester")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// pending drums do not count against the invariant
	other := f.seedJob(t, 50, day(1), entity.JobStatusPending)
	if _, err := f.svc.UpdateStatus(other.ID, entity.JobStatusApproved, false, "tester"); err != nil {
		t.Fatalf("500+50 fits in 600: %v", err)
	}
}

func TestConcurrentApprovalsCannotOverbookDay(t *testing.T) {
	f := setupScheduleTest(t)
	f.db.Model(&entity.InventoryItem{}).Where("id = ?", f.material.ID).
		Update("on_hand", 200000)
	f.db.Model(&entity.InventoryItem{}).Where("id = ?", f.drumShell.ID).
		Update("on_hand", 2000)

	first := f.seedJob(t, 400, day(1), entity.JobStatusPending)
	second := f.seedJob(t, 400, day(1), entity.JobStatusPending)

	errs := make(chan error, 2)
	for _, id := range []string{first.ID, second.ID} {
		go func(jobID string) {
			_, err := f.svc.UpdateStatus(jobID, entity.JobStatusApproved, false, "tester")
			errs <- err
		}(id)
	}

	var approved, refused int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			approved++
		case errors.Is(err, ErrCapacityExceeded):
			refused++
		default:
			t.Fatalf("unexpected approval error: %v", err)
		}
	}
	if approved != 1 || refused != 1 {
		t.Fatalf("approved=%d refused=%d, want exactly one of each", approved, refused)
	}

	total, err := repository.NewJobRepository(f.db).SumDrumsOnDay(f.db, day(1), []string{entity.JobStatusApproved})
	if err != nil {
		t.Fatal(err)
	}
	if total != 400 {
		t.Fatalf("approved drums on day = %d, want 400", total)
	}
}

func TestGetScheduleComputesKgTotals(t *testing.T) {
	f := setupScheduleTest(t)
	if _, err := f.catalog.UpsertSpec(UpsertSpecRequest{
		ProductID:   f.product.ID,
		PackagingID: f.packaging.ID,
		NetWeightKg: 180,
	}); err != nil {
		t.Fatal(err)
	}
	f.seedJob(t, 10, day(1), entity.JobStatusPending)

	view, err := f.svc.GetSchedule(context.Background(), day(0), 7)
	if err != nil {
		t.Fatal(err)
	}
	if view.Schedule[1].KgScheduled != 1800 {
		t.Fatalf("day kg = %v, want 1800 (10 drums x 180)", view.Schedule[1].KgScheduled)
	}
	if view.Summary.TotalKgScheduled != 1800 {
		t.Fatalf("total kg = %v, want 1800", view.Summary.TotalKgScheduled)
	}
	if view.Schedule[1].Jobs[0].NetKg != 1800 {
		t.Fatalf("job net kg = %v, want 1800", view.Schedule[1].Jobs[0].NetKg)
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	f := setupScheduleTest(t)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)

	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusInProduction, false, "tester"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> in_production must fail, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusRescheduled, false, "tester"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("direct rescheduled must be rejected, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(job.ID, "cancelled", false, "tester"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}
}

func TestCompleteProductionConsumesReservations(t *testing.T) {
	f := setupScheduleTest(t)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)

	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusApproved, false, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusInProduction, false, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusProductionCompleted, false, "tester"); err != nil {
		t.Fatal(err)
	}

	material, _ := f.invSvc.GetItem(f.material.ID)
	if material.OnHand != 8200 {
		t.Fatalf("material on_hand = %v, want 8200", material.OnHand)
	}
	if material.Reserved != 0 {
		t.Fatalf("material reserved = %v, want 0", material.Reserved)
	}
	reservations, _ := f.invRepo.ListJobReservations(job.ID)
	if len(reservations) != 0 {
		t.Fatalf("reservations = %d after completion, want 0", len(reservations))
	}
}

func TestRescheduleReleasesAndResets(t *testing.T) {
	f := setupScheduleTest(t)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)
	if _, err := f.svc.UpdateStatus(job.ID, entity.JobStatusApproved, false, "tester"); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.Reschedule(job.ID, day(3), entity.ShiftNight, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if result.NoOp {
		t.Fatal("real move must not be a no-op")
	}
	if result.Job.Status != entity.JobStatusPending {
		t.Fatalf("status = %s after move, want pending", result.Job.Status)
	}
	if result.Job.ScheduledShift != entity.ShiftNight {
		t.Fatalf("shift = %s, want NIGHT", result.Job.ScheduledShift)
	}

	material, _ := f.invSvc.GetItem(f.material.ID)
	if material.Reserved != 0 {
		t.Fatalf("material reserved = %v after release, want 0", material.Reserved)
	}
	if result.NewDay.Date != day(3).Format("2006-01-02") {
		t.Fatalf("new day = %s, want %s", result.NewDay.Date, day(3).Format("2006-01-02"))
	}
}

func TestRescheduleSameSlotIsNoOp(t *testing.T) {
	f := setupScheduleTest(t)
	job := f.seedJob(t, 10, day(1), entity.JobStatusPending)

	first, err := f.svc.Reschedule(job.ID, day(2), entity.ShiftDay, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if first.NoOp {
		t.Fatal("first move is not a no-op")
	}

	second, err := f.svc.Reschedule(job.ID, day(2), entity.ShiftDay, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if !second.NoOp {
		t.Fatal("identical target must be a no-op")
	}
}

func TestRescheduleTerminalJobRejected(t *testing.T) {
	f := setupScheduleTest(t)
	job := f.seedJob(t, 10, day(1), entity.JobStatusReadyForDispatch)

	_, err := f.svc.Reschedule(job.ID, day(3), entity.ShiftDay, "tester")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal job must not move, got %v", err)
	}
}

func TestGetScheduleMarksMaterialShortJobs(t *testing.T) {
	f := setupScheduleTest(t)
	// not enough base oil for 100 drums (needs 18000)
	f.db.Model(&entity.InventoryItem{}).Where("id = ?", f.material.ID).
		Update("on_hand", 900)
	f.seedJob(t, 100, day(1), entity.JobStatusPending)

	view, err := f.svc.GetSchedule(context.Background(), day(0), 7)
	if err != nil {
		t.Fatal(err)
	}
	jobs := view.Schedule[1].Jobs
	if len(jobs) != 1 {
		t.Fatalf("day 1 jobs = %d, want 1", len(jobs))
	}
	if jobs[0].MaterialReady {
		t.Fatal("short job must not read material ready")
	}
	if jobs[0].ShortageItems != 1 {
		t.Fatalf("shortage items = %d, want 1", jobs[0].ShortageItems)
	}
}
