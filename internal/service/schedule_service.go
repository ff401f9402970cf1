package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/repository"
)

// DefaultDrumsPerDay is the fixed daily line capacity in drums.
const DefaultDrumsPerDay = 600

// DayJob is one job order as placed on a schedule day. NetKg is the
// finished-product weight of the whole job, zero when master data cannot
// resolve a per-drum fill weight.
type DayJob struct {
	JobID         string  `json:"job_id"`
	JobNumber     string  `json:"job_number"`
	ProductName   string  `json:"product_name"`
	PackagingName string  `json:"packaging_name"`
	Drums         int     `json:"drums"`
	NetKg         float64 `json:"net_kg"`
	Shift         string  `json:"shift"`
	Status        string  `json:"status"`
	MaterialReady bool    `json:"material_ready"`
	ShortageItems int     `json:"shortage_items"`
}

// DaySchedule is one calendar day of the plan. DrumsScheduled may exceed
// capacity while jobs are pending; the day is then flagged full for manual
// rescheduling. Remaining capacity never reads negative.
type DaySchedule struct {
	Date           string   `json:"date"`
	DayName        string   `json:"day_name"`
	Jobs           []DayJob `json:"jobs"`
	DrumsScheduled int      `json:"drums_scheduled"`
	KgScheduled    float64  `json:"kg_scheduled"`
	DrumsCapacity  int      `json:"drums_capacity"`
	DrumsRemaining int      `json:"drums_remaining"`
	Utilization    float64  `json:"utilization"`
	IsFull         bool     `json:"is_full"`
}

// ScheduleSummary aggregates the window.
type ScheduleSummary struct {
	TotalDrumsScheduled int     `json:"total_drums_scheduled"`
	TotalKgScheduled    float64 `json:"total_kg_scheduled"`
	JobsScheduled       int     `json:"jobs_scheduled"`
	UnscheduledJobs     int     `json:"unscheduled_jobs"`
	DaysWithCapacity    int     `json:"days_with_capacity"`
	AverageUtilization  float64 `json:"average_utilization"`
}

// ScheduleView is the unified schedule returned to callers.
type ScheduleView struct {
	Schedule    []DaySchedule       `json:"schedule"`
	Summary     ScheduleSummary     `json:"summary"`
	Constraints ScheduleConstraints `json:"constraints"`
}

type ScheduleConstraints struct {
	DrumsPerDay int `json:"drums_per_day"`
}

// buildSchedule places jobs on days by their planned date — no bin
// packing, just direct placement with subtotals and overflow detection.
// Pure over its inputs; jobs outside the window count as unscheduled.
func buildSchedule(start time.Time, days int, jobs []entity.JobOrder, capacity int, shortageByJob map[string]int, netKgByJob map[string]float64) ScheduleView {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	schedule := make([]DaySchedule, days)
	for i := range schedule {
		date := start.AddDate(0, 0, i)
		schedule[i] = DaySchedule{
			Date:          date.Format("2006-01-02"),
			DayName:       date.Weekday().String(),
			Jobs:          []DayJob{},
			DrumsCapacity: capacity,
		}
	}

	summary := ScheduleSummary{}
	for _, job := range jobs {
		planned := job.PlannedDate()
		offset := int(time.Date(planned.Year(), planned.Month(), planned.Day(), 0, 0, 0, 0, time.UTC).Sub(start).Hours() / 24)
		if offset < 0 || offset >= days {
			summary.UnscheduledJobs++
			continue
		}
		shortageItems := shortageByJob[job.ID]
		netKg := netKgByJob[job.ID]
		schedule[offset].Jobs = append(schedule[offset].Jobs, DayJob{
			JobID:         job.ID,
			JobNumber:     job.JobNumber,
			ProductName:   job.ProductName,
			PackagingName: job.PackagingName,
			Drums:         job.Quantity,
			NetKg:         netKg,
			Shift:         job.ScheduledShift,
			Status:        job.Status,
			MaterialReady: shortageItems == 0,
			ShortageItems: shortageItems,
		})
		schedule[offset].DrumsScheduled += job.Quantity
		schedule[offset].KgScheduled += netKg
		summary.TotalDrumsScheduled += job.Quantity
		summary.TotalKgScheduled += netKg
		summary.JobsScheduled++
	}

	var utilizationSum float64
	for i := range schedule {
		day := &schedule[i]
		day.DrumsRemaining = day.DrumsCapacity - day.DrumsScheduled
		if day.DrumsRemaining < 0 {
			day.DrumsRemaining = 0
		}
		if day.DrumsCapacity > 0 {
			day.Utilization = math.Round(float64(day.DrumsScheduled)/float64(day.DrumsCapacity)*10000) / 100
		}
		day.IsFull = day.Utilization >= 100
		if !day.IsFull {
			summary.DaysWithCapacity++
		}
		utilizationSum += day.Utilization
	}
	if days > 0 {
		summary.AverageUtilization = math.Round(utilizationSum/float64(days)*100) / 100
	}

	return ScheduleView{
		Schedule:    schedule,
		Summary:     summary,
		Constraints: ScheduleConstraints{DrumsPerDay: capacity},
	}
}

// ScheduleService owns job placement, the job status machine, and the
// capacity invariant: once the jobs on a day are approved or beyond, their
// drums never exceed the day's capacity.
type ScheduleService struct {
	jobRepo     *repository.JobRepository
	invRepo     *repository.InventoryRepository
	bomSvc      *BOMService
	invSvc      *InventoryService
	shortageSvc *ShortageService
	catalogSvc  *CatalogService
	capacity    int
}

func NewScheduleService(
	jobRepo *repository.JobRepository,
	invRepo *repository.InventoryRepository,
	bomSvc *BOMService,
	invSvc *InventoryService,
	shortageSvc *ShortageService,
	catalogSvc *CatalogService,
	capacity int,
) *ScheduleService {
	if capacity <= 0 {
		capacity = DefaultDrumsPerDay
	}
	return &ScheduleService{
		jobRepo:     jobRepo,
		invRepo:     invRepo,
		bomSvc:      bomSvc,
		invSvc:      invSvc,
		shortageSvc: shortageSvc,
		catalogSvc:  catalogSvc,
		capacity:    capacity,
	}
}

// approvedStatuses are the statuses that count against the hard day
// capacity invariant.
var approvedStatuses = []string{
	entity.JobStatusApproved,
	entity.JobStatusInProduction,
	entity.JobStatusProductionCompleted,
	entity.JobStatusReadyForDispatch,
}

// Advisory lock class for approval serialization, keyed per planned day.
const dayLockClass = 7430

// lockDayCapacity serializes approvals for one day. The ledger version
// column only covers approvals sharing a material row; jobs with disjoint
// BOMs would otherwise both read the pre-commit drum sum and both pass the
// capacity check. Held until the surrounding transaction ends.
func lockDayCapacity(tx *gorm.DB, day time.Time) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", dayLockClass, int32(day.Unix()/86400)).Error
}

// GetSchedule builds the unified schedule for the window. Read-only
// snapshot: it may run concurrently with writes and is advisory until a
// job approval actually reserves stock.
func (s *ScheduleService) GetSchedule(ctx context.Context, start time.Time, days int) (*ScheduleView, error) {
	if days <= 0 {
		days = 7
	}
	jobs, err := s.jobRepo.ListOpen()
	if err != nil {
		return nil, err
	}
	report, err := s.shortageSvc.Compute(ctx, jobs)
	if err != nil {
		return nil, err
	}
	view := buildSchedule(start, days, jobs, s.capacity, report.JobMaterialStatus(), s.netKgByJob(jobs))
	return &view, nil
}

// netKgByJob converts drum counts to finished-product weight. The fill
// weight is cached per product/packaging pair; a job whose master data
// cannot resolve a weight renders as zero kg rather than failing the view.
func (s *ScheduleService) netKgByJob(jobs []entity.JobOrder) map[string]float64 {
	perDrum := make(map[string]float64)
	out := make(map[string]float64, len(jobs))
	for _, job := range jobs {
		key := job.ProductID + "|" + job.PackagingID
		kg, cached := perDrum[key]
		if !cached {
			resolved, err := s.catalogSvc.NetWeightKg(job.ProductID, job.PackagingID)
			if err == nil {
				kg = resolved
			}
			perDrum[key] = kg
		}
		out[job.ID] = kg * float64(job.Quantity)
	}
	return out
}

type CreateJobRequest struct {
	ProductID     string `json:"product_id" binding:"required"`
	ProductName   string `json:"product_name"`
	PackagingID   string `json:"packaging_id" binding:"required"`
	PackagingName string `json:"packaging_name"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	DeliveryDate  string `json:"delivery_date" binding:"required"` // YYYY-MM-DD
	Notes         string `json:"notes"`
}

func (s *ScheduleService) CreateJob(req CreateJobRequest, userID string) (*entity.JobOrder, error) {
	delivery, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery_date: %w", err)
	}
	now := time.Now()
	job := &entity.JobOrder{
		JobNumber:      fmt.Sprintf("JO-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		ProductID:      req.ProductID,
		ProductName:    req.ProductName,
		PackagingID:    req.PackagingID,
		PackagingName:  req.PackagingName,
		Quantity:       req.Quantity,
		DeliveryDate:   delivery,
		ScheduledShift: entity.ShiftDay,
		Status:         entity.JobStatusPending,
		Notes:          req.Notes,
		CreatedBy:      userID,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create job order: %w", err)
	}
	return job, nil
}

func (s *ScheduleService) GetJob(id string) (*entity.JobOrder, error) {
	job, err := s.jobRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job, err
}

func (s *ScheduleService) ListJobs(params repository.JobListParams) ([]entity.JobOrder, int64, error) {
	return s.jobRepo.List(params)
}

// UpdateStatus advances a job along the status machine. Approval is the
// state change with teeth: in one transaction it checks the day capacity
// invariant, explodes both BOMs, and hard-reserves every material — two
// approvals racing for the same material serialize on the ledger's version
// column, and the loser commits nothing. Soft mode (allowShortage) reserves
// what exists and tracks the deficit instead of refusing.
func (s *ScheduleService) UpdateStatus(jobID, next string, allowShortage bool, userID string) (*entity.JobOrder, error) {
	job, err := s.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if next == entity.JobStatusRescheduled {
		return nil, fmt.Errorf("use the reschedule operation to move a job: %w", ErrInvalidTransition)
	}
	if !entity.CanTransition(job.Status, next) {
		return nil, fmt.Errorf("%s -> %s: %w", job.Status, next, ErrInvalidTransition)
	}

	switch next {
	case entity.JobStatusApproved:
		if err := s.approve(job, allowShortage, userID); err != nil {
			return nil, err
		}
	case entity.JobStatusProductionCompleted:
		if err := s.completeProduction(job, userID); err != nil {
			return nil, err
		}
	default:
		job.Status = next
		if err := s.jobRepo.Update(job); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func (s *ScheduleService) approve(job *entity.JobOrder, allowShortage bool, userID string) error {
	mode := ReserveHard
	if allowShortage {
		mode = ReserveSoft
	}
	return s.jobRepo.DB().Transaction(func(tx *gorm.DB) error {
		if err := lockDayCapacity(tx, job.PlannedDate()); err != nil {
			return err
		}
		// Day invariant: approved-or-later drums on this day must fit.
		approvedDrums, err := s.jobRepo.SumDrumsOnDay(tx, job.PlannedDate(), approvedStatuses)
		if err != nil {
			return err
		}
		if approvedDrums+job.Quantity > s.capacity {
			return fmt.Errorf("day %s: %d approved drums + %d requested > %d: %w",
				job.PlannedDate().Format("2006-01-02"), approvedDrums, job.Quantity, s.capacity, ErrCapacityExceeded)
		}

		qty := float64(job.Quantity)
		bom, err := s.bomSvc.Resolve(job.ProductID)
		if err != nil {
			return err
		}
		for _, line := range bom.Lines {
			if err := s.reserveLine(tx, job, line.MaterialItemID, line.QtyPerUnit*qty, mode, userID); err != nil {
				return err
			}
		}
		packBOM, err := s.bomSvc.ResolvePackaging(job.PackagingID)
		if err != nil && !errors.Is(err, ErrNoActiveBOM) {
			return err
		}
		if packBOM != nil {
			for _, line := range packBOM.Lines {
				if err := s.reserveLine(tx, job, line.PackItemID, line.QtyPerUnit*qty, mode, userID); err != nil {
					return err
				}
			}
		}

		job.Status = entity.JobStatusApproved
		return tx.Save(job).Error
	})
}

func (s *ScheduleService) reserveLine(tx *gorm.DB, job *entity.JobOrder, itemID string, qty float64, mode, userID string) error {
	res, err := s.invSvc.ReserveTx(tx, itemID, qty, mode, "JOB", job.ID, userID)
	if err != nil {
		return err
	}
	if res.ReservedQty <= 0 {
		return nil
	}
	return s.invRepo.CreateJobReservation(tx, &entity.JobReservation{
		JobOrderID: job.ID,
		ItemID:     itemID,
		Quantity:   res.ReservedQty,
	})
}

// completeProduction consumes the job's reservations: stock leaves on-hand
// and reserved together, and the reservation rows are cleared.
func (s *ScheduleService) completeProduction(job *entity.JobOrder, userID string) error {
	reservations, err := s.invRepo.ListJobReservations(job.ID)
	if err != nil {
		return err
	}
	return s.jobRepo.DB().Transaction(func(tx *gorm.DB) error {
		for _, res := range reservations {
			if err := s.invSvc.ConsumeTx(tx, res.ItemID, res.Quantity, "JOB", job.ID, userID); err != nil {
				return err
			}
		}
		if err := s.invRepo.DeleteJobReservations(tx, job.ID); err != nil {
			return err
		}
		job.Status = entity.JobStatusProductionCompleted
		return tx.Save(job).Error
	})
}

// DayCheck is the overflow snapshot of one day after a reschedule.
type DayCheck struct {
	Date           string  `json:"date"`
	DrumsScheduled int     `json:"drums_scheduled"`
	DrumsCapacity  int     `json:"drums_capacity"`
	Utilization    float64 `json:"utilization"`
	IsFull         bool    `json:"is_full"`
}

// RescheduleResult reports the moved job plus fresh overflow checks for
// both affected days.
type RescheduleResult struct {
	Job    *entity.JobOrder `json:"job"`
	OldDay *DayCheck        `json:"old_day,omitempty"`
	NewDay *DayCheck        `json:"new_day"`
	NoOp   bool             `json:"no_op"`
}

// Reschedule moves a job to a new day and shift. The move, the release of
// any hard reservations and the status reset to pending happen in one
// transaction, so no window exists where two days both count the job's
// drums. Calling it again with the identical target is a no-op.
func (s *ScheduleService) Reschedule(jobID string, newDate time.Time, newShift, userID string) (*RescheduleResult, error) {
	job, err := s.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if newShift == "" {
		newShift = entity.ShiftDay
	}
	if newShift != entity.ShiftDay && newShift != entity.ShiftNight {
		return nil, fmt.Errorf("unknown shift %q", newShift)
	}

	newDay := time.Date(newDate.Year(), newDate.Month(), newDate.Day(), 0, 0, 0, 0, time.UTC)
	if job.ScheduledDate != nil && sameDay(*job.ScheduledDate, newDay) && job.ScheduledShift == newShift {
		check, err := s.dayCheck(newDay)
		if err != nil {
			return nil, err
		}
		return &RescheduleResult{Job: job, NewDay: check, NoOp: true}, nil
	}

	// Rescheduling routes through the transient rescheduled status back to
	// pending; a terminal job cannot move.
	if !entity.CanTransition(job.Status, entity.JobStatusRescheduled) {
		return nil, fmt.Errorf("%s -> %s: %w", job.Status, entity.JobStatusRescheduled, ErrInvalidTransition)
	}

	oldDay := job.PlannedDate()
	reservations, err := s.invRepo.ListJobReservations(job.ID)
	if err != nil {
		return nil, err
	}

	err = s.jobRepo.DB().Transaction(func(tx *gorm.DB) error {
		for _, res := range reservations {
			if err := s.invSvc.ReleaseTx(tx, res.ItemID, res.Quantity, "JOB", job.ID, userID); err != nil {
				return err
			}
		}
		if err := s.invRepo.DeleteJobReservations(tx, job.ID); err != nil {
			return err
		}
		job.ScheduledDate = &newDay
		job.ScheduledShift = newShift
		job.Status = entity.JobStatusPending
		return tx.Save(job).Error
	})
	if err != nil {
		return nil, err
	}

	oldCheck, err := s.dayCheck(oldDay)
	if err != nil {
		return nil, err
	}
	newCheck, err := s.dayCheck(newDay)
	if err != nil {
		return nil, err
	}
	return &RescheduleResult{Job: job, OldDay: oldCheck, NewDay: newCheck}, nil
}

// dayCheck recomputes one day's totals and overflow flag.
func (s *ScheduleService) dayCheck(day time.Time) (*DayCheck, error) {
	total, err := s.jobRepo.SumDrumsOnDay(s.jobRepo.DB(), day, append([]string{entity.JobStatusPending}, approvedStatuses...))
	if err != nil {
		return nil, err
	}
	utilization := 0.0
	if s.capacity > 0 {
		utilization = math.Round(float64(total)/float64(s.capacity)*10000) / 100
	}
	return &DayCheck{
		Date:           day.Format("2006-01-02"),
		DrumsScheduled: total,
		DrumsCapacity:  s.capacity,
		Utilization:    utilization,
		IsFull:         utilization >= 100,
	}, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
