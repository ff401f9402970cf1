package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
)

// ShortageRecord is derived, never persisted: the gap between what the
// open job set requires of an item and what the ledger can promise right
// now. Shortage is clamped at zero.
type ShortageRecord struct {
	ItemID        string   `json:"item_id"`
	SKU           string   `json:"sku"`
	Name          string   `json:"name"`
	ItemType      string   `json:"item_type"` // RAW or PACK
	UOM           string   `json:"uom"`
	TotalRequired float64  `json:"total_required"`
	OnHand        float64  `json:"on_hand"`
	Reserved      float64  `json:"reserved"`
	Inbound       float64  `json:"inbound"`
	Available     float64  `json:"available"`
	Shortage      float64  `json:"total_shortage"`
	Jobs          []string `json:"jobs"`
}

// SkippedJob names a job the pass could not explode, and why.
type SkippedJob struct {
	JobID     string `json:"job_id"`
	JobNumber string `json:"job_number"`
	Reason    string `json:"reason"`
}

// ShortageReport is the result of one aggregation pass. It reflects the
// ledger and BOMs at ComputedAt and must not be reused; both change
// underneath it.
type ShortageReport struct {
	Raw         []ShortageRecord `json:"raw_shortages"`
	Pack        []ShortageRecord `json:"pack_shortages"`
	SkippedJobs []SkippedJob     `json:"skipped_jobs"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// itemDemand accumulates requirements for one item across jobs.
type itemDemand struct {
	required float64
	jobs     []string
}

func (d *itemDemand) add(qty float64, jobID string) {
	d.required += qty
	for _, j := range d.jobs {
		if j == jobID {
			return
		}
	}
	d.jobs = append(d.jobs, jobID)
}

// netDemand turns accumulated demand into shortage records. Pure: output
// depends only on the two maps. Records are sorted by shortage descending,
// then SKU, so repeated passes over unchanged data are identical.
func netDemand(demand map[string]*itemDemand, items map[string]entity.InventoryItem) []ShortageRecord {
	records := make([]ShortageRecord, 0, len(demand))
	for itemID, d := range demand {
		rec := ShortageRecord{
			ItemID:        itemID,
			TotalRequired: d.required,
			Jobs:          d.jobs,
		}
		if item, ok := items[itemID]; ok {
			rec.SKU = item.SKU
			rec.Name = item.Name
			rec.ItemType = item.ItemType
			rec.UOM = item.UOM
			rec.OnHand = item.OnHand
			rec.Reserved = item.Reserved
			rec.Inbound = item.Inbound
			rec.Available = item.Available()
		}
		shortage := rec.TotalRequired - rec.Available
		if shortage < 0 {
			shortage = 0
		}
		rec.Shortage = shortage
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Shortage != records[j].Shortage {
			return records[i].Shortage > records[j].Shortage
		}
		return records[i].SKU < records[j].SKU
	})
	return records
}

// ShortageService explodes open jobs against active BOMs and nets the
// result against the ledger. The pass is read-only and recomputed on every
// call; results are advisory until an approval or PO actually moves stock.
type ShortageService struct {
	bomSvc   *BOMService
	invRepo  *repository.InventoryRepository
	jobRepo  *repository.JobRepository
	notifier *notify.Notifier
}

func NewShortageService(bomSvc *BOMService, invRepo *repository.InventoryRepository, jobRepo *repository.JobRepository, notifier *notify.Notifier) *ShortageService {
	return &ShortageService{bomSvc: bomSvc, invRepo: invRepo, jobRepo: jobRepo, notifier: notifier}
}

// ComputeOpen runs a shortage pass over every open job order and raises
// the planner alert when anything is short. Schedule rendering uses Compute
// directly so a read-only view never spams the outbox.
func (s *ShortageService) ComputeOpen(ctx context.Context) (*ShortageReport, error) {
	jobs, err := s.jobRepo.ListOpen()
	if err != nil {
		return nil, err
	}
	report, err := s.Compute(ctx, jobs)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil && (len(report.Raw) > 0 || len(report.Pack) > 0) {
		worst := worstRecord(report)
		s.notifier.ShortageDetected(ctx, len(report.Raw)+len(report.Pack), worst.SKU, worst.Shortage)
	}
	return report, nil
}

// Compute runs a shortage pass over the given jobs. Jobs without an active
// product BOM are reported as skipped, not failed; a missing packaging BOM
// just means the job consumes no PACK components.
func (s *ShortageService) Compute(ctx context.Context, jobs []entity.JobOrder) (*ShortageReport, error) {
	rawDemand := make(map[string]*itemDemand)
	packDemand := make(map[string]*itemDemand)
	var skipped []SkippedJob

	for _, job := range jobs {
		bom, err := s.bomSvc.Resolve(job.ProductID)
		if errors.Is(err, ErrNoActiveBOM) {
			skipped = append(skipped, SkippedJob{JobID: job.ID, JobNumber: job.JobNumber, Reason: "no active BOM for product"})
			continue
		}
		if err != nil {
			return nil, err
		}
		qty := float64(job.Quantity)
		for _, line := range bom.Lines {
			d, ok := rawDemand[line.MaterialItemID]
			if !ok {
				d = &itemDemand{}
				rawDemand[line.MaterialItemID] = d
			}
			d.add(line.QtyPerUnit*qty, job.ID)
		}

		packBOM, err := s.bomSvc.ResolvePackaging(job.PackagingID)
		if errors.Is(err, ErrNoActiveBOM) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, line := range packBOM.Lines {
			d, ok := packDemand[line.PackItemID]
			if !ok {
				d = &itemDemand{}
				packDemand[line.PackItemID] = d
			}
			d.add(line.QtyPerUnit*qty, job.ID)
		}
	}

	ids := make([]string, 0, len(rawDemand)+len(packDemand))
	for id := range rawDemand {
		ids = append(ids, id)
	}
	for id := range packDemand {
		ids = append(ids, id)
	}
	items, err := s.invRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	return &ShortageReport{
		Raw:         onlyShort(netDemand(rawDemand, items)),
		Pack:        onlyShort(netDemand(packDemand, items)),
		SkippedJobs: skipped,
		ComputedAt:  time.Now().UTC(),
	}, nil
}

// onlyShort keeps records with a positive shortage.
func onlyShort(records []ShortageRecord) []ShortageRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.Shortage > 0 {
			out = append(out, rec)
		}
	}
	return out
}

func worstRecord(report *ShortageReport) ShortageRecord {
	worst := ShortageRecord{}
	for _, rec := range report.Raw {
		if rec.Shortage > worst.Shortage {
			worst = rec
		}
	}
	for _, rec := range report.Pack {
		if rec.Shortage > worst.Shortage {
			worst = rec
		}
	}
	return worst
}

// JobMaterialStatus summarizes readiness for one job: the number of
// shortage records it contributes to. Zero means every material it needs
// is coverable right now.
func (r *ShortageReport) JobMaterialStatus() map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.Raw {
		for _, jobID := range rec.Jobs {
			counts[jobID]++
		}
	}
	for _, rec := range r.Pack {
		for _, jobID := range rec.Jobs {
			counts[jobID]++
		}
	}
	return counts
}
