package repository

import (
	"time"

	"github.com/lubeworks/drumplan/internal/entity"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *entity.JobOrder) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id string) (*entity.JobOrder, error) {
	var job entity.JobOrder
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&job).Error
	return &job, err
}

func (r *JobRepository) Update(job *entity.JobOrder) error {
	return r.db.Save(job).Error
}

type JobListParams struct {
	Status    string
	ProductID string
	Keyword   string
	Page      int
	Size      int
}

func (r *JobRepository) List(params JobListParams) ([]entity.JobOrder, int64, error) {
	query := r.db.Model(&entity.JobOrder{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("job_number ILIKE ? OR product_name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var jobs []entity.JobOrder
	err := query.Order("delivery_date").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&jobs).Error
	return jobs, total, err
}

// ListOpen returns every job still competing for materials and capacity,
// earliest delivery first. This is the demand set for shortage computation.
func (r *JobRepository) ListOpen() ([]entity.JobOrder, error) {
	var jobs []entity.JobOrder
	err := r.db.Where("status <> ? AND deleted_at IS NULL", entity.JobStatusReadyForDispatch).
		Order("delivery_date").Find(&jobs).Error
	return jobs, err
}

// SumDrumsOnDay totals drums for jobs placed on the given day whose status
// is in the given set. Used for the approved-day capacity invariant.
func (r *JobRepository) SumDrumsOnDay(tx *gorm.DB, day time.Time, statuses []string) (int, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var result struct{ Total int }
	err := tx.Raw(`
		SELECT COALESCE(SUM(quantity), 0) AS total
		FROM plan_job_orders
		WHERE deleted_at IS NULL
		  AND status IN ?
		  AND COALESCE(scheduled_date, delivery_date) >= ?
		  AND COALESCE(scheduled_date, delivery_date) < ?
	`, statuses, dayStart, dayEnd).Scan(&result).Error
	return result.Total, err
}

// DB exposes the underlying handle for transactions.
func (r *JobRepository) DB() *gorm.DB {
	return r.db
}
