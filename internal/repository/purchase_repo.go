package repository

import (
	"github.com/lubeworks/drumplan/internal/entity"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(tx *gorm.DB, po *entity.PurchaseOrder) error {
	return tx.Create(po).Error
}

func (r *PurchaseRepository) GetByID(id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.Preload("Lines").Where("id = ?", id).First(&po).Error
	return &po, err
}

func (r *PurchaseRepository) Update(po *entity.PurchaseOrder) error {
	return r.db.Save(po).Error
}

func (r *PurchaseRepository) UpdateLine(tx *gorm.DB, line *entity.POLine) error {
	return tx.Save(line).Error
}

type POListParams struct {
	Status     string
	SupplierID string
	Page       int
	Size       int
}

func (r *PurchaseRepository) List(params POListParams) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.Model(&entity.PurchaseOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var pos []entity.PurchaseOrder
	err := query.Preload("Lines").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&pos).Error
	return pos, total, err
}

func (r *PurchaseRepository) CreateApprovalTask(tx *gorm.DB, task *entity.ApprovalTask) error {
	return tx.Create(task).Error
}

func (r *PurchaseRepository) GetApprovalTaskByPO(poID string) (*entity.ApprovalTask, error) {
	var task entity.ApprovalTask
	err := r.db.Where("po_id = ?", poID).Order("created_at DESC").First(&task).Error
	return &task, err
}

func (r *PurchaseRepository) UpdateApprovalTask(task *entity.ApprovalTask) error {
	return r.db.Save(task).Error
}

// DB exposes the underlying handle for transactions.
func (r *PurchaseRepository) DB() *gorm.DB {
	return r.db
}
