package repository

import (
	"github.com/lubeworks/drumplan/internal/entity"
	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Create(item *entity.InventoryItem) error {
	return r.db.Create(item).Error
}

func (r *InventoryRepository) GetByID(id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&item).Error
	return &item, err
}

func (r *InventoryRepository) GetBySKU(sku string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.Where("sku = ? AND deleted_at IS NULL", sku).First(&item).Error
	return &item, err
}

// GetForUpdate reads an item inside a transaction. Callers pair it with
// ApplyBalances so the version check covers the whole read-modify-write.
func (r *InventoryRepository) GetForUpdate(tx *gorm.DB, id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&item).Error
	return &item, err
}

// ApplyBalances writes new balances only if the row still carries the
// version the caller read. Returns false when another writer got there
// first; the caller must retry the whole operation.
func (r *InventoryRepository) ApplyBalances(tx *gorm.DB, item *entity.InventoryItem) (bool, error) {
	res := tx.Model(&entity.InventoryItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"on_hand":  item.OnHand,
			"reserved": item.Reserved,
			"inbound":  item.Inbound,
			"version":  item.Version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *InventoryRepository) CreateMovement(tx *gorm.DB, m *entity.StockMovement) error {
	return tx.Create(m).Error
}

type ItemListParams struct {
	ItemType  string
	Keyword   string
	ShortOnly bool
	Page      int
	Size      int
}

func (r *InventoryRepository) List(params ItemListParams) ([]entity.InventoryItem, int64, error) {
	query := r.db.Model(&entity.InventoryItem{}).Where("deleted_at IS NULL")
	if params.ItemType != "" {
		query = query.Where("item_type = ?", params.ItemType)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", kw, kw)
	}
	if params.ShortOnly {
		query = query.Where("on_hand - reserved <= 0")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.InventoryItem
	err := query.Order("sku").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// GetByIDs loads a batch of items keyed by id, for shortage netting.
func (r *InventoryRepository) GetByIDs(ids []string) (map[string]entity.InventoryItem, error) {
	var items []entity.InventoryItem
	if len(ids) == 0 {
		return map[string]entity.InventoryItem{}, nil
	}
	if err := r.db.Where("id IN ? AND deleted_at IS NULL", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[string]entity.InventoryItem, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (r *InventoryRepository) ListMovements(itemID string, page, size int) ([]entity.StockMovement, int64, error) {
	query := r.db.Model(&entity.StockMovement{})
	if itemID != "" {
		query = query.Where("item_id = ?", itemID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var moves []entity.StockMovement
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&moves).Error
	return moves, total, err
}

func (r *InventoryRepository) CreateJobReservation(tx *gorm.DB, res *entity.JobReservation) error {
	return tx.Create(res).Error
}

func (r *InventoryRepository) ListJobReservations(jobID string) ([]entity.JobReservation, error) {
	var rows []entity.JobReservation
	err := r.db.Where("job_order_id = ?", jobID).Find(&rows).Error
	return rows, err
}

func (r *InventoryRepository) DeleteJobReservations(tx *gorm.DB, jobID string) error {
	return tx.Where("job_order_id = ?", jobID).Delete(&entity.JobReservation{}).Error
}

// DB exposes the underlying handle for transactions.
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}
