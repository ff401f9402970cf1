package repository

import (
	"github.com/lubeworks/drumplan/internal/entity"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateProduct(p *entity.Product) error {
	return r.db.Create(p).Error
}

func (r *CatalogRepository) GetProduct(id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	return &p, err
}

func (r *CatalogRepository) ListProducts(keyword string, page, size int) ([]entity.Product, int64, error) {
	query := r.db.Model(&entity.Product{}).Where("deleted_at IS NULL")
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var items []entity.Product
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error
	return items, total, err
}

func (r *CatalogRepository) CreatePackaging(p *entity.Packaging) error {
	return r.db.Create(p).Error
}

func (r *CatalogRepository) GetPackaging(id string) (*entity.Packaging, error) {
	var p entity.Packaging
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	return &p, err
}

func (r *CatalogRepository) ListPackagings(page, size int) ([]entity.Packaging, int64, error) {
	query := r.db.Model(&entity.Packaging{}).Where("deleted_at IS NULL")
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var items []entity.Packaging
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&items).Error
	return items, total, err
}

// GetSpec returns the product/packaging conversion spec, if configured.
func (r *CatalogRepository) GetSpec(productID, packagingID string) (*entity.ProductPackagingSpec, error) {
	var spec entity.ProductPackagingSpec
	err := r.db.Where("product_id = ? AND packaging_id = ?", productID, packagingID).First(&spec).Error
	return &spec, err
}

func (r *CatalogRepository) UpsertSpec(spec *entity.ProductPackagingSpec) error {
	var existing entity.ProductPackagingSpec
	err := r.db.Where("product_id = ? AND packaging_id = ?", spec.ProductID, spec.PackagingID).First(&existing).Error
	if err == nil {
		existing.NetWeightKg = spec.NetWeightKg
		existing.IsDefault = spec.IsDefault
		return r.db.Save(&existing).Error
	}
	return r.db.Create(spec).Error
}

func (r *CatalogRepository) CreateSupplier(s *entity.Supplier) error {
	return r.db.Create(s).Error
}

func (r *CatalogRepository) GetSupplier(id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&s).Error
	return &s, err
}

func (r *CatalogRepository) ListSuppliers(page, size int) ([]entity.Supplier, int64, error) {
	query := r.db.Model(&entity.Supplier{}).Where("deleted_at IS NULL")
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var items []entity.Supplier
	err := query.Order("name").Offset((page - 1) * size).Limit(size).Find(&items).Error
	return items, total, err
}
