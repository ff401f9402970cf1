package repository

import (
	"github.com/lubeworks/drumplan/internal/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

func (r *BOMRepository) CreateProductBOM(bom *entity.ProductBOM) error {
	return r.db.Create(bom).Error
}

func (r *BOMRepository) GetProductBOM(id string) (*entity.ProductBOM, error) {
	var bom entity.ProductBOM
	err := r.db.Preload("Lines").Where("id = ?", id).First(&bom).Error
	return &bom, err
}

// ActiveProductBOMs returns every BOM flagged active for the product,
// newest version first. More than one row means the data is inconsistent;
// the resolver tie-breaks and logs it.
func (r *BOMRepository) ActiveProductBOMs(productID string) ([]entity.ProductBOM, error) {
	var boms []entity.ProductBOM
	err := r.db.Preload("Lines").
		Where("product_id = ? AND is_active = true", productID).
		Order("version DESC").Find(&boms).Error
	return boms, err
}

func (r *BOMRepository) ListProductBOMs(productID string) ([]entity.ProductBOM, error) {
	var boms []entity.ProductBOM
	query := r.db.Preload("Lines")
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	err := query.Order("created_at DESC").Find(&boms).Error
	return boms, err
}

// NextProductVersion returns max(version)+1 for the product.
func (r *BOMRepository) NextProductVersion(productID string) (int, error) {
	var result struct{ Max int }
	err := r.db.Raw(`
		SELECT COALESCE(MAX(version), 0) AS max
		FROM plan_product_boms
		WHERE product_id = ?
	`, productID).Scan(&result).Error
	return result.Max + 1, err
}

// ActivateProductBOM flips the active flag to the given version in one
// transaction: every other version of the same product is deactivated first.
func (r *BOMRepository) ActivateProductBOM(tx *gorm.DB, productID, bomID string) error {
	if err := tx.Model(&entity.ProductBOM{}).
		Where("product_id = ? AND id <> ?", productID, bomID).
		Update("is_active", false).Error; err != nil {
		return err
	}
	return tx.Model(&entity.ProductBOM{}).
		Where("id = ?", bomID).
		Update("is_active", true).Error
}

func (r *BOMRepository) CreatePackagingBOM(bom *entity.PackagingBOM) error {
	return r.db.Create(bom).Error
}

func (r *BOMRepository) GetPackagingBOM(id string) (*entity.PackagingBOM, error) {
	var bom entity.PackagingBOM
	err := r.db.Preload("Lines").Where("id = ?", id).First(&bom).Error
	return &bom, err
}

func (r *BOMRepository) ActivePackagingBOMs(packagingID string) ([]entity.PackagingBOM, error) {
	var boms []entity.PackagingBOM
	err := r.db.Preload("Lines").
		Where("packaging_id = ? AND is_active = true", packagingID).
		Order("version DESC").Find(&boms).Error
	return boms, err
}

func (r *BOMRepository) ListPackagingBOMs(packagingID string) ([]entity.PackagingBOM, error) {
	var boms []entity.PackagingBOM
	query := r.db.Preload("Lines")
	if packagingID != "" {
		query = query.Where("packaging_id = ?", packagingID)
	}
	err := query.Order("created_at DESC").Find(&boms).Error
	return boms, err
}

func (r *BOMRepository) NextPackagingVersion(packagingID string) (int, error) {
	var result struct{ Max int }
	err := r.db.Raw(`
		SELECT COALESCE(MAX(version), 0) AS max
		FROM plan_packaging_boms
		WHERE packaging_id = ?
	`, packagingID).Scan(&result).Error
	return result.Max + 1, err
}

func (r *BOMRepository) ActivatePackagingBOM(tx *gorm.DB, packagingID, bomID string) error {
	if err := tx.Model(&entity.PackagingBOM{}).
		Where("packaging_id = ? AND id <> ?", packagingID, bomID).
		Update("is_active", false).Error; err != nil {
		return err
	}
	return tx.Model(&entity.PackagingBOM{}).
		Where("id = ?", bomID).
		Update("is_active", true).Error
}

// DB exposes the underlying handle for transactions.
func (r *BOMRepository) DB() *gorm.DB {
	return r.db
}
