package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/repository"
)

// CatalogService owns the master data: products, packagings, the
// product-packaging fill specs and suppliers.
type CatalogService struct {
	repo *repository.CatalogRepository
}

func NewCatalogService(repo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

type CreateProductRequest struct {
	SKU           string  `json:"sku" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type" binding:"required,oneof=MANUFACTURED TRADED"`
	DensityKgPerL float64 `json:"density_kg_per_l"`
}

func (s *CatalogService) CreateProduct(req CreateProductRequest) (*entity.Product, error) {
	p := &entity.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Type:          req.Type,
		DensityKgPerL: req.DensityKgPerL,
		IsActive:      true,
	}
	if err := s.repo.CreateProduct(p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) GetProduct(id string) (*entity.Product, error) {
	p, err := s.repo.GetProduct(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) ListProducts(keyword string, page, size int) ([]entity.Product, int64, error) {
	return s.repo.ListProducts(keyword, page, size)
}

type CreatePackagingRequest struct {
	Name               string  `json:"name" binding:"required"`
	Category           string  `json:"category"`
	MaterialType       string  `json:"material_type"`
	CapacityLiters     float64 `json:"capacity_liters" binding:"required,gt=0"`
	NetWeightKgDefault float64 `json:"net_weight_kg_default"`
}

func (s *CatalogService) CreatePackaging(req CreatePackagingRequest) (*entity.Packaging, error) {
	if req.Category == "" {
		req.Category = entity.PackagingCategoryDrum
	}
	p := &entity.Packaging{
		Name:               req.Name,
		Category:           req.Category,
		MaterialType:       req.MaterialType,
		CapacityLiters:     req.CapacityLiters,
		NetWeightKgDefault: req.NetWeightKgDefault,
		IsActive:           true,
	}
	if err := s.repo.CreatePackaging(p); err != nil {
		return nil, fmt.Errorf("failed to create packaging: %w", err)
	}
	return p, nil
}

func (s *CatalogService) GetPackaging(id string) (*entity.Packaging, error) {
	p, err := s.repo.GetPackaging(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("packaging %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) ListPackagings(page, size int) ([]entity.Packaging, int64, error) {
	return s.repo.ListPackagings(page, size)
}

type UpsertSpecRequest struct {
	ProductID   string  `json:"product_id" binding:"required"`
	PackagingID string  `json:"packaging_id" binding:"required"`
	NetWeightKg float64 `json:"net_weight_kg" binding:"required,gt=0"`
}

// UpsertSpec sets the net fill weight for a product in a packaging. One
// spec per pair; repeated calls overwrite.
func (s *CatalogService) UpsertSpec(req UpsertSpecRequest) (*entity.ProductPackagingSpec, error) {
	if _, err := s.GetProduct(req.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.GetPackaging(req.PackagingID); err != nil {
		return nil, err
	}
	spec := &entity.ProductPackagingSpec{
		ProductID:   req.ProductID,
		PackagingID: req.PackagingID,
		NetWeightKg: req.NetWeightKg,
	}
	if err := s.repo.UpsertSpec(spec); err != nil {
		return nil, fmt.Errorf("failed to upsert spec: %w", err)
	}
	return spec, nil
}

// NetWeightKg resolves the per-drum fill weight for a product/packaging
// pair: pair spec, then the packaging default, then capacity times the
// product density.
func (s *CatalogService) NetWeightKg(productID, packagingID string) (float64, error) {
	spec, err := s.repo.GetSpec(productID, packagingID)
	if err == nil {
		return spec.NetWeightKg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	pkg, err := s.GetPackaging(packagingID)
	if err != nil {
		return 0, err
	}
	if pkg.NetWeightKgDefault > 0 {
		return pkg.NetWeightKgDefault, nil
	}
	product, err := s.GetProduct(productID)
	if err != nil {
		return 0, err
	}
	return pkg.CapacityLiters * product.DensityKgPerL, nil
}

type CreateSupplierRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Currency string `json:"currency"`
}

func (s *CatalogService) CreateSupplier(req CreateSupplierRequest) (*entity.Supplier, error) {
	if req.Currency == "" {
		req.Currency = "USD"
	}
	sup := &entity.Supplier{
		Code:     req.Code,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Currency: req.Currency,
		IsActive: true,
	}
	if err := s.repo.CreateSupplier(sup); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return sup, nil
}

func (s *CatalogService) ListSuppliers(page, size int) ([]entity.Supplier, int64, error) {
	return s.repo.ListSuppliers(page, size)
}
