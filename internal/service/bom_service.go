package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/repository"
)

// BOMService resolves and manages recipe versions. At most one version per
// product (or packaging) may be active; the resolver tolerates violations
// of that constraint by tie-breaking on the latest version and logging the
// inconsistency rather than failing reads.
type BOMService struct {
	repo   *repository.BOMRepository
	logger *zap.Logger
}

func NewBOMService(repo *repository.BOMRepository, logger *zap.Logger) *BOMService {
	return &BOMService{repo: repo, logger: logger}
}

// Resolve returns the active BOM for a product.
func (s *BOMService) Resolve(productID string) (*entity.ProductBOM, error) {
	boms, err := s.repo.ActiveProductBOMs(productID)
	if err != nil {
		return nil, err
	}
	if len(boms) == 0 {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNoActiveBOM)
	}
	if len(boms) > 1 {
		s.logger.Warn("multiple active BOM versions, using latest",
			zap.String("product_id", productID),
			zap.Int("active_count", len(boms)),
			zap.Int("chosen_version", boms[0].Version),
		)
	}
	return &boms[0], nil
}

// ResolvePackaging returns the active packaging BOM.
func (s *BOMService) ResolvePackaging(packagingID string) (*entity.PackagingBOM, error) {
	boms, err := s.repo.ActivePackagingBOMs(packagingID)
	if err != nil {
		return nil, err
	}
	if len(boms) == 0 {
		return nil, fmt.Errorf("packaging %s: %w", packagingID, ErrNoActiveBOM)
	}
	if len(boms) > 1 {
		s.logger.Warn("multiple active packaging BOM versions, using latest",
			zap.String("packaging_id", packagingID),
			zap.Int("active_count", len(boms)),
			zap.Int("chosen_version", boms[0].Version),
		)
	}
	return &boms[0], nil
}

type BOMLineRequest struct {
	MaterialItemID string  `json:"material_item_id" binding:"required"`
	QtyPerUnit     float64 `json:"qty_per_unit" binding:"required,gt=0"`
	UOM            string  `json:"uom"`
}

type CreateBOMRequest struct {
	ProductID string           `json:"product_id" binding:"required"`
	Activate  bool             `json:"activate"`
	Notes     string           `json:"notes"`
	Lines     []BOMLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreateProductBOM creates the next version for the product, optionally
// activating it in the same call.
func (s *BOMService) CreateProductBOM(req CreateBOMRequest, userID string) (*entity.ProductBOM, error) {
	version, err := s.repo.NextProductVersion(req.ProductID)
	if err != nil {
		return nil, err
	}
	bom := &entity.ProductBOM{
		ID:        uuid.New().String(),
		ProductID: req.ProductID,
		Version:   version,
		Notes:     req.Notes,
		CreatedBy: userID,
	}
	for _, line := range req.Lines {
		bom.Lines = append(bom.Lines, entity.ProductBOMLine{
			ID:             uuid.New().String(),
			BOMID:          bom.ID,
			MaterialItemID: line.MaterialItemID,
			QtyPerUnit:     line.QtyPerUnit,
		})
	}
	if err := s.repo.CreateProductBOM(bom); err != nil {
		return nil, fmt.Errorf("failed to create BOM: %w", err)
	}
	if req.Activate {
		if err := s.ActivateProductBOM(bom.ID); err != nil {
			return nil, err
		}
		bom.IsActive = true
	}
	return bom, nil
}

// ActivateProductBOM makes the given version the single active one for its
// product. Deactivation of prior versions and activation happen in one
// transaction.
func (s *BOMService) ActivateProductBOM(bomID string) error {
	bom, err := s.repo.GetProductBOM(bomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("BOM %s: %w", bomID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return s.repo.DB().Transaction(func(tx *gorm.DB) error {
		return s.repo.ActivateProductBOM(tx, bom.ProductID, bom.ID)
	})
}

type CreatePackagingBOMRequest struct {
	PackagingID string           `json:"packaging_id" binding:"required"`
	Activate    bool             `json:"activate"`
	Lines       []BOMLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (s *BOMService) CreatePackagingBOM(req CreatePackagingBOMRequest, userID string) (*entity.PackagingBOM, error) {
	version, err := s.repo.NextPackagingVersion(req.PackagingID)
	if err != nil {
		return nil, err
	}
	bom := &entity.PackagingBOM{
		ID:          uuid.New().String(),
		PackagingID: req.PackagingID,
		Version:     version,
		CreatedBy:   userID,
	}
	for _, line := range req.Lines {
		uom := line.UOM
		if uom == "" {
			uom = "EA"
		}
		bom.Lines = append(bom.Lines, entity.PackagingBOMLine{
			ID:         uuid.New().String(),
			BOMID:      bom.ID,
			PackItemID: line.MaterialItemID,
			QtyPerUnit: line.QtyPerUnit,
			UOM:        uom,
		})
	}
	if err := s.repo.CreatePackagingBOM(bom); err != nil {
		return nil, fmt.Errorf("failed to create packaging BOM: %w", err)
	}
	if req.Activate {
		if err := s.ActivatePackagingBOM(bom.ID); err != nil {
			return nil, err
		}
		bom.IsActive = true
	}
	return bom, nil
}

func (s *BOMService) ActivatePackagingBOM(bomID string) error {
	bom, err := s.repo.GetPackagingBOM(bomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("packaging BOM %s: %w", bomID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return s.repo.DB().Transaction(func(tx *gorm.DB) error {
		return s.repo.ActivatePackagingBOM(tx, bom.PackagingID, bom.ID)
	})
}

func (s *BOMService) ListProductBOMs(productID string) ([]entity.ProductBOM, error) {
	return s.repo.ListProductBOMs(productID)
}

func (s *BOMService) ListPackagingBOMs(packagingID string) ([]entity.PackagingBOM, error) {
	return s.repo.ListPackagingBOMs(packagingID)
}
