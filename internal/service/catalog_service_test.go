package service

import (
	"testing"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/testutil"
)

func TestNetWeightKgFallbackChain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCatalogService(repository.NewCatalogRepository(db))

	product := testutil.SeedProduct(t, db, "FG-OIL-1", "Hydraulic Oil 46")
	packaging := testutil.SeedPackaging(t, db, "Steel Drum 200L", 200)
	db.Model(&entity.Product{}).Where("id = ?", product.ID).
		Update("density_kg_per_l", 0.9)

	// no spec, no packaging default: capacity x density
	kg, err := svc.NetWeightKg(product.ID, packaging.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kg != 180 {
		t.Fatalf("kg = %v, want 180 (200 L x 0.9)", kg)
	}

	// packaging default beats the density estimate
	db.Model(&entity.Packaging{}).Where("id = ?", packaging.ID).
		Update("net_weight_kg_default", 185)
	kg, err = svc.NetWeightKg(product.ID, packaging.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kg != 185 {
		t.Fatalf("kg = %v, want packaging default 185", kg)
	}

	// the pair spec beats everything
	if _, err := svc.UpsertSpec(UpsertSpecRequest{
		ProductID:   product.ID,
		PackagingID: packaging.ID,
		NetWeightKg: 178,
	}); err != nil {
		t.Fatal(err)
	}
	kg, err = svc.NetWeightKg(product.ID, packaging.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kg != 178 {
		t.Fatalf("kg = %v, want spec weight 178", kg)
	}
}
