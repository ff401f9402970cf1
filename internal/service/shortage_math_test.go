package service

import (
	"testing"

	"github.com/lubeworks/drumplan/internal/entity"
)

func TestNetDemandClampsAtZero(t *testing.T) {
	demand := map[string]*itemDemand{
		"item-1": {required: 100, jobs: []string{"j1"}},
	}
	items := map[string]entity.InventoryItem{
		"item-1": {ID: "item-1", SKU: "RM-1", OnHand: 500, Reserved: 100},
	}

	records := netDemand(demand, items)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Shortage != 0 {
		t.Fatalf("well-stocked item shortage = %v, want 0", records[0].Shortage)
	}
	if records[0].Available != 400 {
		t.Fatalf("available = %v, want 400", records[0].Available)
	}
}

func TestNetDemandComputesShortfall(t *testing.T) {
	demand := map[string]*itemDemand{
		"item-1": {required: 900, jobs: []string{"j1", "j2"}},
	}
	items := map[string]entity.InventoryItem{
		"item-1": {ID: "item-1", SKU: "RM-1", OnHand: 300, Reserved: 100, Inbound: 500},
	}

	records := netDemand(demand, items)

	// inbound is informational; shortage nets against on_hand − reserved only
	if records[0].Shortage != 700 {
		t.Fatalf("shortage = %v, want 700", records[0].Shortage)
	}
	if records[0].Inbound != 500 {
		t.Fatalf("inbound = %v, want 500", records[0].Inbound)
	}
	if len(records[0].Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(records[0].Jobs))
	}
}

func TestNetDemandAggregatesAcrossJobs(t *testing.T) {
	d := &itemDemand{}
	d.add(100, "j1")
	d.add(250, "j2")
	d.add(50, "j1") // second BOM line of the same job

	if d.required != 400 {
		t.Fatalf("required = %v, want 400", d.required)
	}
	if len(d.jobs) != 2 {
		t.Fatalf("jobs deduped = %d, want 2", len(d.jobs))
	}
}

func TestNetDemandSortsByShortageThenSKU(t *testing.T) {
	demand := map[string]*itemDemand{
		"a": {required: 100},
		"b": {required: 300},
		"c": {required: 300},
	}
	items := map[string]entity.InventoryItem{
		"a": {ID: "a", SKU: "RM-A"},
		"b": {ID: "b", SKU: "RM-B"},
		"c": {ID: "c", SKU: "RM-C"},
	}

	records := netDemand(demand, items)

	if records[0].SKU != "RM-B" || records[1].SKU != "RM-C" || records[2].SKU != "RM-A" {
		t.Fatalf("unexpected order: %s, %s, %s", records[0].SKU, records[1].SKU, records[2].SKU)
	}
}

func TestNetDemandUnknownItemIsFullyShort(t *testing.T) {
	demand := map[string]*itemDemand{
		"ghost": {required: 42, jobs: []string{"j1"}},
	}

	records := netDemand(demand, map[string]entity.InventoryItem{})

	if records[0].Shortage != 42 {
		t.Fatalf("unknown item shortage = %v, want full requirement 42", records[0].Shortage)
	}
}
