package service

import (
	"testing"
	"time"

	"github.com/lubeworks/drumplan/internal/entity"
)

func day(offset int) time.Time {
	return time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestBuildScheduleDirectPlacement(t *testing.T) {
	start := day(0)
	jobs := []entity.JobOrder{
		{ID: "j1", JobNumber: "JO-1", Quantity: 200, DeliveryDate: day(0), Status: entity.JobStatusPending},
		{ID: "j2", JobNumber: "JO-2", Quantity: 300, DeliveryDate: day(0), Status: entity.JobStatusApproved},
		{ID: "j3", JobNumber: "JO-3", Quantity: 150, DeliveryDate: day(2), Status: entity.JobStatusPending},
	}

	view := buildSchedule(start, 7, jobs, 600, nil, nil)

	if len(view.Schedule) != 7 {
		t.Fatalf("expected 7 days, got %d", len(view.Schedule))
	}
	d0 := view.Schedule[0]
	if d0.DrumsScheduled != 500 {
		t.Fatalf("day 0 drums = %d, want 500", d0.DrumsScheduled)
	}
	if d0.DrumsRemaining != 100 {
		t.Fatalf("day 0 remaining = %d, want 100", d0.DrumsRemaining)
	}
	if len(d0.Jobs) != 2 {
		t.Fatalf("day 0 jobs = %d, want 2", len(d0.Jobs))
	}
	if d0.IsFull {
		t.Fatal("day 0 at 83%% must not read full")
	}
	if view.Schedule[2].DrumsScheduled != 150 {
		t.Fatalf("day 2 drums = %d, want 150", view.Schedule[2].DrumsScheduled)
	}
	if view.Schedule[1].DrumsScheduled != 0 {
		t.Fatalf("empty day 1 drums = %d, want 0", view.Schedule[1].DrumsScheduled)
	}
	if view.Summary.TotalDrumsScheduled != 650 {
		t.Fatalf("total drums = %d, want 650", view.Summary.TotalDrumsScheduled)
	}
	if view.Summary.JobsScheduled != 3 {
		t.Fatalf("jobs scheduled = %d, want 3", view.Summary.JobsScheduled)
	}
}

func TestBuildScheduleOverflowClampsRemaining(t *testing.T) {
	jobs := []entity.JobOrder{
		{ID: "j1", Quantity: 400, DeliveryDate: day(0), Status: entity.JobStatusPending},
		{ID: "j2", Quantity: 350, DeliveryDate: day(0), Status: entity.JobStatusPending},
	}

	view := buildSchedule(day(0), 1, jobs, 600, nil, nil)

	d := view.Schedule[0]
	if d.DrumsScheduled != 750 {
		t.Fatalf("drums = %d, want 750", d.DrumsScheduled)
	}
	// scheduled may exceed capacity, remaining never goes negative
	if d.DrumsRemaining != 0 {
		t.Fatalf("remaining = %d, want 0", d.DrumsRemaining)
	}
	if !d.IsFull {
		t.Fatal("overloaded day must read full")
	}
	if d.Utilization != 125 {
		t.Fatalf("utilization = %v, want 125", d.Utilization)
	}
	if view.Summary.DaysWithCapacity != 0 {
		t.Fatalf("days with capacity = %d, want 0", view.Summary.DaysWithCapacity)
	}
}

func TestBuildScheduleScheduledDateWinsOverDelivery(t *testing.T) {
	moved := day(3)
	jobs := []entity.JobOrder{
		{ID: "j1", Quantity: 100, DeliveryDate: day(0), ScheduledDate: &moved, Status: entity.JobStatusPending},
	}

	view := buildSchedule(day(0), 7, jobs, 600, nil, nil)

	if view.Schedule[0].DrumsScheduled != 0 {
		t.Fatal("job must not appear on delivery date once rescheduled")
	}
	if view.Schedule[3].DrumsScheduled != 100 {
		t.Fatalf("day 3 drums = %d, want 100", view.Schedule[3].DrumsScheduled)
	}
}

func TestBuildScheduleJobsOutsideWindowCountUnscheduled(t *testing.T) {
	jobs := []entity.JobOrder{
		{ID: "past", Quantity: 50, DeliveryDate: day(-1), Status: entity.JobStatusPending},
		{ID: "beyond", Quantity: 60, DeliveryDate: day(10), Status: entity.JobStatusPending},
		{ID: "inside", Quantity: 70, DeliveryDate: day(1), Status: entity.JobStatusPending},
	}

	view := buildSchedule(day(0), 7, jobs, 600, nil, nil)

	if view.Summary.UnscheduledJobs != 2 {
		t.Fatalf("unscheduled = %d, want 2", view.Summary.UnscheduledJobs)
	}
	if view.Summary.JobsScheduled != 1 {
		t.Fatalf("scheduled = %d, want 1", view.Summary.JobsScheduled)
	}
}

func TestBuildScheduleMaterialReadiness(t *testing.T) {
	jobs := []entity.JobOrder{
		{ID: "ready", Quantity: 100, DeliveryDate: day(0), Status: entity.JobStatusPending},
		{ID: "short", Quantity: 100, DeliveryDate: day(0), Status: entity.JobStatusPending},
	}
	shortages := map[string]int{"short": 2}

	view := buildSchedule(day(0), 1, jobs, 600, shortages, nil)

	for _, j := range view.Schedule[0].Jobs {
		switch j.JobID {
		case "ready":
			if !j.MaterialReady || j.ShortageItems != 0 {
				t.Fatalf("job %s should be material ready", j.JobID)
			}
		case "short":
			if j.MaterialReady || j.ShortageItems != 2 {
				t.Fatalf("job %s should report 2 shortage items", j.JobID)
			}
		}
	}
}

func TestBuildScheduleKgTotals(t *testing.T) {
	jobs := []entity.JobOrder{
		{ID: "j1", Quantity: 10, DeliveryDate: day(0), Status: entity.JobStatusPending},
		{ID: "j2", Quantity: 20, DeliveryDate: day(0), Status: entity.JobStatusPending},
		{ID: "noweight", Quantity: 5, DeliveryDate: day(1), Status: entity.JobStatusPending},
	}
	netKg := map[string]float64{"j1": 1800, "j2": 3700}

	view := buildSchedule(day(0), 2, jobs, 600, nil, netKg)

	if view.Schedule[0].KgScheduled != 5500 {
		t.Fatalf("day 0 kg = %v, want 5500", view.Schedule[0].KgScheduled)
	}
	if view.Schedule[1].KgScheduled != 0 {
		t.Fatalf("unresolved weight must render as zero kg, got %v", view.Schedule[1].KgScheduled)
	}
	if view.Summary.TotalKgScheduled != 5500 {
		t.Fatalf("total kg = %v, want 5500", view.Summary.TotalKgScheduled)
	}
	for _, j := range view.Schedule[0].Jobs {
		if j.JobID == "j1" && j.NetKg != 1800 {
			t.Fatalf("j1 net kg = %v, want 1800", j.NetKg)
		}
	}
}

func TestBuildScheduleDeterministic(t *testing.T) {
	jobs := []entity.JobOrder{
		{ID: "j1", Quantity: 100, DeliveryDate: day(0), Status: entity.JobStatusPending},
		{ID: "j2", Quantity: 200, DeliveryDate: day(4), Status: entity.JobStatusApproved},
	}

	a := buildSchedule(day(0), 7, jobs, 600, nil, nil)
	b := buildSchedule(day(0), 7, jobs, 600, nil, nil)

	if a.Summary != b.Summary {
		t.Fatal("identical inputs must produce identical summaries")
	}
	for i := range a.Schedule {
		if a.Schedule[i].Date != b.Schedule[i].Date || a.Schedule[i].DrumsScheduled != b.Schedule[i].DrumsScheduled {
			t.Fatalf("day %d differs between runs", i)
		}
	}
}
