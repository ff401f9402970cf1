package entity

import (
	"time"
)

// JobOrder status values. A job normally walks the chain left to right;
// rescheduling routes any non-terminal job back to pending so it is
// re-approved for the new slot. "rescheduled" is transient only — it never
// rests in the database.
const (
	JobStatusPending             = "pending"
	JobStatusApproved            = "approved"
	JobStatusInProduction        = "in_production"
	JobStatusProductionCompleted = "production_completed"
	JobStatusReadyForDispatch    = "ready_for_dispatch"
	JobStatusRescheduled         = "rescheduled"
)

// Shifts a day is split into for scheduling.
const (
	ShiftDay   = "DAY"
	ShiftNight = "NIGHT"
)

// jobTransitions is the closed transition table. Anything not listed is
// rejected; there is no coercion of unknown statuses.
var jobTransitions = map[string][]string{
	JobStatusPending:             {JobStatusApproved, JobStatusRescheduled},
	JobStatusApproved:            {JobStatusInProduction, JobStatusRescheduled},
	JobStatusInProduction:        {JobStatusProductionCompleted, JobStatusRescheduled},
	JobStatusProductionCompleted: {JobStatusReadyForDispatch, JobStatusRescheduled},
	JobStatusReadyForDispatch:    {}, // terminal
	JobStatusRescheduled:         {JobStatusPending},
}

// CanTransition reports whether from → to is a legal job status change.
func CanTransition(from, to string) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// JobStatuses returns every valid resting or transient status.
func JobStatuses() []string {
	return []string{
		JobStatusPending,
		JobStatusApproved,
		JobStatusInProduction,
		JobStatusProductionCompleted,
		JobStatusReadyForDispatch,
		JobStatusRescheduled,
	}
}

// JobOrder is a confirmed order to fill Quantity drums of a product.
// ScheduledDate is the planner's placement; when unset the delivery date
// stands in for it.
type JobOrder struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	JobNumber      string     `json:"job_number" gorm:"size:50;not null;uniqueIndex"`
	ProductID      string     `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName    string     `json:"product_name" gorm:"size:128"`
	PackagingID    string     `json:"packaging_id" gorm:"type:uuid;not null"`
	PackagingName  string     `json:"packaging_name" gorm:"size:128"`
	Quantity       int        `json:"quantity" gorm:"not null"` // drums
	DeliveryDate   time.Time  `json:"delivery_date" gorm:"not null"`
	ScheduledDate  *time.Time `json:"scheduled_date" gorm:"index"`
	ScheduledShift string     `json:"scheduled_shift" gorm:"size:10;default:DAY"`
	Status         string     `json:"status" gorm:"size:30;not null;default:pending;index"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedBy      string     `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`
}

func (JobOrder) TableName() string {
	return "plan_job_orders"
}

// PlannedDate returns the date the scheduler places the job on.
func (j *JobOrder) PlannedDate() time.Time {
	if j.ScheduledDate != nil {
		return *j.ScheduledDate
	}
	return j.DeliveryDate
}

// Open reports whether the job still competes for materials and capacity.
func (j *JobOrder) Open() bool {
	return j.Status != JobStatusReadyForDispatch
}
