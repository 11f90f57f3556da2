package models

import "time"

const (
	AssignmentStatusAssigned  = "assigned"
	AssignmentStatusConfirmed = "confirmed"
	AssignmentStatusCancelled = "cancelled"
)

const (
	RateTypeHourly = "hourly"
	RateTypeDaily  = "daily"
	RateTypeFlat   = "flat"
)

type JobAssignment struct {
	ID         string     `json:"id"`
	JobID      string     `json:"job_id"`
	DriverID   string     `json:"driver_id"`
	Status     string     `json:"status"`
	RateType   string     `json:"rate_type"`
	RateValue  float64    `json:"rate_value"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Note       string     `json:"note"`
	AssignedBy *string    `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
}

// Active assignments occupy the job; at most one may exist per job.
func (a *JobAssignment) Active() bool {
	return a.Status == AssignmentStatusAssigned || a.Status == AssignmentStatusConfirmed
}
