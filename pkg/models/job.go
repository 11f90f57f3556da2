package models

import "time"

const (
	JobStatusOpen      = "open"
	JobStatusAssigned  = "assigned"
	JobStatusCompleted = "completed"
)

type JobRequest struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone"`
	Company       string     `json:"company"`
	Einsatzort    string     `json:"einsatzort"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	TimeWindow    string     `json:"time_window"`
	VehicleType   string     `json:"vehicle_type"`
	LicenseClass  string     `json:"license_class"`
	Notes         string     `json:"notes"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}
