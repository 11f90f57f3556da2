package models

import "time"

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

type EmailLog struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient"`
	Template   string    `json:"template"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	Error      *string   `json:"error"`
	ProviderID *string   `json:"provider_id"`
	JobID      *string   `json:"job_id"`
	CreatedAt  time.Time `json:"created_at"`
}
