package models

import "time"

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

type AssignmentInvite struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	DriverID       string     `json:"driver_id"`
	Token          string     `json:"-"`
	TokenExpiresAt time.Time  `json:"token_expires_at"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	RespondedAt    *time.Time `json:"responded_at"`
	UserAgent      *string    `json:"user_agent"`
	IP             *string    `json:"ip"`
}

func (i *AssignmentInvite) Pending() bool {
	return i.Status == InviteStatusPending
}
