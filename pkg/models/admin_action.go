package models

import "time"

const (
	ActionAssignDriver   = "assign_driver"
	ActionMarkCompleted  = "mark_job_completed"
	ActionMarkOpen       = "mark_job_open"
	ActionResetJobs      = "reset_jobs"
	ActionSendInvite     = "send_invite"
	ActionInviteAccepted = "invite_accepted"
)

type AdminAction struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	AdminID      *string   `json:"admin_id"`
	AdminEmail   string    `json:"admin_email"`
	JobID        *string   `json:"job_id"`
	AssignmentID *string   `json:"assignment_id"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
}
