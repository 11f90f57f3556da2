package models

import "time"

const (
	DriverStatusPending  = "pending"
	DriverStatusApproved = "approved"
	DriverStatusRejected = "rejected"
	DriverStatusInactive = "inactive"
)

type DriverProfile struct {
	ID             string    `json:"id"`
	UserID         *string   `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	LicenseClasses []string  `json:"license_classes"`
	Qualifications []string  `json:"qualifications"`
	City           string    `json:"city"`
	TelegramChatID *int64    `json:"telegram_chat_id"`
	Status         string    `json:"status"` // pending, approved, rejected, inactive
	CreatedAt      time.Time `json:"created_at"`
}

func (d *DriverProfile) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}
