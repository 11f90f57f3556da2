package models

const RoleAdmin = "admin"

// Identity is a caller whose bearer credential has been verified.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type UserRole struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
