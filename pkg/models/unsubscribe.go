package models

import "time"

type UnsubscribeToken struct {
	Token     string     `json:"-"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at"`
}
