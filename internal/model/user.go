package model

import (
	"time"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Name         *string   `json:"name,omitempty" db:"name"`
	ReferralCode string    `json:"referral_code" db:"referral_code"`
	ReferredBy   *int64    `json:"referred_by,omitempty" db:"referred_by"`
	Balance      float64   `json:"balance" db:"balance"`
	TotalEarned  float64   `json:"total_earned" db:"total_earned"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
