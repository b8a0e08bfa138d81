package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusCredited ReferralStatus = "credited"
)

// Referral links a referred user to their referrer. The reward is credited
// once, when the referred user's first claim is approved.
type Referral struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	ReferrerID   int64          `json:"referrer_id" db:"referrer_id"`
	ReferredID   int64          `json:"referred_id" db:"referred_id"`
	RewardAmount float64        `json:"reward_amount" db:"reward_amount"`
	Status       ReferralStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	CreditedAt   *time.Time     `json:"credited_at,omitempty" db:"credited_at"`
}
