package model

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is a user's cashback claim against an offer. The engine only cares
// about the pending -> approved transition, which triggers the referral
// reward cascade.
type Claim struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	UserID     int64       `json:"user_id" db:"user_id"`
	OfferID    uuid.UUID   `json:"offer_id" db:"offer_id"`
	Status     ClaimStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
}
