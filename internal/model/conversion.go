package model

import (
	"time"

	"github.com/google/uuid"
)

type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

type ConversionSource string

const (
	// ConversionSourceIncoming marks postbacks received from the partner network.
	ConversionSourceIncoming ConversionSource = "incoming"
	// ConversionSourceOutgoing marks postbacks we sent onward ourselves.
	ConversionSourceOutgoing ConversionSource = "outgoing"
)

// Conversion is the append-only record of one received postback. It doubles
// as the idempotency ledger: the partial unique index on (click_id) for
// approved incoming rows is what makes payouts exactly-once.
//
// ClickID holds the matched click's canonical identifier when attribution
// found one, otherwise the identifier as claimed by the partner; the raw
// claim survives in RawPayload. UserID/OfferID are filled in by the matcher
// and stay null when attribution failed.
type Conversion struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	ClickID              string           `json:"click_id" db:"click_id"`
	ExternalConversionID *string          `json:"external_conversion_id,omitempty" db:"external_conversion_id"`
	UserID               *int64           `json:"user_id,omitempty" db:"user_id"`
	OfferID              *uuid.UUID       `json:"offer_id,omitempty" db:"offer_id"`
	Payout               float64          `json:"payout" db:"payout"`
	ApprovalStatus       ApprovalStatus   `json:"approval_status" db:"approval_status"`
	ConversionType       *string          `json:"conversion_type,omitempty" db:"conversion_type"`
	Source               ConversionSource `json:"source" db:"source"`
	RawPayload           string           `json:"raw_payload" db:"raw_payload"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
}

func (c *Conversion) Approved() bool {
	return c.ApprovalStatus == ApprovalStatusApproved
}
