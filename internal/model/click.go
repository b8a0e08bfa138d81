package model

import (
	"time"

	"github.com/google/uuid"
)

// Click records one outbound redirect toward a partner offer. It is created
// exactly once at redirect time; the conversion fields are assigned together
// by the reconciliation engine and cleared only by an explicit reversal.
type Click struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ClickID         string     `json:"click_id" db:"click_id"`
	UserID          int64      `json:"user_id" db:"user_id"`
	OfferID         uuid.UUID  `json:"offer_id" db:"offer_id"`
	PartnerOfferID  *string    `json:"partner_offer_id,omitempty" db:"partner_offer_id"`
	IPAddress       *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent       *string    `json:"user_agent,omitempty" db:"user_agent"`
	Referrer        *string    `json:"referrer,omitempty" db:"referrer"`
	Converted       bool       `json:"converted" db:"converted"`
	ConversionID    *uuid.UUID `json:"conversion_id,omitempty" db:"conversion_id"`
	ConversionValue float64    `json:"conversion_value" db:"conversion_value"`
	ConvertedAt     *time.Time `json:"converted_at,omitempty" db:"converted_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}
