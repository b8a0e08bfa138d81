package model

import (
	"time"

	"github.com/google/uuid"
)

// Offer is the minimal catalog entry the tracking engine needs: a
// destination to redirect to and the partner network's id for the offer.
// Full catalog management lives elsewhere.
type Offer struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	PartnerOfferID *string   `json:"partner_offer_id,omitempty" db:"partner_offer_id"`
	DestinationURL string    `json:"destination_url" db:"destination_url"`
	Payout         float64   `json:"payout" db:"payout"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
