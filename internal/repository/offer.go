package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

var ErrOfferNotFound = errors.New("offer not found")

func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) GetOfferByPartnerOfferID(ctx context.Context, partnerOfferID string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.GetContext(ctx, &offer, "SELECT * FROM offers WHERE partner_offer_id = $1", partnerOfferID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) CreateOffer(ctx context.Context, offer *model.Offer) error {
	query := `
		INSERT INTO offers (title, partner_offer_id, destination_url, payout, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		offer.Title,
		offer.PartnerOfferID,
		offer.DestinationURL,
		offer.Payout,
		offer.Active,
	).Scan(&offer.ID, &offer.CreatedAt)
}
