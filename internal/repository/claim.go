package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

var ErrClaimNotFound = errors.New("claim not found")

func (r *Repository) CreateClaim(ctx context.Context, claim *model.Claim) error {
	query := `
		INSERT INTO claims (user_id, offer_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		claim.UserID,
		claim.OfferID,
		claim.Status,
	).Scan(&claim.ID, &claim.CreatedAt)
}

func (r *Repository) GetClaim(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	var claim model.Claim
	err := r.db.GetContext(ctx, &claim, "SELECT * FROM claims WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// ResolveClaim moves a pending claim to its terminal status. Reports whether
// the row actually transitioned, so an already-resolved claim does not fire
// side effects twice.
func (r *Repository) ResolveClaim(ctx context.Context, id uuid.UUID, status model.ClaimStatus) (bool, error) {
	query := `
		UPDATE claims SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
