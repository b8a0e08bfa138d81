package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

var ErrClickNotFound = errors.New("click not found")

func (r *Repository) CreateClick(ctx context.Context, click *model.Click) error {
	query := `
		INSERT INTO clicks (click_id, user_id, offer_id, partner_offer_id, ip_address, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		click.ClickID,
		click.UserID,
		click.OfferID,
		click.PartnerOfferID,
		click.IPAddress,
		click.UserAgent,
		click.Referrer,
	).Scan(&click.ID, &click.CreatedAt)
}

func (r *Repository) GetClickByClickID(ctx context.Context, clickID string) (*model.Click, error) {
	var click model.Click
	err := r.db.GetContext(ctx, &click, "SELECT * FROM clicks WHERE click_id = $1", clickID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClickNotFound
		}
		return nil, err
	}
	return &click, nil
}

// GetClickByClickIDFold matches the identifier case-insensitively. Some
// partner networks lowercase or uppercase identifiers before echoing them
// back.
func (r *Repository) GetClickByClickIDFold(ctx context.Context, clickID string) (*model.Click, error) {
	var click model.Click
	err := r.db.GetContext(ctx, &click,
		"SELECT * FROM clicks WHERE LOWER(click_id) = LOWER($1) ORDER BY created_at DESC LIMIT 1", clickID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClickNotFound
		}
		return nil, err
	}
	return &click, nil
}

// FindClickByFragment matches when either side contains the other, which
// covers partners that wrap the identifier in extra tokens or truncate it.
// The newest candidate wins.
func (r *Repository) FindClickByFragment(ctx context.Context, fragment string) (*model.Click, error) {
	var click model.Click
	query := `
		SELECT * FROM clicks
		WHERE POSITION(LOWER($1) IN LOWER(click_id)) > 0
		   OR POSITION(LOWER(click_id) IN LOWER($1)) > 0
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &click, query, fragment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClickNotFound
		}
		return nil, err
	}
	return &click, nil
}

func (r *Repository) GetLatestClickByUserOffer(ctx context.Context, userID int64, offerID uuid.UUID) (*model.Click, error) {
	var click model.Click
	query := `
		SELECT * FROM clicks
		WHERE user_id = $1 AND offer_id = $2
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &click, query, userID, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClickNotFound
		}
		return nil, err
	}
	return &click, nil
}

func (r *Repository) GetClickByConversionID(ctx context.Context, conversionID uuid.UUID) (*model.Click, error) {
	var click model.Click
	err := r.db.GetContext(ctx, &click, "SELECT * FROM clicks WHERE conversion_id = $1", conversionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClickNotFound
		}
		return nil, err
	}
	return &click, nil
}

// MarkClickConverted assigns the conversion fields as a unit. It is an
// assignment, not an increment: applying it twice, with the same values or
// newer ones, cannot corrupt the click.
func (r *Repository) MarkClickConverted(ctx context.Context, clickID string, conversionID uuid.UUID, value float64, at time.Time) error {
	query := `
		UPDATE clicks SET
			converted = TRUE,
			conversion_id = $2,
			conversion_value = $3,
			converted_at = $4
		WHERE click_id = $1`

	res, err := r.db.ExecContext(ctx, query, clickID, conversionID, value, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClickNotFound
	}
	return nil
}

// MarkClickUnconverted is the reversal counterpart of MarkClickConverted.
func (r *Repository) MarkClickUnconverted(ctx context.Context, clickID string) error {
	query := `
		UPDATE clicks SET
			converted = FALSE,
			conversion_id = NULL,
			conversion_value = 0,
			converted_at = NULL
		WHERE click_id = $1`

	res, err := r.db.ExecContext(ctx, query, clickID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClickNotFound
	}
	return nil
}

// GetUnconvertedClicks pages through clicks that never converted, oldest
// first, for the resync job.
func (r *Repository) GetUnconvertedClicks(ctx context.Context, limit, offset int) ([]model.Click, error) {
	var clicks []model.Click
	query := `
		SELECT * FROM clicks
		WHERE converted = FALSE
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &clicks, query, limit, offset)
	return clicks, err
}

func (r *Repository) DeleteClick(ctx context.Context, clickID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM clicks WHERE click_id = $1", clickID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClickNotFound
	}
	return nil
}
