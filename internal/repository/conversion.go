package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

var (
	ErrConversionNotFound = errors.New("conversion not found")

	// ErrDuplicateConversion means one of the conversion uniqueness indexes
	// rejected the insert: either an approved conversion already exists for
	// the click id, or the (click id, external conversion id) pair was seen
	// before. Callers treat it as the duplicate case, not a failure.
	ErrDuplicateConversion = errors.New("duplicate conversion")
)

// CreateConversion appends a conversion record. The uniqueness rules live in
// the database, so two concurrent postbacks for the same click race at
// commit time and the loser gets ErrDuplicateConversion.
func (r *Repository) CreateConversion(ctx context.Context, conv *model.Conversion) error {
	query := `
		INSERT INTO conversions (click_id, external_conversion_id, user_id, offer_id, payout, approval_status, conversion_type, source, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		conv.ClickID,
		conv.ExternalConversionID,
		conv.UserID,
		conv.OfferID,
		conv.Payout,
		conv.ApprovalStatus,
		conv.ConversionType,
		conv.Source,
		conv.RawPayload,
	).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateConversion
		}
		return err
	}
	return nil
}

func (r *Repository) GetConversion(ctx context.Context, id uuid.UUID) (*model.Conversion, error) {
	var conv model.Conversion
	err := r.db.GetContext(ctx, &conv, "SELECT * FROM conversions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversionNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// GetApprovedConversionByClickID looks up the approved incoming conversion
// for a claimed click id, if any. This is the application-level duplicate
// check; the index behind CreateConversion is the ground truth.
func (r *Repository) GetApprovedConversionByClickID(ctx context.Context, clickID string) (*model.Conversion, error) {
	var conv model.Conversion
	query := `
		SELECT * FROM conversions
		WHERE click_id = $1 AND approval_status = 'approved' AND source = 'incoming'
		LIMIT 1`
	err := r.db.GetContext(ctx, &conv, query, clickID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversionNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *Repository) GetConversionByClickAndExternalID(ctx context.Context, clickID, externalID string) (*model.Conversion, error) {
	var conv model.Conversion
	query := `
		SELECT * FROM conversions
		WHERE click_id = $1 AND external_conversion_id = $2
		LIMIT 1`
	err := r.db.GetContext(ctx, &conv, query, clickID, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversionNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// GetResolvedConversionByClickID returns a prior conversion for the same
// claimed click id that already carries resolved attribution. Used when the
// click record itself was never written but an earlier postback was matched.
func (r *Repository) GetResolvedConversionByClickID(ctx context.Context, clickID string) (*model.Conversion, error) {
	var conv model.Conversion
	query := `
		SELECT * FROM conversions
		WHERE click_id = $1 AND user_id IS NOT NULL AND offer_id IS NOT NULL
		ORDER BY created_at ASC
		LIMIT 1`
	err := r.db.GetContext(ctx, &conv, query, clickID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversionNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// FindApprovedConversionForClick searches approved incoming conversions whose
// claimed click id refers to the given click, using the same relaxed matching
// the resolver applies in the other direction. Used by resync.
//
// A stored id shorter than 8 characters only matches when the click id is
// contained in it, never the reverse: POSITION with a short (or empty) needle
// would hit every click.
func (r *Repository) FindApprovedConversionForClick(ctx context.Context, clickID string) (*model.Conversion, error) {
	var conv model.Conversion
	query := `
		SELECT * FROM conversions
		WHERE approval_status = 'approved' AND source = 'incoming'
		  AND click_id <> ''
		  AND (POSITION(LOWER($1) IN LOWER(click_id)) > 0
		    OR (LENGTH(click_id) >= 8 AND POSITION(LOWER(click_id) IN LOWER($1)) > 0))
		ORDER BY created_at ASC
		LIMIT 1`
	err := r.db.GetContext(ctx, &conv, query, clickID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversionNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// GetUnresolvedConversions lists incoming conversions the matcher could not
// attribute, newest first, for operator review.
func (r *Repository) GetUnresolvedConversions(ctx context.Context, limit, offset int) ([]model.Conversion, error) {
	var convs []model.Conversion
	query := `
		SELECT * FROM conversions
		WHERE source = 'incoming' AND (user_id IS NULL OR offer_id IS NULL)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &convs, query, limit, offset)
	return convs, err
}

func (r *Repository) DeleteConversion(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM conversions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConversionNotFound
	}
	return nil
}
