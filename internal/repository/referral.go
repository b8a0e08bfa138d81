package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

var ErrReferralNotFound = errors.New("referral not found")

func (r *Repository) CreateReferral(ctx context.Context, referral *model.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referred_id, reward_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		referral.ReferrerID,
		referral.ReferredID,
		referral.RewardAmount,
		referral.Status,
	).Scan(&referral.ID, &referral.CreatedAt)
}

func (r *Repository) GetReferralByReferredID(ctx context.Context, referredID int64) (*model.Referral, error) {
	var referral model.Referral
	err := r.db.GetContext(ctx, &referral, "SELECT * FROM referrals WHERE referred_id = $1", referredID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, err
	}
	return &referral, nil
}

// CreditReferral flips a pending referral to credited. The WHERE clause on
// status makes the transition single-shot under concurrent approvals.
func (r *Repository) CreditReferral(ctx context.Context, id uuid.UUID, rewardAmount float64) (bool, error) {
	query := `
		UPDATE referrals SET status = 'credited', reward_amount = $2, credited_at = $3
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, rewardAmount, time.Now())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
