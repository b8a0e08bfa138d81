package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cashloop/backend/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser upserts the user. Re-registration refreshes the profile fields
// only; the original referral code and referrer linkage survive, and the
// RETURNING clause reflects them back into the struct.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, name, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			updated_at = NOW()
		RETURNING referral_code, referred_by, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.ReferralCode,
		user.ReferredBy,
	).Scan(&user.ReferralCode, &user.ReferredBy, &user.CreatedAt, &user.UpdatedAt)
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
