package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
)

// UserService handles account intake. User ids come from the outer platform;
// this service assigns the referral code and links the referrer.
type UserService struct {
	store Store
}

func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

// Register upserts the user and, on a supplied referral code, records the
// pending referral that claim approval later pays out. An unknown code is
// logged and dropped rather than failing the registration.
func (s *UserService) Register(ctx context.Context, id int64, email, name, referralCode string) (*model.User, error) {
	user := &model.User{
		ID:           id,
		ReferralCode: uuid.NewString(),
	}
	if email != "" {
		user.Email = &email
	}
	if name != "" {
		user.Name = &name
	}

	var referrer *model.User
	if referralCode != "" {
		found, err := s.store.GetUserByReferralCode(ctx, referralCode)
		switch {
		case err == nil && found.ID != id:
			referrer = found
			user.ReferredBy = &referrer.ID
		case err == nil:
			zap.L().Warn("self-referral ignored", zap.Int64("user_id", id))
		case errors.Is(err, repository.ErrUserNotFound):
			zap.L().Warn("unknown referral code ignored",
				zap.Int64("user_id", id), zap.String("code", referralCode))
		default:
			return nil, err
		}
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if referrer != nil {
		referral := &model.Referral{
			ReferrerID: referrer.ID,
			ReferredID: user.ID,
			Status:     model.ReferralStatusPending,
		}
		if err := s.store.CreateReferral(ctx, referral); err != nil {
			// the referred_id unique constraint fires on re-registration
			zap.L().Warn("referral not recorded",
				zap.Int64("referrer_id", referrer.ID),
				zap.Int64("referred_id", user.ID),
				zap.Error(err))
		}
	}

	return user, nil
}
