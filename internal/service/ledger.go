package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/config"
	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
)

// LedgerService is the only component allowed to move wallet balances.
// All mutations go through the store's atomic adjustment, so concurrent
// credits to one user serialize at the row level.
type LedgerService struct {
	store   Store
	rewards config.RewardsConfig
}

func NewLedgerService(store Store, rewards config.RewardsConfig) *LedgerService {
	return &LedgerService{store: store, rewards: rewards}
}

// Credit adds a conversion payout to the user's wallet and earned counter.
func (s *LedgerService) Credit(ctx context.Context, userID int64, amount float64, conversionID uuid.UUID) (float64, error) {
	if amount <= 0 {
		return s.store.GetUserBalance(ctx, userID)
	}
	description := fmt.Sprintf("Cashback payout: +%.2f", amount)
	return s.store.AdjustBalance(ctx, userID, amount, model.TransactionTypeConversionPayout, description, &conversionID)
}

// Reverse is the exact inverse of Credit, clamped so the balance never goes
// negative.
func (s *LedgerService) Reverse(ctx context.Context, userID int64, amount float64, conversionID uuid.UUID) (float64, error) {
	if amount <= 0 {
		return s.store.GetUserBalance(ctx, userID)
	}
	description := fmt.Sprintf("Payout reversal: -%.2f", amount)
	return s.store.AdjustBalance(ctx, userID, -amount, model.TransactionTypePayoutReversal, description, &conversionID)
}

// CreditReferrerIfEligible pays the fixed referral reward to the user's
// referrer, once per referred user. Triggered on claim approval, not on
// conversions. A missing referral is the normal case and not an error.
func (s *LedgerService) CreditReferrerIfEligible(ctx context.Context, userID int64, claimID uuid.UUID) error {
	reward := s.rewards.ReferralReward
	if reward <= 0 {
		return nil
	}

	referral, err := s.store.GetReferralByReferredID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReferralNotFound) {
			return nil
		}
		return err
	}
	if referral.Status != model.ReferralStatusPending {
		return nil
	}

	// single-shot transition; a concurrent approval loses here and skips
	credited, err := s.store.CreditReferral(ctx, referral.ID, reward)
	if err != nil {
		return err
	}
	if !credited {
		return nil
	}

	description := fmt.Sprintf("Referral reward: +%.2f", reward)
	if _, err := s.store.AdjustBalance(ctx, referral.ReferrerID, reward, model.TransactionTypeReferralBonus, description, &referral.ID); err != nil {
		return fmt.Errorf("referral reward credit failed: %w", err)
	}

	zap.L().Info("referral reward credited",
		zap.Int64("referrer_id", referral.ReferrerID),
		zap.Int64("referred_id", userID),
		zap.String("claim_id", claimID.String()),
		zap.Float64("reward", reward))
	return nil
}
