package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/model"
)

var ErrClaimNotPending = errors.New("claim is not pending")

// ClaimService handles the approval lifecycle of cashback claims. Claim
// intake and review UI live outside this engine; what matters here is the
// pending -> approved transition, which cascades the referral reward.
type ClaimService struct {
	store  Store
	ledger *LedgerService
}

func NewClaimService(store Store, ledger *LedgerService) *ClaimService {
	return &ClaimService{store: store, ledger: ledger}
}

// SubmitClaim files a pending claim after checking the user and offer exist.
func (s *ClaimService) SubmitClaim(ctx context.Context, userID int64, offerID uuid.UUID) (*model.Claim, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetOffer(ctx, offerID); err != nil {
		return nil, err
	}

	claim := &model.Claim{
		UserID:  userID,
		OfferID: offerID,
		Status:  model.ClaimStatusPending,
	}
	if err := s.store.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

// ApproveClaim marks the claim approved and, on the actual transition,
// credits the claimant's referrer. Approving an already-resolved claim
// returns ErrClaimNotPending and has no side effects.
func (s *ClaimService) ApproveClaim(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	claim, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}

	transitioned, err := s.store.ResolveClaim(ctx, id, model.ClaimStatusApproved)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return claim, ErrClaimNotPending
	}
	claim.Status = model.ClaimStatusApproved

	// Referral cascade. Approval already happened; a failed reward credit
	// is logged for follow-up, not rolled into the approval result.
	if err := s.ledger.CreditReferrerIfEligible(ctx, claim.UserID, claim.ID); err != nil {
		zap.L().Error("referral reward failed on claim approval",
			zap.String("claim_id", claim.ID.String()),
			zap.Int64("user_id", claim.UserID),
			zap.Error(err))
	}

	return claim, nil
}

func (s *ClaimService) RejectClaim(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	claim, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}

	transitioned, err := s.store.ResolveClaim(ctx, id, model.ClaimStatusRejected)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return claim, ErrClaimNotPending
	}
	claim.Status = model.ClaimStatusRejected
	return claim, nil
}
