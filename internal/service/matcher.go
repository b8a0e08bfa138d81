package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
)

// Tier identifies which fallback level attributed a postback. Lower tiers
// are more trustworthy; the resolver stops at the first hit.
type Tier int

const (
	TierExact           Tier = 1 // exact click id match
	TierCaseInsensitive Tier = 2 // partners normalize case inconsistently
	TierFragment        Tier = 3 // id wrapped or truncated by the partner
	TierPriorConversion Tier = 4 // attribution borrowed from an earlier resolved postback
	TierUserOffer       Tier = 5 // newest click for the hinted (user, offer) pair
)

// Hints carries whatever else the postback claimed besides the click id.
type Hints struct {
	PartnerOfferID       string
	PartnerUserID        string
	ExternalConversionID string
}

// Match is a successful attribution. Click is nil for tier 4, where the
// click record itself was never written and only user/offer are known.
type Match struct {
	Click   *model.Click
	UserID  int64
	OfferID uuid.UUID
	Tier    Tier
}

// Matcher resolves a postback's claimed click identifier to a stored click,
// trading precision for recall one controlled step at a time. Every fallback
// is logged and reversible; unresolved postbacks are kept for later repair
// instead of being guessed at.
type Matcher struct {
	store Store
}

func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// fragment matching on very short strings would match almost any click
const minFragmentLen = 8

// Resolve returns (nil, nil) when no tier succeeds. A non-nil error means
// storage trouble, not a failed match.
func (m *Matcher) Resolve(ctx context.Context, claimedID string, hints Hints) (*Match, error) {
	claimedID = strings.TrimSpace(claimedID)

	if claimedID != "" {
		// Tier 1: exact
		click, err := m.store.GetClickByClickID(ctx, claimedID)
		if err == nil {
			return &Match{Click: click, UserID: click.UserID, OfferID: click.OfferID, Tier: TierExact}, nil
		}
		if !errors.Is(err, repository.ErrClickNotFound) {
			return nil, err
		}

		// Tier 2: case-insensitive
		click, err = m.store.GetClickByClickIDFold(ctx, claimedID)
		if err == nil {
			zap.L().Info("click matched case-insensitively",
				zap.String("claimed_id", claimedID), zap.String("click_id", click.ClickID))
			return &Match{Click: click, UserID: click.UserID, OfferID: click.OfferID, Tier: TierCaseInsensitive}, nil
		}
		if !errors.Is(err, repository.ErrClickNotFound) {
			return nil, err
		}

		// Tier 3: substring in either direction
		if len(claimedID) >= minFragmentLen {
			click, err = m.store.FindClickByFragment(ctx, claimedID)
			if err == nil {
				zap.L().Info("click matched by fragment",
					zap.String("claimed_id", claimedID), zap.String("click_id", click.ClickID))
				return &Match{Click: click, UserID: click.UserID, OfferID: click.OfferID, Tier: TierFragment}, nil
			}
			if !errors.Is(err, repository.ErrClickNotFound) {
				return nil, err
			}
		}

		// Tier 4: a prior postback for the same claimed id was already resolved
		conv, err := m.store.GetResolvedConversionByClickID(ctx, claimedID)
		if err == nil {
			zap.L().Info("attribution borrowed from prior conversion",
				zap.String("claimed_id", claimedID), zap.String("conversion_id", conv.ID.String()))
			return &Match{UserID: *conv.UserID, OfferID: *conv.OfferID, Tier: TierPriorConversion}, nil
		}
		if !errors.Is(err, repository.ErrConversionNotFound) {
			return nil, err
		}
	}

	// Tier 5: newest click for the hinted (user, offer) pair
	if hints.PartnerOfferID != "" && hints.PartnerUserID != "" {
		match, err := m.resolveByHints(ctx, hints)
		if match != nil || err != nil {
			return match, err
		}
	}

	return nil, nil
}

func (m *Matcher) resolveByHints(ctx context.Context, hints Hints) (*Match, error) {
	offer, err := m.store.GetOfferByPartnerOfferID(ctx, hints.PartnerOfferID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, nil
		}
		return nil, err
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(hints.PartnerUserID), 10, 64)
	if err != nil {
		return nil, nil
	}
	user, err := m.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	click, err := m.store.GetLatestClickByUserOffer(ctx, user.ID, offer.ID)
	if err != nil {
		if errors.Is(err, repository.ErrClickNotFound) {
			return nil, nil
		}
		return nil, err
	}

	zap.L().Info("click matched by user/offer hints",
		zap.Int64("user_id", user.ID), zap.String("offer_id", offer.ID.String()),
		zap.String("click_id", click.ClickID))
	return &Match{Click: click, UserID: click.UserID, OfferID: click.OfferID, Tier: TierUserOffer}, nil
}
