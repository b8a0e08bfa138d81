package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
)

// Store is the persistence surface the services run on. Implemented by
// *repository.Repository; tests swap in an in-memory fake.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	GetUserBalance(ctx context.Context, userID int64) (float64, error)

	CreateOffer(ctx context.Context, offer *model.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	GetOfferByPartnerOfferID(ctx context.Context, partnerOfferID string) (*model.Offer, error)

	CreateClick(ctx context.Context, click *model.Click) error
	GetClickByClickID(ctx context.Context, clickID string) (*model.Click, error)
	GetClickByClickIDFold(ctx context.Context, clickID string) (*model.Click, error)
	FindClickByFragment(ctx context.Context, fragment string) (*model.Click, error)
	GetLatestClickByUserOffer(ctx context.Context, userID int64, offerID uuid.UUID) (*model.Click, error)
	GetClickByConversionID(ctx context.Context, conversionID uuid.UUID) (*model.Click, error)
	MarkClickConverted(ctx context.Context, clickID string, conversionID uuid.UUID, value float64, at time.Time) error
	MarkClickUnconverted(ctx context.Context, clickID string) error
	GetUnconvertedClicks(ctx context.Context, limit, offset int) ([]model.Click, error)
	DeleteClick(ctx context.Context, clickID string) error

	CreateConversion(ctx context.Context, conv *model.Conversion) error
	GetConversion(ctx context.Context, id uuid.UUID) (*model.Conversion, error)
	GetApprovedConversionByClickID(ctx context.Context, clickID string) (*model.Conversion, error)
	GetConversionByClickAndExternalID(ctx context.Context, clickID, externalID string) (*model.Conversion, error)
	GetResolvedConversionByClickID(ctx context.Context, clickID string) (*model.Conversion, error)
	FindApprovedConversionForClick(ctx context.Context, clickID string) (*model.Conversion, error)
	GetUnresolvedConversions(ctx context.Context, limit, offset int) ([]model.Conversion, error)
	DeleteConversion(ctx context.Context, id uuid.UUID) error

	AdjustBalance(ctx context.Context, userID int64, amount float64, txType model.TransactionType, description string, referenceID *uuid.UUID) (float64, error)
	GetBalanceTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error)

	CreateReferral(ctx context.Context, referral *model.Referral) error
	GetReferralByReferredID(ctx context.Context, referredID int64) (*model.Referral, error)
	CreditReferral(ctx context.Context, id uuid.UUID, rewardAmount float64) (bool, error)

	CreateClaim(ctx context.Context, claim *model.Claim) error
	GetClaim(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	ResolveClaim(ctx context.Context, id uuid.UUID, status model.ClaimStatus) (bool, error)
}
