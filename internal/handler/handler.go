package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/config"
	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type OfferStore interface {
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
}

type ClickRecorder interface {
	RecordClick(ctx context.Context, userID int64, offer *model.Offer, meta service.ClickContext) (*model.Click, error)
}

type PostbackProcessor interface {
	HandlePostback(ctx context.Context, req service.PostbackRequest) *service.PostbackResult
}

type UserRegistrar interface {
	Register(ctx context.Context, id int64, email, name, referralCode string) (*model.User, error)
}

type ClaimResolver interface {
	SubmitClaim(ctx context.Context, userID int64, offerID uuid.UUID) (*model.Claim, error)
	ApproveClaim(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	RejectClaim(ctx context.Context, id uuid.UUID) (*model.Claim, error)
}

type AdminOps interface {
	DeleteConversion(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteClick(ctx context.Context, clickID string) error
	GetClick(ctx context.Context, clickID string) (*model.Click, error)
	CreateOffer(ctx context.Context, offer *model.Offer) error
	Resync(ctx context.Context) (*service.ResyncReport, error)
	GetUnresolvedConversions(ctx context.Context, limit, offset int) ([]model.Conversion, error)
	GetUserTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error)
}

type Handler struct {
	cfg       *config.Config
	db        Pinger
	offers    OfferStore
	clicks    ClickRecorder
	postbacks PostbackProcessor
	users     UserRegistrar
	claims    ClaimResolver
	admin     AdminOps
}

func New(
	cfg *config.Config,
	db Pinger,
	offers OfferStore,
	clicks ClickRecorder,
	postbacks PostbackProcessor,
	users UserRegistrar,
	claims ClaimResolver,
	admin AdminOps,
) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		offers:    offers,
		clicks:    clicks,
		postbacks: postbacks,
		users:     users,
		claims:    claims,
		admin:     admin,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
