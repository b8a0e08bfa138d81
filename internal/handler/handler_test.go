package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/config"
	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/service"
)

type stubDB struct {
	pingErr error
}

func (s *stubDB) Ping(context.Context) error { return s.pingErr }

type stubOffers struct {
	offers map[uuid.UUID]*model.Offer
}

func (s *stubOffers) GetOffer(_ context.Context, id uuid.UUID) (*model.Offer, error) {
	if o, ok := s.offers[id]; ok {
		return o, nil
	}
	return nil, errors.New("offer not found")
}

type stubClicks struct {
	lastUserID int64
	failStore  bool
}

func (s *stubClicks) RecordClick(_ context.Context, userID int64, offer *model.Offer, _ service.ClickContext) (*model.Click, error) {
	s.lastUserID = userID
	click := &model.Click{ID: uuid.New(), ClickID: "CLID-TESTCLICK99", UserID: userID, OfferID: offer.ID}
	if s.failStore {
		return click, errors.New("storage unavailable")
	}
	return click, nil
}

type stubPostbacks struct {
	lastReq service.PostbackRequest
	result  *service.PostbackResult
}

func (s *stubPostbacks) HandlePostback(_ context.Context, req service.PostbackRequest) *service.PostbackResult {
	s.lastReq = req
	if s.result != nil {
		return s.result
	}
	return &service.PostbackResult{Success: true, Message: "conversion recorded"}
}

type stubUsers struct {
	lastReferralCode string
	user             *model.User
	err              error
}

func (s *stubUsers) Register(_ context.Context, id int64, email, name, referralCode string) (*model.User, error) {
	s.lastReferralCode = referralCode
	if s.err != nil {
		return nil, s.err
	}
	if s.user != nil {
		return s.user, nil
	}
	user := &model.User{ID: id, ReferralCode: "ref-" + uuid.NewString()[:8]}
	if email != "" {
		user.Email = &email
	}
	if name != "" {
		user.Name = &name
	}
	return user, nil
}

type stubClaims struct {
	claim *model.Claim
	err   error
}

func (s *stubClaims) SubmitClaim(_ context.Context, userID int64, offerID uuid.UUID) (*model.Claim, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.claim != nil {
		return s.claim, nil
	}
	return &model.Claim{ID: uuid.New(), UserID: userID, OfferID: offerID, Status: model.ClaimStatusPending}, nil
}

func (s *stubClaims) ApproveClaim(context.Context, uuid.UUID) (*model.Claim, error) {
	return s.claim, s.err
}

func (s *stubClaims) RejectClaim(context.Context, uuid.UUID) (*model.Claim, error) {
	return s.claim, s.err
}

type stubAdmin struct {
	walletReversed bool
	deleteErr      error
	click          *model.Click
	clickErr       error
	offerErr       error
	report         *service.ResyncReport
	unresolved     []model.Conversion
	transactions   []model.BalanceTransaction
}

func (s *stubAdmin) DeleteConversion(context.Context, uuid.UUID) (bool, error) {
	return s.walletReversed, s.deleteErr
}

func (s *stubAdmin) DeleteClick(context.Context, string) error { return s.deleteErr }

func (s *stubAdmin) GetClick(context.Context, string) (*model.Click, error) {
	return s.click, s.clickErr
}

func (s *stubAdmin) CreateOffer(_ context.Context, offer *model.Offer) error {
	if s.offerErr != nil {
		return s.offerErr
	}
	offer.ID = uuid.New()
	return nil
}

func (s *stubAdmin) Resync(context.Context) (*service.ResyncReport, error) {
	return s.report, nil
}

func (s *stubAdmin) GetUnresolvedConversions(context.Context, int, int) ([]model.Conversion, error) {
	return s.unresolved, nil
}

func (s *stubAdmin) GetUserTransactions(context.Context, int64, int, int) ([]model.BalanceTransaction, error) {
	return s.transactions, nil
}

type testDeps struct {
	db        *stubDB
	offers    *stubOffers
	clicks    *stubClicks
	postbacks *stubPostbacks
	users     *stubUsers
	claims    *stubClaims
	admin     *stubAdmin
}

func newTestApp() (*fiber.App, *testDeps) {
	deps := &testDeps{
		db:        &stubDB{},
		offers:    &stubOffers{offers: make(map[uuid.UUID]*model.Offer)},
		clicks:    &stubClicks{},
		postbacks: &stubPostbacks{},
		users:     &stubUsers{},
		claims:    &stubClaims{},
		admin:     &stubAdmin{},
	}
	h := New(&config.Config{}, deps.db, deps.offers, deps.clicks, deps.postbacks, deps.users, deps.claims, deps.admin)

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/postback", h.Postback)
	app.Post("/postback", h.Postback)
	app.Get("/api/track/:offer_id", h.Track)
	app.Post("/api/users", h.RegisterUser)
	app.Post("/api/claims", h.SubmitClaim)
	app.Delete("/api/admin/conversions/:id", h.DeleteConversion)
	app.Get("/api/admin/clicks/:click_id", h.GetClick)
	app.Delete("/api/admin/clicks/:click_id", h.DeleteClick)
	app.Post("/api/admin/offers", h.CreateOffer)
	app.Post("/api/admin/resync", h.Resync)
	app.Get("/api/admin/conversions/unresolved", h.ListUnresolvedConversions)
	app.Get("/api/admin/users/:id/transactions", h.ListUserTransactions)
	app.Post("/api/admin/claims/:id/approve", h.ApproveClaim)
	app.Post("/api/admin/claims/:id/reject", h.RejectClaim)
	return app, deps
}
