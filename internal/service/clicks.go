package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/clickid"
	"github.com/cashloop/backend/internal/metrics"
	"github.com/cashloop/backend/internal/model"
)

// PartnerNotifier registers a recorded click with the partner network.
// Implementations are best-effort: a failure is logged and swallowed.
type PartnerNotifier interface {
	NotifyClick(ctx context.Context, click *model.Click)
}

// ClickContext is the client metadata captured at redirect time.
type ClickContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

type ClickService struct {
	store    Store
	notifier PartnerNotifier
}

func NewClickService(store Store, notifier PartnerNotifier) *ClickService {
	return &ClickService{store: store, notifier: notifier}
}

// RecordClick assigns a fresh identifier and persists the click. A non-nil
// click is returned even when the store write fails, so the caller can
// still redirect the user; the click is then unattributable, a bounded data
// loss preferred over blocking the redirect.
func (s *ClickService) RecordClick(ctx context.Context, userID int64, offer *model.Offer, meta ClickContext) (*model.Click, error) {
	click := &model.Click{
		ClickID:        clickid.Generate(),
		UserID:         userID,
		OfferID:        offer.ID,
		PartnerOfferID: offer.PartnerOfferID,
	}
	if meta.IPAddress != "" {
		click.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		click.UserAgent = &meta.UserAgent
	}
	if meta.Referrer != "" {
		click.Referrer = &meta.Referrer
	}

	if err := s.store.CreateClick(ctx, click); err != nil {
		metrics.ClickRecordFailures.Inc()
		zap.L().Error("click store write failed, redirect proceeds unattributed",
			zap.String("click_id", click.ClickID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return click, err
	}

	metrics.ClicksRecorded.Inc()

	if s.notifier != nil {
		// fire-and-forget: its own context, never gates the redirect
		go s.notifier.NotifyClick(context.WithoutCancel(ctx), click)
	}

	return click, nil
}
