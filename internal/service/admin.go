package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/metrics"
	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
)

// AdminService hosts the operator-triggered reversal and repair commands.
type AdminService struct {
	store     Store
	ledger    *LedgerService
	batchSize int
}

func NewAdminService(store Store, ledger *LedgerService, batchSize int) *AdminService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &AdminService{store: store, ledger: ledger, batchSize: batchSize}
}

// DeleteConversion undoes a payout: wallet reversal first, then the click is
// unmarked, then the conversion row goes away. Reports whether a wallet
// reversal happened so the operator sees the financial effect.
//
// The ledger step runs before any tracking state changes: if the wallet
// cannot be debited the whole operation aborts, because a reversed click
// with an intact payout is worse than no reversal at all.
func (s *AdminService) DeleteConversion(ctx context.Context, id uuid.UUID) (bool, error) {
	conv, err := s.store.GetConversion(ctx, id)
	if err != nil {
		return false, err
	}

	walletReversed := false
	if conv.Approved() && conv.Payout > 0 && conv.UserID != nil {
		if _, err := s.ledger.Reverse(ctx, *conv.UserID, conv.Payout, conv.ID); err != nil {
			return false, fmt.Errorf("wallet reversal failed: %w", err)
		}
		walletReversed = true
		metrics.WalletReversals.Inc()
	}

	// tier-4 conversions have no click row; that's fine
	click, err := s.store.GetClickByConversionID(ctx, conv.ID)
	if err == nil {
		if err := s.store.MarkClickUnconverted(ctx, click.ClickID); err != nil {
			zap.L().Error("failed to unmark click during reversal",
				zap.String("click_id", click.ClickID), zap.Error(err))
		}
	} else if !errors.Is(err, repository.ErrClickNotFound) {
		zap.L().Error("click lookup failed during reversal",
			zap.String("conversion_id", conv.ID.String()), zap.Error(err))
	}

	if err := s.store.DeleteConversion(ctx, conv.ID); err != nil {
		return walletReversed, err
	}

	zap.L().Info("conversion reversed",
		zap.String("conversion_id", conv.ID.String()),
		zap.Bool("wallet_reversed", walletReversed),
		zap.Float64("payout", conv.Payout))
	return walletReversed, nil
}

func (s *AdminService) DeleteClick(ctx context.Context, clickID string) error {
	return s.store.DeleteClick(ctx, clickID)
}

func (s *AdminService) GetClick(ctx context.Context, clickID string) (*model.Click, error) {
	return s.store.GetClickByClickID(ctx, clickID)
}

var ErrInvalidOffer = errors.New("offer needs a title and a destination url")

// CreateOffer adds a catalog entry for the tracking engine to redirect to.
func (s *AdminService) CreateOffer(ctx context.Context, offer *model.Offer) error {
	if offer.Title == "" || offer.DestinationURL == "" {
		return ErrInvalidOffer
	}
	return s.store.CreateOffer(ctx, offer)
}

// GetUserTransactions lists a user's wallet audit trail, newest first.
func (s *AdminService) GetUserTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.store.GetBalanceTransactions(ctx, userID, limit, offset)
}

func (s *AdminService) GetUnresolvedConversions(ctx context.Context, limit, offset int) ([]model.Conversion, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.store.GetUnresolvedConversions(ctx, limit, offset)
}

// ResyncReport summarizes one resync run.
type ResyncReport struct {
	Scanned int `json:"scanned"`
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// Resync is the replay safety net: it walks every unconverted click and
// re-applies the conversion transition where an approved postback already
// exists for it. Every step is idempotent, so the scan can be interrupted
// and rerun from the start at any time. No ledger effect: the wallet was
// credited when the postback was processed; only the click update is the
// documented best-effort write being repaired here.
func (s *AdminService) Resync(ctx context.Context) (*ResyncReport, error) {
	report := &ResyncReport{}
	offset := 0

	for {
		clicks, err := s.store.GetUnconvertedClicks(ctx, s.batchSize, offset)
		if err != nil {
			return report, err
		}
		if len(clicks) == 0 {
			break
		}

		for i := range clicks {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			s.resyncOne(ctx, &clicks[i], report)
		}

		// synced clicks drop out of the unconverted set, so only the ones
		// left behind advance the offset
		offset = report.Skipped + report.Errored
	}

	zap.L().Info("resync finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("synced", report.Synced),
		zap.Int("skipped", report.Skipped),
		zap.Int("errored", report.Errored))
	return report, nil
}

func (s *AdminService) resyncOne(ctx context.Context, click *model.Click, report *ResyncReport) {
	report.Scanned++

	conv, err := s.store.FindApprovedConversionForClick(ctx, click.ClickID)
	if err != nil {
		if errors.Is(err, repository.ErrConversionNotFound) {
			report.Skipped++
			metrics.ResyncResults.WithLabelValues("skipped").Inc()
			return
		}
		report.Errored++
		metrics.ResyncResults.WithLabelValues("errored").Inc()
		zap.L().Error("resync lookup failed", zap.String("click_id", click.ClickID), zap.Error(err))
		return
	}

	if err := s.store.MarkClickConverted(ctx, click.ClickID, conv.ID, conv.Payout, conv.CreatedAt); err != nil {
		report.Errored++
		metrics.ResyncResults.WithLabelValues("errored").Inc()
		zap.L().Error("resync update failed", zap.String("click_id", click.ClickID), zap.Error(err))
		return
	}

	report.Synced++
	metrics.ResyncResults.WithLabelValues("synced").Inc()
	zap.L().Info("click resynced",
		zap.String("click_id", click.ClickID),
		zap.String("conversion_id", conv.ID.String()))
}
