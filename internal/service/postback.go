package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/metrics"
	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
)

// PostbackRequest is the normalized shape of an inbound partner postback.
// Raw keeps the original payload verbatim for forensic replay.
type PostbackRequest struct {
	ClickID              string
	ExternalConversionID string
	Status               string
	Payout               float64
	ConversionType       string
	PartnerOfferID       string
	PartnerUserID        string
	Raw                  string
}

// PostbackResult is always returned, never an error: the webhook contract is
// to acknowledge everything. Success=false only signals internal storage
// trouble, and even that is delivered inside a 2xx body.
type PostbackResult struct {
	Success      bool       `json:"success"`
	Duplicate    bool       `json:"duplicate,omitempty"`
	Message      string     `json:"message"`
	ConversionID *uuid.UUID `json:"conversion_record_id,omitempty"`
}

// PostbackService is the reconciliation engine's webhook entry point. It is
// invoked concurrently per inbound call; correctness under races rests on
// the storage uniqueness constraints, not on in-process locking.
type PostbackService struct {
	store   Store
	matcher *Matcher
	ledger  *LedgerService
}

func NewPostbackService(store Store, matcher *Matcher, ledger *LedgerService) *PostbackService {
	return &PostbackService{store: store, matcher: matcher, ledger: ledger}
}

// HandlePostback runs the full pipeline: normalize, deduplicate, match,
// persist, transition, credit. Processing the same event any number of
// times yields exactly one approved conversion and exactly one wallet
// credit.
func (s *PostbackService) HandlePostback(ctx context.Context, req PostbackRequest) *PostbackResult {
	clickID := strings.TrimSpace(req.ClickID)
	externalID := strings.TrimSpace(req.ExternalConversionID)
	approved := parseApproval(req.Status)

	if clickID == "" && req.PartnerOfferID == "" && req.PartnerUserID == "" {
		metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		zap.L().Warn("postback without click id or hints, ignored", zap.String("raw", req.Raw))
		return &PostbackResult{Success: true, Message: "missing click id, ignored"}
	}

	match, err := s.matcher.Resolve(ctx, clickID, Hints{
		PartnerOfferID:       req.PartnerOfferID,
		PartnerUserID:        req.PartnerUserID,
		ExternalConversionID: externalID,
	})
	if err != nil {
		return s.storageFailure("attribution lookup failed", err)
	}

	// The conversion is keyed on the matched click's canonical identifier
	// when one exists, so a retry that re-cases or wraps the id collapses
	// onto the same key as the original delivery.
	canonicalID := clickID
	if match != nil && match.Click != nil {
		canonicalID = match.Click.ClickID
	}

	if canonicalID == "" {
		// hints that resolved to nothing: there is no identifier to record
		// the event under, and an empty one would collide with every other
		metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		zap.L().Warn("hint-only postback unresolved, ignored", zap.String("raw", req.Raw))
		return &PostbackResult{Success: true, Message: "no click id and hints unresolved, ignored"}
	}

	// Duplicate suppression before any side effect. The unique indexes
	// behind CreateConversion remain the ground truth; these lookups just
	// answer the common case without burning an insert.
	if existing, err := s.store.GetApprovedConversionByClickID(ctx, canonicalID); err == nil {
		metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return duplicateResult(existing.ID)
	} else if !errors.Is(err, repository.ErrConversionNotFound) {
		return s.storageFailure("duplicate check failed", err)
	}

	if externalID != "" {
		if existing, err := s.store.GetConversionByClickAndExternalID(ctx, canonicalID, externalID); err == nil {
			metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return duplicateResult(existing.ID)
		} else if !errors.Is(err, repository.ErrConversionNotFound) {
			return s.storageFailure("duplicate check failed", err)
		}
	}

	conv := &model.Conversion{
		ClickID:        canonicalID,
		Payout:         req.Payout,
		ApprovalStatus: model.ApprovalStatusRejected,
		Source:         model.ConversionSourceIncoming,
		RawPayload:     req.Raw,
	}
	if approved {
		conv.ApprovalStatus = model.ApprovalStatusApproved
	}
	if externalID != "" {
		conv.ExternalConversionID = &externalID
	}
	if t := strings.TrimSpace(req.ConversionType); t != "" {
		conv.ConversionType = &t
	}
	if match != nil {
		userID, offerID := match.UserID, match.OfferID
		conv.UserID = &userID
		conv.OfferID = &offerID
		metrics.MatchesTotal.WithLabelValues(strconv.Itoa(int(match.Tier))).Inc()
	}

	// Persisted unconditionally, resolved or not: the audit trail is also
	// the substrate the duplicate checks above run on.
	if err := s.store.CreateConversion(ctx, conv); err != nil {
		if errors.Is(err, repository.ErrDuplicateConversion) {
			// lost the race against a concurrent postback for the same click
			metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return &PostbackResult{Success: true, Duplicate: true, Message: "duplicate postback, already processed"}
		}
		return s.storageFailure("failed to persist conversion", err)
	}

	switch {
	case match == nil:
		metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeUnresolved).Inc()
		zap.L().Warn("postback unresolved, persisted for manual resync",
			zap.String("claimed_id", clickID),
			zap.String("conversion_id", conv.ID.String()))
		return &PostbackResult{Success: true, Message: "conversion recorded, attribution unresolved", ConversionID: &conv.ID}

	case !approved:
		metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		zap.L().Info("rejected conversion recorded",
			zap.String("claimed_id", clickID),
			zap.Int64("user_id", match.UserID),
			zap.String("conversion_id", conv.ID.String()))
		return &PostbackResult{Success: true, Message: "conversion recorded, not approved", ConversionID: &conv.ID}
	}

	s.applyApproved(ctx, conv, match)
	return &PostbackResult{Success: true, Message: "conversion recorded", ConversionID: &conv.ID}
}

// applyApproved transitions the click and credits the wallet. The conversion
// row is already committed, so any failure here is repairable: the click via
// resync, the wallet via the retry below.
func (s *PostbackService) applyApproved(ctx context.Context, conv *model.Conversion, match *Match) {
	if match.Click != nil {
		err := s.store.MarkClickConverted(ctx, match.Click.ClickID, conv.ID, conv.Payout, conv.CreatedAt)
		if err != nil {
			// resync picks this click up later
			zap.L().Error("failed to mark click converted",
				zap.String("click_id", match.Click.ClickID), zap.Error(err))
		}
	}

	if _, err := s.ledger.Credit(ctx, match.UserID, conv.Payout, conv.ID); err != nil {
		// The conversion is committed, so the credit must land. One
		// immediate retry covers transient failures; anything beyond that
		// is surfaced loudly for the operator.
		if _, err := s.ledger.Credit(ctx, match.UserID, conv.Payout, conv.ID); err != nil {
			metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeError).Inc()
			zap.L().Error("wallet credit failed after conversion commit",
				zap.Int64("user_id", match.UserID),
				zap.String("conversion_id", conv.ID.String()),
				zap.Float64("payout", conv.Payout),
				zap.Error(err))
			return
		}
	}

	metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeCredited).Inc()
	zap.L().Info("conversion credited",
		zap.Int64("user_id", match.UserID),
		zap.String("conversion_id", conv.ID.String()),
		zap.Float64("payout", conv.Payout),
		zap.Int("tier", int(match.Tier)))
}

func (s *PostbackService) storageFailure(msg string, err error) *PostbackResult {
	metrics.PostbacksTotal.WithLabelValues(metrics.OutcomeError).Inc()
	zap.L().Error(msg, zap.Error(err))
	// still acknowledged 2xx at the webhook boundary; resync self-heals
	return &PostbackResult{Success: false, Message: msg}
}

func duplicateResult(id uuid.UUID) *PostbackResult {
	return &PostbackResult{Success: true, Duplicate: true, Message: "duplicate postback, already processed", ConversionID: &id}
}

// parseApproval coerces the many spellings partners use into approved or
// rejected. Unknown values are rejected, never credited.
func parseApproval(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "1", "true", "yes", "ok", "approved", "success", "confirmed":
		return true
	default:
		return false
	}
}
