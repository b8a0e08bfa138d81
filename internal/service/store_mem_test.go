package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
)

var errStoreDown = errors.New("storage unavailable")

// memStore implements Store with the same observable semantics as the
// Postgres repository, including the conversion uniqueness rules.
type memStore struct {
	mu sync.Mutex

	users        map[int64]*model.User
	offers       map[uuid.UUID]*model.Offer
	clicks       []*model.Click
	conversions  []*model.Conversion
	referrals    map[int64]*model.Referral // keyed by referred id
	claims       map[uuid.UUID]*model.Claim
	transactions []model.BalanceTransaction

	clock time.Time

	failAdjustBalance int  // fail the next N AdjustBalance calls
	failMarkConverted bool
	failCreateClick   bool
	blindDupLookups   bool // simulate the check/insert race: lookups miss, the index still fires
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*model.User),
		offers:    make(map[uuid.UUID]*model.Offer),
		referrals: make(map[int64]*model.Referral),
		claims:    make(map[uuid.UUID]*model.Claim),
		clock:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so recency ordering is
// deterministic in tests.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addUser(id int64, referredBy *int64) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: id, ReferralCode: uuid.NewString(), ReferredBy: referredBy, CreatedAt: m.tick()}
	m.users[id] = u
	return u
}

func (m *memStore) addOffer(partnerOfferID string) *model.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &model.Offer{ID: uuid.New(), Title: "offer", DestinationURL: "https://example.com/{click_id}", Active: true, CreatedAt: m.tick()}
	if partnerOfferID != "" {
		o.PartnerOfferID = &partnerOfferID
	}
	m.offers[o.ID] = o
	return o
}

func (m *memStore) addClick(clickID string, userID int64, offerID uuid.UUID) *model.Click {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Click{ID: uuid.New(), ClickID: clickID, UserID: userID, OfferID: offerID, CreatedAt: m.tick()}
	m.clicks = append(m.clicks, c)
	return c
}

func (m *memStore) addReferral(referrerID, referredID int64) *model.Referral {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &model.Referral{ID: uuid.New(), ReferrerID: referrerID, ReferredID: referredID, Status: model.ReferralStatusPending, CreatedAt: m.tick()}
	m.referrals[referredID] = r
	return r
}

func (m *memStore) addClaim(userID int64, offerID uuid.UUID) *model.Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Claim{ID: uuid.New(), UserID: userID, OfferID: offerID, Status: model.ClaimStatusPending, CreatedAt: m.tick()}
	m.claims[c.ID] = c
	return c
}

func (m *memStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.ID]; ok {
		existing.Email = user.Email
		existing.Name = user.Name
		existing.UpdatedAt = m.tick()
		*user = *existing
		return nil
	}
	user.CreatedAt = m.tick()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUserByReferralCode(_ context.Context, code string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetUserBalance(_ context.Context, userID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return u.Balance, nil
}

func (m *memStore) GetOffer(_ context.Context, id uuid.UUID) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) CreateOffer(_ context.Context, offer *model.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer.ID = uuid.New()
	offer.CreatedAt = m.tick()
	cp := *offer
	m.offers[offer.ID] = &cp
	return nil
}

func (m *memStore) GetOfferByPartnerOfferID(_ context.Context, partnerOfferID string) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.PartnerOfferID != nil && *o.PartnerOfferID == partnerOfferID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOfferNotFound
}

func (m *memStore) CreateClick(_ context.Context, click *model.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateClick {
		return errStoreDown
	}
	click.ID = uuid.New()
	click.CreatedAt = m.tick()
	cp := *click
	m.clicks = append(m.clicks, &cp)
	return nil
}

func (m *memStore) findClick(match func(*model.Click) bool, newestFirst bool) (*model.Click, error) {
	candidates := make([]*model.Click, 0)
	for _, c := range m.clicks {
		if match(c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrClickNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if newestFirst {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *memStore) GetClickByClickID(_ context.Context, clickID string) (*model.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findClick(func(c *model.Click) bool { return c.ClickID == clickID }, true)
}

func (m *memStore) GetClickByClickIDFold(_ context.Context, clickID string) (*model.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findClick(func(c *model.Click) bool {
		return strings.EqualFold(c.ClickID, clickID)
	}, true)
}

func (m *memStore) FindClickByFragment(_ context.Context, fragment string) (*model.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lf := strings.ToLower(fragment)
	return m.findClick(func(c *model.Click) bool {
		lc := strings.ToLower(c.ClickID)
		return strings.Contains(lc, lf) || strings.Contains(lf, lc)
	}, true)
}

func (m *memStore) GetLatestClickByUserOffer(_ context.Context, userID int64, offerID uuid.UUID) (*model.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findClick(func(c *model.Click) bool {
		return c.UserID == userID && c.OfferID == offerID
	}, true)
}

func (m *memStore) GetClickByConversionID(_ context.Context, conversionID uuid.UUID) (*model.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findClick(func(c *model.Click) bool {
		return c.ConversionID != nil && *c.ConversionID == conversionID
	}, true)
}

func (m *memStore) MarkClickConverted(_ context.Context, clickID string, conversionID uuid.UUID, value float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkConverted {
		return errStoreDown
	}
	for _, c := range m.clicks {
		if c.ClickID == clickID {
			c.Converted = true
			c.ConversionID = &conversionID
			c.ConversionValue = value
			atCopy := at
			c.ConvertedAt = &atCopy
			return nil
		}
	}
	return repository.ErrClickNotFound
}

func (m *memStore) MarkClickUnconverted(_ context.Context, clickID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clicks {
		if c.ClickID == clickID {
			c.Converted = false
			c.ConversionID = nil
			c.ConversionValue = 0
			c.ConvertedAt = nil
			return nil
		}
	}
	return repository.ErrClickNotFound
}

func (m *memStore) GetUnconvertedClicks(_ context.Context, limit, offset int) ([]model.Click, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Click
	for _, c := range m.clicks {
		if !c.Converted {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeleteClick(_ context.Context, clickID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.clicks {
		if c.ClickID == clickID {
			m.clicks = append(m.clicks[:i], m.clicks[i+1:]...)
			return nil
		}
	}
	return repository.ErrClickNotFound
}

func (m *memStore) CreateConversion(_ context.Context, conv *model.Conversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.conversions {
		if conv.ClickID != "" &&
			existing.ClickID == conv.ClickID &&
			existing.ApprovalStatus == model.ApprovalStatusApproved &&
			existing.Source == model.ConversionSourceIncoming &&
			conv.ApprovalStatus == model.ApprovalStatusApproved &&
			conv.Source == model.ConversionSourceIncoming {
			return repository.ErrDuplicateConversion
		}
		if conv.ExternalConversionID != nil && existing.ExternalConversionID != nil &&
			existing.ClickID == conv.ClickID &&
			*existing.ExternalConversionID == *conv.ExternalConversionID {
			return repository.ErrDuplicateConversion
		}
	}
	conv.ID = uuid.New()
	conv.CreatedAt = m.tick()
	cp := *conv
	m.conversions = append(m.conversions, &cp)
	return nil
}

func (m *memStore) findConversion(match func(*model.Conversion) bool, newestFirst bool) (*model.Conversion, error) {
	candidates := make([]*model.Conversion, 0)
	for _, c := range m.conversions {
		if match(c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrConversionNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if newestFirst {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *memStore) GetConversion(_ context.Context, id uuid.UUID) (*model.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findConversion(func(c *model.Conversion) bool { return c.ID == id }, true)
}

func (m *memStore) GetApprovedConversionByClickID(_ context.Context, clickID string) (*model.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blindDupLookups {
		return nil, repository.ErrConversionNotFound
	}
	return m.findConversion(func(c *model.Conversion) bool {
		return c.ClickID == clickID && c.ApprovalStatus == model.ApprovalStatusApproved && c.Source == model.ConversionSourceIncoming
	}, true)
}

func (m *memStore) GetConversionByClickAndExternalID(_ context.Context, clickID, externalID string) (*model.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findConversion(func(c *model.Conversion) bool {
		return c.ClickID == clickID && c.ExternalConversionID != nil && *c.ExternalConversionID == externalID
	}, true)
}

func (m *memStore) GetResolvedConversionByClickID(_ context.Context, clickID string) (*model.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findConversion(func(c *model.Conversion) bool {
		return c.ClickID == clickID && c.UserID != nil && c.OfferID != nil
	}, false)
}

func (m *memStore) FindApprovedConversionForClick(_ context.Context, clickID string) (*model.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lc := strings.ToLower(clickID)
	return m.findConversion(func(c *model.Conversion) bool {
		if c.ApprovalStatus != model.ApprovalStatusApproved || c.Source != model.ConversionSourceIncoming || c.ClickID == "" {
			return false
		}
		other := strings.ToLower(c.ClickID)
		if strings.Contains(other, lc) {
			return true
		}
		return len(other) >= minFragmentLen && strings.Contains(lc, other)
	}, false)
}

func (m *memStore) GetUnresolvedConversions(_ context.Context, limit, offset int) ([]model.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Conversion
	for _, c := range m.conversions {
		if c.Source == model.ConversionSourceIncoming && (c.UserID == nil || c.OfferID == nil) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeleteConversion(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.conversions {
		if c.ID == id {
			m.conversions = append(m.conversions[:i], m.conversions[i+1:]...)
			return nil
		}
	}
	return repository.ErrConversionNotFound
}

func (m *memStore) AdjustBalance(_ context.Context, userID int64, amount float64, txType model.TransactionType, description string, referenceID *uuid.UUID) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdjustBalance > 0 {
		m.failAdjustBalance--
		return 0, errStoreDown
	}
	u, ok := m.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	before := u.Balance
	after := before + amount
	if after < 0 {
		after = 0
	}
	applied := after - before
	u.Balance = after
	if amount > 0 {
		u.TotalEarned += amount
	} else if txType == model.TransactionTypePayoutReversal {
		u.TotalEarned += applied
		if u.TotalEarned < 0 {
			u.TotalEarned = 0
		}
	}
	var desc *string
	if description != "" {
		desc = &description
	}
	m.transactions = append(m.transactions, model.BalanceTransaction{
		ID: uuid.New(), UserID: userID, Amount: applied, Type: txType,
		Description: desc, ReferenceID: referenceID,
		BalanceBefore: before, BalanceAfter: after, CreatedAt: m.tick(),
	})
	return after, nil
}

func (m *memStore) GetBalanceTransactions(_ context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BalanceTransaction
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CreateReferral(_ context.Context, referral *model.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.referrals[referral.ReferredID]; ok {
		return errors.New("referral already exists for referred user")
	}
	referral.ID = uuid.New()
	referral.CreatedAt = m.tick()
	cp := *referral
	m.referrals[referral.ReferredID] = &cp
	return nil
}

func (m *memStore) GetReferralByReferredID(_ context.Context, referredID int64) (*model.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[referredID]
	if !ok {
		return nil, repository.ErrReferralNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CreditReferral(_ context.Context, id uuid.UUID, rewardAmount float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ID == id {
			if r.Status != model.ReferralStatusPending {
				return false, nil
			}
			r.Status = model.ReferralStatusCredited
			r.RewardAmount = rewardAmount
			now := m.tick()
			r.CreditedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateClaim(_ context.Context, claim *model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	claim.ID = uuid.New()
	claim.CreatedAt = m.tick()
	cp := *claim
	m.claims[claim.ID] = &cp
	return nil
}

func (m *memStore) GetClaim(_ context.Context, id uuid.UUID) (*model.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, repository.ErrClaimNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ResolveClaim(_ context.Context, id uuid.UUID, status model.ClaimStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return false, repository.ErrClaimNotFound
	}
	if c.Status != model.ClaimStatusPending {
		return false, nil
	}
	c.Status = status
	now := m.tick()
	c.ResolvedAt = &now
	return true, nil
}
