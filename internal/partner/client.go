// Package partner holds the outbound integration with the affiliate
// network. Everything here is best-effort by contract: local tracking never
// waits on the partner.
package partner

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/config"
	"github.com/cashloop/backend/internal/model"
)

type Client struct {
	cfg        config.PartnerConfig
	httpClient *http.Client
}

func NewClient(cfg config.PartnerConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.NotifyTimeout,
		},
	}
}

// NotifyClick registers a click with the partner network. Failures are
// logged and dropped; the click is already durable locally and the partner
// echoes our click id back in the postback regardless.
func (c *Client) NotifyClick(ctx context.Context, click *model.Click) {
	if c.cfg.NotifyURL == "" || click.PartnerOfferID == nil {
		return
	}

	u, err := url.Parse(c.cfg.NotifyURL)
	if err != nil {
		zap.L().Warn("invalid partner notify url", zap.Error(err))
		return
	}
	q := u.Query()
	q.Set("click_id", click.ClickID)
	q.Set("offer_id", *click.PartnerOfferID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		zap.L().Warn("partner notify request build failed", zap.Error(err))
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("partner notify failed",
			zap.String("click_id", click.ClickID), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		zap.L().Warn("partner notify rejected",
			zap.String("click_id", click.ClickID),
			zap.Int("status", resp.StatusCode))
	}
}
