package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cashloop/backend/internal/service"
)

// postbackPayload mirrors the JSON body some partner networks send instead
// of query parameters.
type postbackPayload struct {
	ClickID        string `json:"click_id"`
	ConversionID   string `json:"conversion_id"`
	Payout         string `json:"payout"`
	Status         string `json:"status"`
	ConversionType string `json:"type"`
	OfferID        string `json:"offer_id"`
	UserID         string `json:"user_id"`
}

// Postback is the partner-facing webhook, reachable by GET and POST. It
// always answers 200: partner networks retry aggressively on anything else,
// and a retry of an already-processed event is harmless here anyway.
// Internal failures surface as success=false in the body and in the logs,
// never as an error status.
func (h *Handler) Postback(c *fiber.Ctx) error {
	req := service.PostbackRequest{
		ClickID:              postbackParam(c, "click_id", "clickid", "sub_id"),
		ExternalConversionID: postbackParam(c, "conversion_id", "external_id", "transaction_id"),
		Status:               postbackParam(c, "status", "approval_status"),
		ConversionType:       postbackParam(c, "type", "goal"),
		PartnerOfferID:       postbackParam(c, "offer_id"),
		PartnerUserID:        postbackParam(c, "user_id", "aff_sub"),
		Raw:                  rawPayload(c),
	}
	req.Payout, _ = strconv.ParseFloat(postbackParam(c, "payout", "amount", "sum"), 64)

	result := h.postbacks.HandlePostback(c.Context(), req)
	return c.JSON(result)
}

// postbackParam reads the first non-empty value among the given keys from
// the query string, a form body, or a JSON body.
func postbackParam(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(c.Query(key)); v != "" {
			return v
		}
	}
	if c.Method() != fiber.MethodPost {
		return ""
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body postbackPayload
		if err := c.BodyParser(&body); err != nil {
			return ""
		}
		fields := map[string]string{
			"click_id":        body.ClickID,
			"clickid":         body.ClickID,
			"sub_id":          body.ClickID,
			"conversion_id":   body.ConversionID,
			"external_id":     body.ConversionID,
			"transaction_id":  body.ConversionID,
			"status":          body.Status,
			"approval_status": body.Status,
			"type":            body.ConversionType,
			"goal":            body.ConversionType,
			"offer_id":        body.OfferID,
			"user_id":         body.UserID,
			"aff_sub":         body.UserID,
			"payout":          body.Payout,
			"amount":          body.Payout,
			"sum":             body.Payout,
		}
		for _, key := range keys {
			if v := strings.TrimSpace(fields[key]); v != "" {
				return v
			}
		}
		return ""
	}

	for _, key := range keys {
		if v := strings.TrimSpace(c.FormValue(key)); v != "" {
			return v
		}
	}
	return ""
}

// rawPayload keeps the original request verbatim for forensic replay.
func rawPayload(c *fiber.Ctx) string {
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		return string(c.Body())
	}
	return c.OriginalURL()
}
