package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/service"
)

// Track records an outbound click and redirects the user to the offer's
// destination. The redirect always proceeds, even when the click could not
// be persisted: a lost attribution beats a blocked user.
func (h *Handler) Track(c *fiber.Ctx) error {
	offerID, err := uuid.Parse(c.Params("offer_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid offer id",
		})
	}

	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	offer, err := h.offers.GetOffer(c.Context(), offerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "offer not found",
		})
	}
	if !offer.Active {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "offer is no longer active",
		})
	}

	meta := service.ClickContext{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
	}

	// error intentionally dropped: the service logged it and the click id
	// is still usable for the redirect
	click, _ := h.clicks.RecordClick(c.Context(), userID, offer, meta)

	return c.Redirect(destinationURL(offer.DestinationURL, click.ClickID), fiber.StatusFound)
}

// destinationURL substitutes the click id into the offer's tracking link.
// Offers without a placeholder get it appended as a query parameter.
func destinationURL(dest, clickID string) string {
	if strings.Contains(dest, "{click_id}") {
		return strings.ReplaceAll(dest, "{click_id}", clickID)
	}
	sep := "?"
	if strings.Contains(dest, "?") {
		sep = "&"
	}
	return dest + sep + "click_id=" + clickID
}
