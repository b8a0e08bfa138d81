package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/clickid"
	"github.com/cashloop/backend/internal/model"
	"github.com/cashloop/backend/internal/repository"
	"github.com/cashloop/backend/internal/service"
)

// DeleteConversion reverses an erroneous payout. The response reports
// whether a wallet reversal actually happened so the operator can tell a
// financial undo from a plain record cleanup.
func (h *Handler) DeleteConversion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid conversion id",
		})
	}

	walletReversed, err := h.admin.DeleteConversion(c.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrConversionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "conversion not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"deleted":         true,
		"wallet_reversed": walletReversed,
	})
}

func (h *Handler) DeleteClick(c *fiber.Ctx) error {
	clickID := c.Params("click_id")
	if !clickid.IsValid(clickID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid click id",
		})
	}

	if err := h.admin.DeleteClick(c.Context(), clickID); err != nil {
		if errors.Is(err, repository.ErrClickNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "click not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"deleted": true,
	})
}

func (h *Handler) GetClick(c *fiber.Ctx) error {
	clickID := c.Params("click_id")
	if !clickid.IsValid(clickID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid click id",
		})
	}

	click, err := h.admin.GetClick(c.Context(), clickID)
	if err != nil {
		if errors.Is(err, repository.ErrClickNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "click not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"click": click,
	})
}

type createOfferRequest struct {
	Title          string  `json:"title"`
	PartnerOfferID string  `json:"partner_offer_id"`
	DestinationURL string  `json:"destination_url"`
	Payout         float64 `json:"payout"`
	Active         *bool   `json:"active"`
}

func (h *Handler) CreateOffer(c *fiber.Ctx) error {
	var req createOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid offer payload",
		})
	}

	offer := &model.Offer{
		Title:          req.Title,
		DestinationURL: req.DestinationURL,
		Payout:         req.Payout,
		Active:         true,
	}
	if req.PartnerOfferID != "" {
		offer.PartnerOfferID = &req.PartnerOfferID
	}
	if req.Active != nil {
		offer.Active = *req.Active
	}

	if err := h.admin.CreateOffer(c.Context(), offer); err != nil {
		if errors.Is(err, service.ErrInvalidOffer) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"offer": offer,
	})
}

func (h *Handler) ListUserTransactions(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	transactions, err := h.admin.GetUserTransactions(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
	})
}

func (h *Handler) Resync(c *fiber.Ctx) error {
	report, err := h.admin.Resync(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}

	return c.JSON(report)
}

func (h *Handler) ListUnresolvedConversions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	conversions, err := h.admin.GetUnresolvedConversions(c.Context(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"conversions": conversions,
	})
}

func (h *Handler) ApproveClaim(c *fiber.Ctx) error {
	return h.resolveClaim(c, true)
}

func (h *Handler) RejectClaim(c *fiber.Ctx) error {
	return h.resolveClaim(c, false)
}

func (h *Handler) resolveClaim(c *fiber.Ctx, approve bool) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid claim id",
		})
	}

	var claim any
	if approve {
		claim, err = h.claims.ApproveClaim(c.Context(), id)
	} else {
		claim, err = h.claims.RejectClaim(c.Context(), id)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClaimNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "claim not found",
			})
		case errors.Is(err, service.ErrClaimNotPending):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "claim already resolved",
				"claim": claim,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"claim": claim,
	})
}
