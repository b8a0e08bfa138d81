package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cashloop/backend/internal/repository"
)

type submitClaimRequest struct {
	UserID  int64  `json:"user_id"`
	OfferID string `json:"offer_id"`
}

// SubmitClaim files a cashback claim for manual review.
func (h *Handler) SubmitClaim(c *fiber.Ctx) error {
	var req submitClaimRequest
	if err := c.BodyParser(&req); err != nil || req.UserID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid claim payload",
		})
	}
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid offer id",
		})
	}

	claim, err := h.claims.SubmitClaim(c.Context(), req.UserID, offerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		case errors.Is(err, repository.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "offer not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"claim": claim,
	})
}
