package handler

import (
	"github.com/gofiber/fiber/v2"
)

type registerUserRequest struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
}

// RegisterUser upserts a user account. The optional referral_code links the
// new user to a referrer, which arms the referral reward paid on the user's
// first approved claim.
func (h *Handler) RegisterUser(c *fiber.Ctx) error {
	var req registerUserRequest
	if err := c.BodyParser(&req); err != nil || req.ID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user payload",
		})
	}

	user, err := h.users.Register(c.Context(), req.ID, req.Email, req.Name, req.ReferralCode)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": user,
	})
}
