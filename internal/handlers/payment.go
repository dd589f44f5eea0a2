package handlers

import (
	"github.com/assetshare/backend/internal/middleware"
	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	Payment *services.PaymentService
}

func NewPaymentHandler(payment *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payment: payment}
}

type initiatePaymentRequest struct {
	Amount float64 `json:"amount"`
}

type verifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session, paymentURL, err := h.Payment.Initiate(c.UserContext(), middleware.GetIdentity(c), req.Amount)
	if err != nil {
		return respondError(c, "payment_initiate_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"sessionId":  session.ID,
		"paymentUrl": paymentURL,
	})
}

func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := h.Payment.Verify(c.UserContext(), middleware.GetIdentity(c), req.SessionID)
	if err != nil {
		return respondError(c, "payment_verify_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Payment verified successfully",
		"session": session,
	})
}
