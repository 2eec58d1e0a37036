package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type callbackApplicationService interface {
	HandleCallback(ctx context.Context, provider string, payload []byte, signature string) (*services.ReconcileOutcome, error)
}

// WebhookHandler receives the unauthenticated gateway callbacks. The
// signature check inside the gateway is the only authentication these
// endpoints have.
type WebhookHandler struct {
	service callbackApplicationService
}

func NewWebhookHandler(service *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

func (h *WebhookHandler) StripeWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	outcome, err := h.service.HandleCallback(c.Context(), models.ProviderStripe, c.Body(), signature)
	if err != nil {
		return mapWebhookError(c, err)
	}
	return c.JSON(outcome)
}

// LiqPayCallback handles the form-encoded server_url notification:
// "data" carries the base64 payload, "signature" its signature.
func (h *WebhookHandler) LiqPayCallback(c *fiber.Ctx) error {
	data := c.FormValue("data")
	signature := c.FormValue("signature")
	if data == "" || signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "data and signature are required"})
	}

	outcome, err := h.service.HandleCallback(c.Context(), models.ProviderLiqPay, []byte(data), signature)
	if err != nil {
		return mapWebhookError(c, err)
	}
	return c.JSON(outcome)
}

func mapWebhookError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gateway.ErrBadSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		// Non-2xx tells the gateway to redeliver; the stored event
		// row allows the retry to be processed.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
	}
}
