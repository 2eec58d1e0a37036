package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type subscriptionApplicationService interface {
	CreateSubscription(ctx context.Context, trainerID int64, planID string, paymentMethodID string) (*services.SubscriptionCheckout, error)
	GetMySubscription(ctx context.Context, trainerID int64) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, trainerID int64, immediately bool) (*models.Subscription, error)
}

type SubscriptionHandler struct {
	service subscriptionApplicationService
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

type createSubscriptionRequest struct {
	PlanID          string `json:"plan_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

type cancelSubscriptionRequest struct {
	Immediately bool `json:"immediately"`
}

func (h *SubscriptionHandler) CreateSubscription(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}

	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	checkout, err := h.service.CreateSubscription(c.Context(), trainerID, req.PlanID, req.PaymentMethodID)
	if err != nil {
		return mapSubscriptionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(checkout)
}

func (h *SubscriptionHandler) GetMySubscription(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}

	subscription, err := h.service.GetMySubscription(c.Context(), trainerID)
	if err != nil {
		return mapSubscriptionError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": subscription})
}

func (h *SubscriptionHandler) CancelSubscription(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}

	// Body is optional; default is cancellation at period end.
	var req cancelSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		req = cancelSubscriptionRequest{}
	}

	subscription, err := h.service.CancelSubscription(c.Context(), trainerID, req.Immediately)
	if err != nil {
		return mapSubscriptionError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": subscription})
}

func mapSubscriptionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Trainer already has a subscription"})
	case errors.Is(err, gateway.ErrUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Billing provider unavailable"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process subscription request"})
	}
}
