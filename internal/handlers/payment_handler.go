package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type paymentApplicationService interface {
	CreateSessionCheckout(ctx context.Context, clientID int64, sessionID int64, provider string) (*services.CheckoutResult, error)
	RefundSessionPayment(ctx context.Context, actorID int64, role string, sessionID int64, reason string) (*models.Payment, error)
	PaymentHistory(ctx context.Context, actorID int64, role string, limit int, offset int) ([]models.Payment, int, error)
	PaymentStats(ctx context.Context, actorID int64, role string, trainerID *int64) (*models.PaymentStats, error)
}

type PaymentHandler struct {
	service paymentApplicationService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createCheckoutRequest struct {
	SessionID int64  `json:"session_id"`
	Gateway   string `json:"gateway"`
}

type refundRequest struct {
	SessionID int64  `json:"session_id"`
	Reason    string `json:"reason"`
}

func (h *PaymentHandler) CreateCheckout(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	clientID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.SessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}
	if strings.TrimSpace(req.Gateway) == "" {
		req.Gateway = models.ProviderStripe
	}

	result, err := h.service.CreateSessionCheckout(c.Context(), clientID, req.SessionID, req.Gateway)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.SessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	payment, err := h.service.RefundSessionPayment(c.Context(), actorID, role, req.SessionID, strings.TrimSpace(req.Reason))
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"payment": payment})
}

func (h *PaymentHandler) PaymentHistory(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleClient) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	payments, total, err := h.service.PaymentHistory(c.Context(), actorID, role, limit, (page-1)*limit)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{
		"payments":   payments,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *PaymentHandler) PaymentStats(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var trainerID *int64
	if raw := strings.TrimSpace(c.Query("trainer_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer_id"})
		}
		trainerID = &parsed
	}

	stats, err := h.service.PaymentStats(c.Context(), actorID, role, trainerID)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

func mapPaymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session is held by another client"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gateway.ErrUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway unavailable"})
	case errors.Is(err, pgx.ErrNoRows):
		// Checkout surfaces this for a missing session, refund for a
		// missing completed payment.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session or payment not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payment request"})
	}
}
