package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type bookingApplicationService interface {
	BookSession(ctx context.Context, clientID int64, sessionID int64, message *string) (*models.SessionBooking, error)
	GetBooking(ctx context.Context, actorID int64, role string, bookingID int64) (*models.SessionBooking, error)
	ConfirmBooking(ctx context.Context, trainerID int64, bookingID int64, response *string) (*models.SessionBooking, error)
	CancelBooking(ctx context.Context, actorID int64, role string, bookingID int64, reason *string) (*models.SessionBooking, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type bookSessionRequest struct {
	SessionID int64   `json:"session_id"`
	Message   *string `json:"message"`
}

type confirmBookingRequest struct {
	Response *string `json:"response"`
}

type cancelBookingRequest struct {
	Reason *string `json:"reason"`
}

func (h *BookingHandler) BookSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	clientID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.SessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}
	if req.Message != nil && strings.TrimSpace(*req.Message) == "" {
		req.Message = nil
	}

	booking, err := h.service.BookSession(c.Context(), clientID, req.SessionID, req.Message)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	bookingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := h.service.GetBooking(c.Context(), actorID, role, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) ConfirmBooking(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleTrainer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	trainerID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	bookingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	// Body is optional on confirm.
	var req confirmBookingRequest
	if err := c.BodyParser(&req); err != nil {
		req = confirmBookingRequest{}
	}

	booking, err := h.service.ConfirmBooking(c.Context(), trainerID, bookingID, req.Response)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	bookingID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req cancelBookingRequest
	if err := c.BodyParser(&req); err != nil {
		req = cancelBookingRequest{}
	}

	booking, err := h.service.CancelBooking(c.Context(), actorID, role, bookingID, req.Reason)
	if err != nil {
		return mapBookingError(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session is already booked"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
