package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type sessionApplicationService interface {
	CreateSession(ctx context.Context, actorID int64, role string, input services.CreateTrainingSessionInput) (*models.TrainingSession, error)
	GetSession(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionDetail, error)
	ListSessions(ctx context.Context, actorID int64, role string, filter repository.SessionListFilter) ([]models.SessionDetail, error)
	UpdateSession(ctx context.Context, actorID int64, role string, sessionID int64, input repository.UpdateSessionInput) (*models.SessionDetail, error)
	DeleteSession(ctx context.Context, actorID int64, role string, sessionID int64) error
	SessionStats(ctx context.Context, actorID int64, role string, trainerID *int64) (*models.SessionStats, error)
}

type SessionHandler struct {
	service sessionApplicationService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	TrainerID   *int64   `json:"trainer_id"`
	ClientID    *int64   `json:"client_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	SessionDate string   `json:"session_date"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	SessionType string   `json:"session_type"`
	Location    *string  `json:"location"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency"`
}

type updateSessionRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	SessionDate *string  `json:"session_date"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	SessionType *string  `json:"session_type"`
	Status      *string  `json:"status"`
	Location    *string  `json:"location"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	sessionDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.SessionDate))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_date must be YYYY-MM-DD"})
	}

	session, err := h.service.CreateSession(c.Context(), actorID, role, services.CreateTrainingSessionInput{
		TrainerID:   req.TrainerID,
		ClientID:    req.ClientID,
		Title:       req.Title,
		Description: req.Description,
		SessionDate: sessionDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: req.SessionType,
		Location:    req.Location,
		Price:       req.Price,
		Currency:    req.Currency,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleClient) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	filter := repository.SessionListFilter{Status: strings.TrimSpace(c.Query("status"))}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from must be YYYY-MM-DD"})
		}
		filter.From = &parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "to must be YYYY-MM-DD"})
		}
		filter.To = &parsed
	}

	sessions, err := h.service.ListSessions(c.Context(), actorID, role, filter)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := repository.UpdateSessionInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: req.SessionType,
		Status:      req.Status,
		Location:    req.Location,
		Price:       req.Price,
		Currency:    req.Currency,
	}
	if req.SessionDate != nil {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.SessionDate))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_date must be YYYY-MM-DD"})
		}
		input.SessionDate = &parsed
	}

	session, err := h.service.UpdateSession(c.Context(), actorID, role, sessionID, input)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || (role != models.RoleTrainer && role != models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	actorID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if err := h.service.DeleteSession(c.Context(), actorID, role, sessionID); err != nil {
		return mapSessionError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) SessionStats(c *fiber.Ctx) error {
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

	stats, err := h.service.SessionStats(c.Context(), actorID, role, trainerID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Requested time conflicts with another session"})
	case errors.Is(err, services.ErrTrainerUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTrainerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trainer not found"})
	case errors.Is(err, services.ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Client not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
