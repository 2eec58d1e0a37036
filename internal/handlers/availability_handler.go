package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type availabilityApplicationService interface {
	CreateSlot(ctx context.Context, trainerID int64, input services.AvailabilitySlotInput) (*models.TrainerAvailability, error)
	ListSlots(ctx context.Context, trainerID int64, date *time.Time) ([]models.TrainerAvailability, error)
	UpdateSlot(ctx context.Context, trainerID int64, slotID int64, input repository.UpdateAvailabilityInput) (*models.TrainerAvailability, error)
	DeleteSlot(ctx context.Context, trainerID int64, slotID int64) error
}

type AvailabilityHandler struct {
	service availabilityApplicationService
}

func NewAvailabilityHandler(service *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

type createAvailabilityRequest struct {
	DayOfWeek    *int    `json:"day_of_week"`
	SpecificDate *string `json:"specific_date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	IsAvailable  *bool   `json:"is_available"`
}

type updateAvailabilityRequest struct {
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	IsAvailable *bool   `json:"is_available"`
}

func (h *AvailabilityHandler) CreateSlot(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}

	var req createAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var specificDate *time.Time
	if req.SpecificDate != nil {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.SpecificDate))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "specific_date must be YYYY-MM-DD"})
		}
		specificDate = &parsed
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	slot, err := h.service.CreateSlot(c.Context(), trainerID, services.AvailabilitySlotInput{
		DayOfWeek:    req.DayOfWeek,
		SpecificDate: specificDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsAvailable:  isAvailable,
	})
	if err != nil {
		return mapAvailabilityError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"availability": slot})
}

func (h *AvailabilityHandler) ListSlots(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}

	var date *time.Time
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}
		date = &parsed
	}

	slots, err := h.service.ListSlots(c.Context(), trainerID, date)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"availability": slots})
}

func (h *AvailabilityHandler) UpdateSlot(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}
	slotID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid availability id"})
	}

	var req updateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	slot, err := h.service.UpdateSlot(c.Context(), trainerID, slotID, repository.UpdateAvailabilityInput{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"availability": slot})
}

func (h *AvailabilityHandler) DeleteSlot(c *fiber.Ctx) error {
	trainerID, ok := requireTrainer(c)
	if !ok {
		return nil
	}
	slotID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid availability id"})
	}

	if err := h.service.DeleteSlot(c.Context(), trainerID, slotID); err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// requireTrainer writes the rejection response itself; callers return
// nil when ok is false.
func requireTrainer(c *fiber.Ctx) (int64, bool) {
	role, ok := parseRole(c)
	if !ok || role != models.RoleTrainer {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, false
	}
	trainerID, err := parseUserID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, false
	}
	return trainerID, true
}

func mapAvailabilityError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability slot not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process availability request"})
	}
}
