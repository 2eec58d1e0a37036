package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type trainerSearchApplicationService interface {
	SearchTrainers(ctx context.Context, query services.TrainerSearchQuery) ([]models.TrainerSearchResult, error)
}

type slotApplicationService interface {
	GetAvailableSlots(ctx context.Context, trainerID int64, date time.Time) ([]models.AvailableSlot, error)
}

type TrainerHandler struct {
	searchService trainerSearchApplicationService
	slotService   slotApplicationService
}

func NewTrainerHandler(
	searchService *services.TrainerSearchService,
	slotService *services.AvailabilityService,
) *TrainerHandler {
	return &TrainerHandler{
		searchService: searchService,
		slotService:   slotService,
	}
}

func (h *TrainerHandler) SearchTrainers(c *fiber.Ctx) error {
	query := services.TrainerSearchQuery{
		StartTime: strings.TrimSpace(c.Query("start_time")),
		EndTime:   strings.TrimSpace(c.Query("end_time")),
	}

	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}
		query.Date = &parsed
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		query.Limit = limit
	}

	results, err := h.searchService.SearchTrainers(c.Context(), query)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"trainers": results})
}

func (h *TrainerHandler) GetTrainerSlots(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date query parameter is required"})
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	slots, err := h.slotService.GetAvailableSlots(c.Context(), trainerID, date)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}
