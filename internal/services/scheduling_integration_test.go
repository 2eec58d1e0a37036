package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
)

func TestCreateSessionRejectsOverlapOnSameDay(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	trainerID := createTestAccount(t, ctx, pool, models.RoleTrainer)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, trainerID) })

	date := time.Date(2030, 6, 24, 0, 0, 0, 0, time.UTC)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	if _, err := availabilityRepo.Create(ctx, repository.CreateAvailabilityInput{
		TrainerID:    trainerID,
		SpecificDate: &date,
		StartTime:    "08:00",
		EndTime:      "18:00",
		IsAvailable:  true,
	}); err != nil {
		t.Fatalf("create availability: %v", err)
	}

	sessionService := NewSessionService(
		pool,
		repository.NewSessionRepository(pool),
		repository.NewBookingRepository(pool),
		repository.NewPaymentRepository(pool),
		repository.NewUserRepository(pool),
		availabilityRepo,
	)

	if _, err := sessionService.CreateSession(ctx, trainerID, models.RoleTrainer, CreateTrainingSessionInput{
		Title:       "Strength block",
		SessionDate: date,
		StartTime:   "10:00",
		EndTime:     "11:00",
	}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := sessionService.CreateSession(ctx, trainerID, models.RoleTrainer, CreateTrainingSessionInput{
		Title:       "Overlapping block",
		SessionDate: date,
		StartTime:   "10:30",
		EndTime:     "11:30",
	}); err != ErrConflict {
		t.Fatalf("expected ErrConflict for 10:30-11:30 against 10:00-11:00, got %v", err)
	}

	// Touching edges do not overlap.
	if _, err := sessionService.CreateSession(ctx, trainerID, models.RoleTrainer, CreateTrainingSessionInput{
		Title:       "Back to back",
		SessionDate: date,
		StartTime:   "11:00",
		EndTime:     "12:00",
	}); err != nil {
		t.Fatalf("expected 11:00-12:00 to fit after 10:00-11:00, got %v", err)
	}

	if _, err := sessionService.CreateSession(ctx, trainerID, models.RoleTrainer, CreateTrainingSessionInput{
		Title:       "After hours",
		SessionDate: date,
		StartTime:   "18:30",
		EndTime:     "19:30",
	}); err != ErrTrainerUnavailable {
		t.Fatalf("expected ErrTrainerUnavailable outside the open window, got %v", err)
	}
}

func TestUpdateAvailabilityRejectsDuplicateStart(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	trainerID := createTestAccount(t, ctx, pool, models.RoleTrainer)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, trainerID) })

	availabilityService := NewAvailabilityService(
		repository.NewAvailabilityRepository(pool),
		repository.NewSessionRepository(pool),
	)

	day := 2
	if _, err := availabilityService.CreateSlot(ctx, trainerID, AvailabilitySlotInput{
		DayOfWeek:   &day,
		StartTime:   "09:00",
		EndTime:     "10:00",
		IsAvailable: true,
	}); err != nil {
		t.Fatalf("create first slot: %v", err)
	}
	second, err := availabilityService.CreateSlot(ctx, trainerID, AvailabilitySlotInput{
		DayOfWeek:   &day,
		StartTime:   "12:00",
		EndTime:     "13:00",
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("create second slot: %v", err)
	}

	duplicateStart := "09:00"
	if _, err := availabilityService.UpdateSlot(ctx, trainerID, second.ID, repository.UpdateAvailabilityInput{
		StartTime: &duplicateStart,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict moving the slot onto an existing start, got %v", err)
	}

	newStart := "11:00"
	updated, err := availabilityService.UpdateSlot(ctx, trainerID, second.ID, repository.UpdateAvailabilityInput{
		StartTime: &newStart,
	})
	if err != nil {
		t.Fatalf("UpdateSlot: %v", err)
	}
	if updated.StartTime != "11:00" {
		t.Fatalf("expected start 11:00, got %q", updated.StartTime)
	}
}
