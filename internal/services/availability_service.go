package services

import (
	"context"
	"fmt"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
)

type sessionDayLister interface {
	ListActiveForDate(ctx context.Context, trainerID int64, date time.Time) ([]models.TrainingSession, error)
}

type AvailabilityService struct {
	availabilityRepo *repository.AvailabilityRepository
	sessionRepo      sessionDayLister
}

func NewAvailabilityService(
	availabilityRepo *repository.AvailabilityRepository,
	sessionRepo sessionDayLister,
) *AvailabilityService {
	return &AvailabilityService{
		availabilityRepo: availabilityRepo,
		sessionRepo:      sessionRepo,
	}
}

type AvailabilitySlotInput struct {
	DayOfWeek    *int
	SpecificDate *time.Time
	StartTime    string
	EndTime      string
	IsAvailable  bool
}

func (s *AvailabilityService) CreateSlot(
	ctx context.Context,
	trainerID int64,
	input AvailabilitySlotInput,
) (*models.TrainerAvailability, error) {
	if input.DayOfWeek == nil && input.SpecificDate == nil {
		return nil, fmt.Errorf("%w: either day_of_week or specific_date is required", ErrInvalidInput)
	}
	if input.DayOfWeek != nil && (*input.DayOfWeek < 0 || *input.DayOfWeek > 6) {
		return nil, fmt.Errorf("%w: day_of_week must be between 0 and 6", ErrInvalidInput)
	}

	startTime, err := normalizeTime(input.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	endTime, err := normalizeTime(input.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := durationMinutes(startTime, endTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := s.availabilityRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for _, slot := range existing {
		if !coversSameDay(&slot, input.DayOfWeek, input.SpecificDate) {
			continue
		}
		if slot.StartTime == startTime {
			return nil, fmt.Errorf("%w: a slot already starts at %s", ErrConflict, startTime)
		}
		if rangesOverlap(slot.StartTime, slot.EndTime, startTime, endTime) &&
			slot.IsAvailable != input.IsAvailable {
			return nil, fmt.Errorf("%w: overlaps slot %d with opposite availability", ErrConflict, slot.ID)
		}
	}

	return s.availabilityRepo.Create(ctx, repository.CreateAvailabilityInput{
		TrainerID:    trainerID,
		DayOfWeek:    input.DayOfWeek,
		SpecificDate: input.SpecificDate,
		StartTime:    startTime,
		EndTime:      endTime,
		IsRecurring:  input.DayOfWeek != nil,
		IsAvailable:  input.IsAvailable,
	})
}

func (s *AvailabilityService) ListSlots(
	ctx context.Context,
	trainerID int64,
	date *time.Time,
) ([]models.TrainerAvailability, error) {
	if date != nil {
		return s.availabilityRepo.ListForDate(ctx, trainerID, *date)
	}
	return s.availabilityRepo.ListByTrainer(ctx, trainerID)
}

func (s *AvailabilityService) UpdateSlot(
	ctx context.Context,
	trainerID int64,
	slotID int64,
	input repository.UpdateAvailabilityInput,
) (*models.TrainerAvailability, error) {
	current, err := s.availabilityRepo.GetByIDForTrainer(ctx, slotID, trainerID)
	if err != nil {
		return nil, err
	}

	startTime := current.StartTime
	if input.StartTime != nil {
		if startTime, err = normalizeTime(*input.StartTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		input.StartTime = &startTime
	}
	endTime := current.EndTime
	if input.EndTime != nil {
		if endTime, err = normalizeTime(*input.EndTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		input.EndTime = &endTime
	}
	if _, err := durationMinutes(startTime, endTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	available := current.IsAvailable
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}

	existing, err := s.availabilityRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for _, slot := range existing {
		if slot.ID == current.ID || !coversSameDay(&slot, current.DayOfWeek, current.SpecificDate) {
			continue
		}
		if slot.StartTime == startTime {
			return nil, fmt.Errorf("%w: a slot already starts at %s", ErrConflict, startTime)
		}
		if rangesOverlap(slot.StartTime, slot.EndTime, startTime, endTime) &&
			slot.IsAvailable != available {
			return nil, fmt.Errorf("%w: overlaps slot %d with opposite availability", ErrConflict, slot.ID)
		}
	}

	return s.availabilityRepo.Update(ctx, slotID, input)
}

func (s *AvailabilityService) DeleteSlot(ctx context.Context, trainerID int64, slotID int64) error {
	if _, err := s.availabilityRepo.GetByIDForTrainer(ctx, slotID, trainerID); err != nil {
		return err
	}
	return s.availabilityRepo.Delete(ctx, slotID)
}

// GetAvailableSlots returns the trainer's open windows for a date with
// the sessions already occupying parts of them.
func (s *AvailabilityService) GetAvailableSlots(
	ctx context.Context,
	trainerID int64,
	date time.Time,
) ([]models.AvailableSlot, error) {
	windows, err := s.availabilityRepo.ListForDate(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.ListActiveForDate(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}
	return buildSlots(windows, sessions), nil
}

func coversSameDay(slot *models.TrainerAvailability, dayOfWeek *int, specificDate *time.Time) bool {
	if dayOfWeek != nil {
		return slot.DayOfWeek != nil && *slot.DayOfWeek == *dayOfWeek
	}
	if specificDate != nil && slot.SpecificDate != nil {
		y1, m1, d1 := slot.SpecificDate.Date()
		y2, m2, d2 := specificDate.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return false
}
