package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type trainerLister interface {
	ListActiveTrainers(ctx context.Context) ([]models.User, error)
}

type availabilityReader interface {
	ListByTrainer(ctx context.Context, trainerID int64) ([]models.TrainerAvailability, error)
	ListForDate(ctx context.Context, trainerID int64, date time.Time) ([]models.TrainerAvailability, error)
}

type TrainerSearchService struct {
	userRepo         trainerLister
	availabilityRepo availabilityReader
}

func NewTrainerSearchService(
	userRepo trainerLister,
	availabilityRepo availabilityReader,
) *TrainerSearchService {
	return &TrainerSearchService{
		userRepo:         userRepo,
		availabilityRepo: availabilityRepo,
	}
}

type TrainerSearchQuery struct {
	Date      *time.Time
	StartTime string
	EndTime   string
	Limit     int
}

// SearchTrainers ranks active trainers by how well their open windows
// fit the requested date and time range. Without a date the ranking
// falls back to total weekly open minutes.
func (s *TrainerSearchService) SearchTrainers(
	ctx context.Context,
	query TrainerSearchQuery,
) ([]models.TrainerSearchResult, error) {
	startTime := ""
	endTime := ""
	if query.StartTime != "" || query.EndTime != "" {
		if query.StartTime == "" || query.EndTime == "" {
			return nil, fmt.Errorf("%w: start_time and end_time must be provided together", ErrInvalidInput)
		}
		var err error
		if startTime, err = normalizeTime(query.StartTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if endTime, err = normalizeTime(query.EndTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if _, err := durationMinutes(startTime, endTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	trainers, err := s.userRepo.ListActiveTrainers(ctx)
	if err != nil {
		return nil, err
	}

	type scoredResult struct {
		result models.TrainerSearchResult
		score  int
	}

	scored := make([]scoredResult, 0, len(trainers))
	for _, trainer := range trainers {
		var windows []models.TrainerAvailability
		if query.Date != nil {
			windows, err = s.availabilityRepo.ListForDate(ctx, trainer.ID, *query.Date)
		} else {
			windows, err = s.availabilityRepo.ListByTrainer(ctx, trainer.ID)
		}
		if err != nil {
			return nil, err
		}

		open := openWindows(windows)
		score := scoreAvailability(open, startTime, endTime)
		if score == 0 {
			continue
		}
		scored = append(scored, scoredResult{
			result: models.TrainerSearchResult{
				ID:           trainer.ID,
				FirstName:    trainer.FirstName,
				LastName:     trainer.LastName,
				Email:        trainer.Email,
				Availability: open,
			},
			score: score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score == scored[j].score {
			return totalOpenMinutes(scored[i].result.Availability) > totalOpenMinutes(scored[j].result.Availability)
		}
		return scored[i].score > scored[j].score
	})

	if query.Limit > 0 && len(scored) > query.Limit {
		scored = scored[:query.Limit]
	}

	results := make([]models.TrainerSearchResult, 0, len(scored))
	for _, entry := range scored {
		results = append(results, entry.result)
	}
	return results, nil
}

func openWindows(windows []models.TrainerAvailability) []models.TrainerAvailability {
	open := make([]models.TrainerAvailability, 0, len(windows))
	for _, window := range windows {
		if window.IsAvailable {
			open = append(open, window)
		}
	}
	return open
}

func scoreAvailability(open []models.TrainerAvailability, startTime, endTime string) int {
	if len(open) == 0 {
		return 0
	}
	if startTime == "" {
		return 40
	}

	best := 0
	for _, window := range open {
		switch {
		case timeToMinutes(window.StartTime) <= timeToMinutes(startTime) &&
			timeToMinutes(window.EndTime) >= timeToMinutes(endTime):
			return 100
		case rangesOverlap(window.StartTime, window.EndTime, startTime, endTime):
			if best < 60 {
				best = 60
			}
		}
	}
	return best
}

func totalOpenMinutes(windows []models.TrainerAvailability) int {
	total := 0
	for _, window := range windows {
		total += timeToMinutes(window.EndTime) - timeToMinutes(window.StartTime)
	}
	return total
}
