package services

import (
	"context"
	"testing"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type stubTrainerSource struct {
	trainers []models.User
	windows  map[int64][]models.TrainerAvailability
}

func (s *stubTrainerSource) ListActiveTrainers(_ context.Context) ([]models.User, error) {
	return s.trainers, nil
}

func (s *stubTrainerSource) ListByTrainer(_ context.Context, trainerID int64) ([]models.TrainerAvailability, error) {
	return s.windows[trainerID], nil
}

func (s *stubTrainerSource) ListForDate(_ context.Context, trainerID int64, _ time.Time) ([]models.TrainerAvailability, error) {
	return s.windows[trainerID], nil
}

func buildTrainer(id int64, firstName string) models.User {
	return models.User{ID: id, FirstName: firstName, LastName: "Test", Role: models.RoleTrainer, IsActive: true}
}

func TestSearchTrainersRanksCoveringWindowFirst(t *testing.T) {
	source := &stubTrainerSource{
		trainers: []models.User{buildTrainer(1, "Full"), buildTrainer(2, "Partial"), buildTrainer(3, "Closed")},
		windows: map[int64][]models.TrainerAvailability{
			1: {{ID: 10, TrainerID: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true}},
			2: {{ID: 20, TrainerID: 2, StartTime: "10:30", EndTime: "12:00", IsAvailable: true}},
			3: {{ID: 30, TrainerID: 3, StartTime: "08:00", EndTime: "12:00", IsAvailable: false}},
		},
	}
	service := NewTrainerSearchService(source, source)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	results, err := service.SearchTrainers(context.Background(), TrainerSearchQuery{
		Date:      &date,
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	if err != nil {
		t.Fatalf("SearchTrainers: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 trainers, got %d", len(results))
	}
	if results[0].ID != 1 {
		t.Fatalf("expected trainer 1 with a covering window first, got %d", results[0].ID)
	}
	if results[1].ID != 2 {
		t.Fatalf("expected trainer 2 with a partial window second, got %d", results[1].ID)
	}
}

func TestSearchTrainersWithoutTimesRanksByOpenMinutes(t *testing.T) {
	source := &stubTrainerSource{
		trainers: []models.User{buildTrainer(1, "Short"), buildTrainer(2, "Long")},
		windows: map[int64][]models.TrainerAvailability{
			1: {{ID: 10, TrainerID: 1, StartTime: "09:00", EndTime: "10:00", IsAvailable: true}},
			2: {
				{ID: 20, TrainerID: 2, StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
				{ID: 21, TrainerID: 2, StartTime: "14:00", EndTime: "18:00", IsAvailable: true},
			},
		},
	}
	service := NewTrainerSearchService(source, source)

	results, err := service.SearchTrainers(context.Background(), TrainerSearchQuery{})
	if err != nil {
		t.Fatalf("SearchTrainers: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 trainers, got %d", len(results))
	}
	if results[0].ID != 2 {
		t.Fatalf("expected trainer 2 with more open minutes first, got %d", results[0].ID)
	}
}

func TestSearchTrainersRejectsHalfOpenTimeRange(t *testing.T) {
	source := &stubTrainerSource{}
	service := NewTrainerSearchService(source, source)

	if _, err := service.SearchTrainers(context.Background(), TrainerSearchQuery{StartTime: "10:00"}); err == nil {
		t.Fatal("expected error when only start_time is given")
	}
}

func TestSearchTrainersAppliesLimit(t *testing.T) {
	source := &stubTrainerSource{
		trainers: []models.User{buildTrainer(1, "A"), buildTrainer(2, "B"), buildTrainer(3, "C")},
		windows: map[int64][]models.TrainerAvailability{
			1: {{ID: 10, TrainerID: 1, StartTime: "09:00", EndTime: "10:00", IsAvailable: true}},
			2: {{ID: 20, TrainerID: 2, StartTime: "09:00", EndTime: "10:00", IsAvailable: true}},
			3: {{ID: 30, TrainerID: 3, StartTime: "09:00", EndTime: "10:00", IsAvailable: true}},
		},
	}
	service := NewTrainerSearchService(source, source)

	results, err := service.SearchTrainers(context.Background(), TrainerSearchQuery{Limit: 2})
	if err != nil {
		t.Fatalf("SearchTrainers: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit of 2 trainers, got %d", len(results))
	}
}
