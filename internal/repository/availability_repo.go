package repository

import (
	"context"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type CreateAvailabilityInput struct {
	TrainerID    int64
	DayOfWeek    *int
	SpecificDate *time.Time
	StartTime    string
	EndTime      string
	IsRecurring  bool
	IsAvailable  bool
}

type UpdateAvailabilityInput struct {
	StartTime   *string
	EndTime     *string
	IsRecurring *bool
	IsAvailable *bool
}

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, trainer_id, day_of_week, specific_date, start_time, end_time, is_recurring, is_available, created_at`

func (r *AvailabilityRepository) Create(
	ctx context.Context,
	input CreateAvailabilityInput,
) (*models.TrainerAvailability, error) {
	query := `
		INSERT INTO trainer_availability (trainer_id, day_of_week, specific_date, start_time, end_time, is_recurring, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + availabilityColumns

	var slot models.TrainerAvailability
	err := r.db.QueryRow(
		ctx,
		query,
		input.TrainerID,
		input.DayOfWeek,
		input.SpecificDate,
		input.StartTime,
		input.EndTime,
		input.IsRecurring,
		input.IsAvailable,
	).Scan(
		&slot.ID,
		&slot.TrainerID,
		&slot.DayOfWeek,
		&slot.SpecificDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsRecurring,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *AvailabilityRepository) GetByIDForTrainer(
	ctx context.Context,
	availabilityID int64,
	trainerID int64,
) (*models.TrainerAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM trainer_availability
		WHERE id = $1 AND trainer_id = $2
	`
	var slot models.TrainerAvailability
	err := r.db.QueryRow(ctx, query, availabilityID, trainerID).Scan(
		&slot.ID,
		&slot.TrainerID,
		&slot.DayOfWeek,
		&slot.SpecificDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsRecurring,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *AvailabilityRepository) ListByTrainer(
	ctx context.Context,
	trainerID int64,
) ([]models.TrainerAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM trainer_availability
		WHERE trainer_id = $1
		ORDER BY day_of_week ASC NULLS LAST, specific_date ASC NULLS LAST, start_time ASC
	`
	return r.list(ctx, query, trainerID)
}

// ListForDate returns the recurring rows matching the weekday plus any
// rows pinned to the exact date.
func (r *AvailabilityRepository) ListForDate(
	ctx context.Context,
	trainerID int64,
	date time.Time,
) ([]models.TrainerAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM trainer_availability
		WHERE trainer_id = $1
		  AND ((is_recurring AND day_of_week = $2) OR specific_date = $3::date)
		ORDER BY start_time ASC
	`
	return r.list(ctx, query, trainerID, int(date.Weekday()), date)
}

func (r *AvailabilityRepository) Update(
	ctx context.Context,
	availabilityID int64,
	input UpdateAvailabilityInput,
) (*models.TrainerAvailability, error) {
	query := `
		UPDATE trainer_availability
		SET start_time = COALESCE($2, start_time),
		    end_time = COALESCE($3, end_time),
		    is_recurring = COALESCE($4, is_recurring),
		    is_available = COALESCE($5, is_available)
		WHERE id = $1
		RETURNING ` + availabilityColumns

	var slot models.TrainerAvailability
	err := r.db.QueryRow(
		ctx,
		query,
		availabilityID,
		input.StartTime,
		input.EndTime,
		input.IsRecurring,
		input.IsAvailable,
	).Scan(
		&slot.ID,
		&slot.TrainerID,
		&slot.DayOfWeek,
		&slot.SpecificDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsRecurring,
		&slot.IsAvailable,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *AvailabilityRepository) Delete(ctx context.Context, availabilityID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM trainer_availability WHERE id = $1`, availabilityID)
	return err
}

func (r *AvailabilityRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]models.TrainerAvailability, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.TrainerAvailability, 0)
	for rows.Next() {
		var slot models.TrainerAvailability
		if err := rows.Scan(
			&slot.ID,
			&slot.TrainerID,
			&slot.DayOfWeek,
			&slot.SpecificDate,
			&slot.StartTime,
			&slot.EndTime,
			&slot.IsRecurring,
			&slot.IsAvailable,
			&slot.CreatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
