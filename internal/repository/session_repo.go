package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type CreateSessionInput struct {
	TrainerID       int64
	ClientID        *int64
	Title           string
	Description     *string
	SessionDate     time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
	SessionType     string
	Location        *string
	WorkoutPlanID   *int64
	Price           *float64
	Currency        string
}

type UpdateSessionInput struct {
	Title           *string
	Description     *string
	SessionDate     *time.Time
	StartTime       *string
	EndTime         *string
	DurationMinutes *int
	SessionType     *string
	Status          *string
	Location        *string
	Price           *float64
	Currency        *string
}

type SessionListFilter struct {
	ActorID int64
	Role    string
	Status  string
	From    *time.Time
	To      *time.Time
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, trainer_id, client_id, title, description, session_date, start_time, end_time,
		duration_min, session_type, status, location, workout_plan_id, price, currency, created_at, updated_at`

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.TrainingSession, error) {
	query := `
		INSERT INTO training_sessions
			(trainer_id, client_id, title, description, session_date, start_time, end_time,
			 duration_min, session_type, status, location, workout_plan_id, price, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'scheduled', $10, $11, $12, $13)
		RETURNING ` + sessionColumns

	return r.scanOne(r.db.QueryRow(
		ctx,
		query,
		input.TrainerID,
		input.ClientID,
		input.Title,
		input.Description,
		input.SessionDate,
		input.StartTime,
		input.EndTime,
		input.DurationMinutes,
		input.SessionType,
		input.Location,
		input.WorkoutPlanID,
		input.Price,
		input.Currency,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.TrainingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM training_sessions
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.TrainingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM training_sessions
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.TrainingSession, error) {
	actorColumn := "client_id"
	if filter.Role == models.RoleTrainer {
		actorColumn = "trainer_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		whereParts = append(whereParts, fmt.Sprintf("session_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		whereParts = append(whereParts, fmt.Sprintf("session_date <= $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT `+sessionColumns+`
		FROM training_sessions
		WHERE %s
		ORDER BY session_date ASC, start_time ASC, id ASC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.TrainingSession, 0)
	for rows.Next() {
		session, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// ListActiveForDate returns the non-cancelled sessions of a trainer on a
// date, the set slot discovery and conflict checks work against.
func (r *SessionRepository) ListActiveForDate(
	ctx context.Context,
	trainerID int64,
	date time.Time,
) ([]models.TrainingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM training_sessions
		WHERE trainer_id = $1
		  AND session_date = $2::date
		  AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
	rows, err := r.db.Query(ctx, query, trainerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.TrainingSession, 0)
	for rows.Next() {
		session, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// HasOverlap reports whether a non-cancelled session of the trainer on the
// date intersects [startTime, endTime). Times are zero-padded HH:MM so the
// text comparison orders correctly.
func (r *SessionRepository) HasOverlap(
	ctx context.Context,
	trainerID int64,
	date time.Time,
	startTime string,
	endTime string,
	excludedSessionID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM training_sessions
			WHERE trainer_id = $1
			  AND session_date = $2::date
			  AND id <> $5
			  AND status <> 'cancelled'
			  AND start_time < $4
			  AND end_time > $3
		)
	`
	var overlaps bool
	if err := r.db.QueryRow(ctx, query, trainerID, date, startTime, endTime, excludedSessionID).Scan(&overlaps); err != nil {
		return false, err
	}
	return overlaps, nil
}

func (r *SessionRepository) Update(
	ctx context.Context,
	sessionID int64,
	input UpdateSessionInput,
) (*models.TrainingSession, error) {
	query := `
		UPDATE training_sessions
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    session_date = COALESCE($4, session_date),
		    start_time = COALESCE($5, start_time),
		    end_time = COALESCE($6, end_time),
		    duration_min = COALESCE($7, duration_min),
		    session_type = COALESCE($8, session_type),
		    status = COALESCE($9, status),
		    location = COALESCE($10, location),
		    price = COALESCE($11, price),
		    currency = COALESCE($12, currency),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns

	return r.scanOne(r.db.QueryRow(
		ctx,
		query,
		sessionID,
		input.Title,
		input.Description,
		input.SessionDate,
		input.StartTime,
		input.EndTime,
		input.DurationMinutes,
		input.SessionType,
		input.Status,
		input.Location,
		input.Price,
		input.Currency,
	))
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.TrainingSession, error) {
	query := `
		UPDATE training_sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns

	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) AssignClientIfUnset(
	ctx context.Context,
	sessionID int64,
	clientID int64,
) (bool, error) {
	query := `
		UPDATE training_sessions
		SET client_id = $2, updated_at = NOW()
		WHERE id = $1 AND client_id IS NULL
	`
	tag, err := r.db.Exec(ctx, query, sessionID, clientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) ReleaseClient(
	ctx context.Context,
	sessionID int64,
	clientID int64,
) error {
	query := `
		UPDATE training_sessions
		SET client_id = NULL, updated_at = NOW()
		WHERE id = $1 AND client_id = $2
	`
	_, err := r.db.Exec(ctx, query, sessionID, clientID)
	return err
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM training_sessions WHERE id = $1`, sessionID)
	return err
}

func (r *SessionRepository) StatsByTrainer(
	ctx context.Context,
	trainerID *int64,
) (*models.SessionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE s.status = 'scheduled'),
			COUNT(*) FILTER (WHERE s.status = 'completed'),
			COUNT(*) FILTER (WHERE s.status = 'cancelled'),
			COUNT(b.id) FILTER (WHERE b.status = 'pending'),
			COUNT(b.id) FILTER (WHERE b.status = 'confirmed')
		FROM training_sessions s
		LEFT JOIN session_bookings b ON b.session_id = s.id
		WHERE $1::bigint IS NULL OR s.trainer_id = $1
	`
	var stats models.SessionStats
	err := r.db.QueryRow(ctx, query, trainerID).Scan(
		&stats.TotalSessions,
		&stats.ScheduledSessions,
		&stats.CompletedSessions,
		&stats.CancelledSessions,
		&stats.PendingBookings,
		&stats.ConfirmedBookings,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *SessionRepository) scanOne(row interface{ Scan(dest ...any) error }) (*models.TrainingSession, error) {
	var session models.TrainingSession
	err := row.Scan(
		&session.ID,
		&session.TrainerID,
		&session.ClientID,
		&session.Title,
		&session.Description,
		&session.SessionDate,
		&session.StartTime,
		&session.EndTime,
		&session.DurationMinutes,
		&session.SessionType,
		&session.Status,
		&session.Location,
		&session.WorkoutPlanID,
		&session.Price,
		&session.Currency,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
