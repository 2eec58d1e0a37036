package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrTrainerNotFound        = errors.New("trainer not found")
	ErrClientNotFound         = errors.New("client not found")
	ErrTrainerUnavailable     = errors.New("trainer has no availability for the requested time")
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type availabilityDayLister interface {
	ListForDate(ctx context.Context, trainerID int64, date time.Time) ([]models.TrainerAvailability, error)
}

type SessionService struct {
	db               *pgxpool.Pool
	sessionRepo      *repository.SessionRepository
	bookingRepo      *repository.BookingRepository
	paymentRepo      *repository.PaymentRepository
	userRepo         userReader
	availabilityRepo availabilityDayLister
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	userRepo userReader,
	availabilityRepo availabilityDayLister,
) *SessionService {
	return &SessionService{
		db:               db,
		sessionRepo:      sessionRepo,
		bookingRepo:      bookingRepo,
		paymentRepo:      paymentRepo,
		userRepo:         userRepo,
		availabilityRepo: availabilityRepo,
	}
}

type CreateTrainingSessionInput struct {
	TrainerID     *int64
	ClientID      *int64
	Title         string
	Description   *string
	SessionDate   time.Time
	StartTime     string
	EndTime       string
	SessionType   string
	Location      *string
	WorkoutPlanID *int64
	Price         *float64
	Currency      string
}

func (s *SessionService) CreateSession(
	ctx context.Context,
	actorID int64,
	role string,
	input CreateTrainingSessionInput,
) (*models.TrainingSession, error) {
	var trainerID int64
	switch role {
	case models.RoleTrainer:
		trainerID = actorID
	case models.RoleAdmin:
		if input.TrainerID == nil {
			return nil, fmt.Errorf("%w: trainer_id is required", ErrInvalidInput)
		}
		trainerID = *input.TrainerID
	default:
		return nil, ErrForbidden
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	startTime, err := normalizeTime(input.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	endTime, err := normalizeTime(input.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	duration, err := durationMinutes(startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sessionType, err := normalizeSessionType(input.SessionType)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if trainer.Role != models.RoleTrainer {
		return nil, ErrTrainerNotFound
	}

	if input.ClientID != nil {
		client, err := s.userRepo.GetByID(ctx, *input.ClientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrClientNotFound
			}
			return nil, err
		}
		if client.Role != models.RoleClient {
			return nil, ErrClientNotFound
		}
	}

	windows, err := s.availabilityRepo.ListForDate(ctx, trainerID, input.SessionDate)
	if err != nil {
		return nil, err
	}
	if !withinOpenWindow(windows, startTime, endTime) {
		return nil, ErrTrainerUnavailable
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", trainerID); err != nil {
		return nil, err
	}

	overlaps, err := txSessionRepo.HasOverlap(ctx, trainerID, input.SessionDate, startTime, endTime, 0)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, ErrConflict
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		TrainerID:       trainerID,
		ClientID:        input.ClientID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		SessionDate:     input.SessionDate,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationMinutes: duration,
		SessionType:     sessionType,
		Location:        input.Location,
		WorkoutPlanID:   input.WorkoutPlanID,
		Price:           input.Price,
		Currency:        currency,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &models.SessionDetail{TrainingSession: *session}

	booking, err := s.bookingRepo.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Booking = booking
	}

	if !canAccessSession(role, actorID, session, detail.Booking) {
		return nil, ErrForbidden
	}

	payments, err := s.paymentRepo.ListBySessionIDs(ctx, []int64{sessionID})
	if err != nil {
		return nil, err
	}
	if payment, ok := payments[sessionID]; ok {
		paymentCopy := payment
		detail.Payment = &paymentCopy
	}
	return detail, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.SessionListFilter,
) ([]models.SessionDetail, error) {
	filter.ActorID = actorID
	filter.Role = role

	sessions, err := s.sessionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	bookingsBySession, err := s.bookingRepo.ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}
	paymentsBySession, err := s.paymentRepo.ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		detail := models.SessionDetail{TrainingSession: session}
		if booking, ok := bookingsBySession[session.ID]; ok {
			bookingCopy := booking
			detail.Booking = &bookingCopy
		}
		if payment, ok := paymentsBySession[session.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *SessionService) UpdateSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	input repository.UpdateSessionInput,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	if input.Status != nil {
		nextStatus, err := normalizeRequestedStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		if err := validateStatusTransition(session.Status, nextStatus); err != nil {
			return nil, err
		}
		input.Status = &nextStatus
	}

	reschedule := input.SessionDate != nil || input.StartTime != nil || input.EndTime != nil
	startTime := session.StartTime
	endTime := session.EndTime
	if input.StartTime != nil {
		if startTime, err = normalizeTime(*input.StartTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		input.StartTime = &startTime
	}
	if input.EndTime != nil {
		if endTime, err = normalizeTime(*input.EndTime); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		input.EndTime = &endTime
	}
	if reschedule {
		if session.Status != models.SessionScheduled {
			return nil, ErrInvalidStateTransition
		}
		duration, err := durationMinutes(startTime, endTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		input.DurationMinutes = &duration
	}
	if input.SessionType != nil {
		sessionType, err := normalizeSessionType(*input.SessionType)
		if err != nil {
			return nil, err
		}
		input.SessionType = &sessionType
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	if reschedule {
		sessionDate := session.SessionDate
		if input.SessionDate != nil {
			sessionDate = *input.SessionDate
		}

		tx, err := s.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		txSessionRepo := repository.NewSessionRepository(tx)

		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", session.TrainerID); err != nil {
			return nil, err
		}
		overlaps, err := txSessionRepo.HasOverlap(ctx, session.TrainerID, sessionDate, startTime, endTime, sessionID)
		if err != nil {
			return nil, err
		}
		if overlaps {
			return nil, ErrConflict
		}
		if _, err := txSessionRepo.Update(ctx, sessionID, input); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.sessionRepo.Update(ctx, sessionID, input); err != nil {
			return nil, err
		}
	}

	return s.GetSession(ctx, actorID, role, sessionID)
}

func (s *SessionService) DeleteSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !canManageSession(role, actorID, session) {
		return ErrForbidden
	}

	booking, err := s.bookingRepo.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err == nil && booking.Status != models.BookingCancelled {
		return fmt.Errorf("%w: session has an active booking", ErrConflict)
	}

	payments, err := s.paymentRepo.ListBySessionIDs(ctx, []int64{sessionID})
	if err != nil {
		return err
	}
	if _, ok := payments[sessionID]; ok {
		return fmt.Errorf("%w: session has payment history", ErrConflict)
	}

	return s.sessionRepo.Delete(ctx, sessionID)
}

func (s *SessionService) SessionStats(
	ctx context.Context,
	actorID int64,
	role string,
	trainerID *int64,
) (*models.SessionStats, error) {
	switch role {
	case models.RoleTrainer:
		return s.sessionRepo.StatsByTrainer(ctx, &actorID)
	case models.RoleAdmin:
		return s.sessionRepo.StatsByTrainer(ctx, trainerID)
	default:
		return nil, ErrForbidden
	}
}

func withinOpenWindow(windows []models.TrainerAvailability, startTime, endTime string) bool {
	for _, window := range windows {
		if !window.IsAvailable {
			continue
		}
		if timeToMinutes(window.StartTime) <= timeToMinutes(startTime) &&
			timeToMinutes(window.EndTime) >= timeToMinutes(endTime) {
			return true
		}
	}
	return false
}

func canAccessSession(role string, actorID int64, session *models.TrainingSession, booking *models.SessionBooking) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleTrainer:
		return session.TrainerID == actorID
	case models.RoleClient:
		if session.ClientID != nil && *session.ClientID == actorID {
			return true
		}
		return booking != nil && booking.ClientID == actorID
	default:
		return false
	}
}

func canManageSession(role string, actorID int64, session *models.TrainingSession) bool {
	if role == models.RoleAdmin {
		return true
	}
	return role == models.RoleTrainer && session.TrainerID == actorID
}

func normalizeSessionType(sessionType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(sessionType)) {
	case "", models.SessionTypePersonal:
		return models.SessionTypePersonal, nil
	case models.SessionTypeGroup:
		return models.SessionTypeGroup, nil
	case models.SessionTypeOnline:
		return models.SessionTypeOnline, nil
	default:
		return "", fmt.Errorf("%w: unknown session type", ErrInvalidInput)
	}
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "scheduled":
		return models.SessionScheduled, nil
	case "complete", "completed":
		return models.SessionCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.SessionCancelled, nil
	case "no_show", "no-show":
		return models.SessionNoShow, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateStatusTransition(currentStatus, nextStatus string) error {
	if currentStatus == nextStatus {
		return nil
	}
	if currentStatus != models.SessionScheduled {
		return ErrInvalidStateTransition
	}
	switch nextStatus {
	case models.SessionCompleted, models.SessionCancelled, models.SessionNoShow:
		return nil
	default:
		return ErrInvalidStateTransition
	}
}
