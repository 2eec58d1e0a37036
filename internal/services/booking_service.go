package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
)

type BookingService struct {
	db          *pgxpool.Pool
	bookingRepo *repository.BookingRepository
	sessionRepo *repository.SessionRepository
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	sessionRepo *repository.SessionRepository,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
	}
}

// BookSession creates a pending booking for the client. The session row
// is locked so the tentative client assignment and the booking insert
// act as one step; the unique constraint on session_id arbitrates any
// concurrent attempt that slips past the lock.
func (s *BookingService) BookSession(
	ctx context.Context,
	clientID int64,
	sessionID int64,
	message *string,
) (*models.SessionBooking, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txBookingRepo := repository.NewBookingRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID == clientID {
		return nil, ErrInvalidInput
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrInvalidStateTransition
	}
	if session.ClientID != nil && *session.ClientID != clientID {
		return nil, ErrConflict
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateBookingInput{
		SessionID:     sessionID,
		ClientID:      clientID,
		ClientMessage: message,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}

	if session.ClientID == nil {
		if _, err := txSessionRepo.AssignClientIfUnset(ctx, sessionID, clientID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) GetBooking(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.SessionBooking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && booking.ClientID != actorID && session.TrainerID != actorID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ConfirmBooking(
	ctx context.Context,
	trainerID int64,
	bookingID int64,
	response *string,
) (*models.SessionBooking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != trainerID {
		return nil, ErrForbidden
	}

	confirmed, err := s.bookingRepo.ConfirmIfPending(ctx, bookingID, trainerID, response)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return confirmed, nil
}

func (s *BookingService) CancelBooking(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
	reason *string,
) (*models.SessionBooking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}

	var cancelledBy string
	switch {
	case booking.ClientID == actorID:
		cancelledBy = models.CancelledByClient
	case session.TrainerID == actorID || role == models.RoleAdmin:
		cancelledBy = models.CancelledByTrainer
	default:
		return nil, ErrForbidden
	}

	cancelled, err := s.bookingRepo.CancelIfNotCancelled(ctx, bookingID, cancelledBy, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return cancelled, nil
}
