package repository

import (
	"context"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type CreateBookingInput struct {
	SessionID     int64
	ClientID      int64
	ClientMessage *string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, session_id, client_id, client_message, status, confirmed_at, confirmed_by,
		trainer_response, cancelled_at, cancelled_by, cancellation_reason, payment_id, created_at, updated_at`

// Create relies on the unique constraint on session_id to arbitrate
// concurrent booking attempts; callers map 23505 to a conflict.
func (r *BookingRepository) Create(
	ctx context.Context,
	input CreateBookingInput,
) (*models.SessionBooking, error) {
	query := `
		INSERT INTO session_bookings (session_id, client_id, client_message, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING ` + bookingColumns

	return r.scanOne(r.db.QueryRow(ctx, query, input.SessionID, input.ClientID, input.ClientMessage))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.SessionBooking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM session_bookings
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.SessionBooking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM session_bookings
		WHERE session_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID))
}

func (r *BookingRepository) ListBySessionIDs(
	ctx context.Context,
	sessionIDs []int64,
) (map[int64]models.SessionBooking, error) {
	bookings := make(map[int64]models.SessionBooking, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return bookings, nil
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM session_bookings
		WHERE session_id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		booking, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		bookings[booking.SessionID] = *booking
	}
	return bookings, rows.Err()
}

// ConfirmIfPending flips a pending booking to confirmed; pgx.ErrNoRows
// means the booking was not pending anymore.
func (r *BookingRepository) ConfirmIfPending(
	ctx context.Context,
	bookingID int64,
	confirmedBy int64,
	trainerResponse *string,
) (*models.SessionBooking, error) {
	query := `
		UPDATE session_bookings
		SET status = 'confirmed', confirmed_at = NOW(), confirmed_by = $2,
		    trainer_response = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + bookingColumns

	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, confirmedBy, trainerResponse))
}

// CancelIfNotCancelled cancels a booking unless it is already cancelled;
// pgx.ErrNoRows means it was.
func (r *BookingRepository) CancelIfNotCancelled(
	ctx context.Context,
	bookingID int64,
	cancelledBy string,
	reason *string,
) (*models.SessionBooking, error) {
	query := `
		UPDATE session_bookings
		SET status = 'cancelled', cancelled_at = NOW(), cancelled_by = $2,
		    cancellation_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING ` + bookingColumns

	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, cancelledBy, reason))
}

// UpsertConfirmedForPayment confirms the session's booking on payment
// success, creating the row when the client paid without booking first.
func (r *BookingRepository) UpsertConfirmedForPayment(
	ctx context.Context,
	sessionID int64,
	clientID int64,
	paymentID int64,
) (*models.SessionBooking, error) {
	query := `
		INSERT INTO session_bookings (session_id, client_id, status, confirmed_at, payment_id)
		VALUES ($1, $2, 'confirmed', NOW(), $3)
		ON CONFLICT (session_id) DO UPDATE
		SET status = 'confirmed', confirmed_at = NOW(), payment_id = $3,
		    cancelled_at = NULL, cancelled_by = NULL, cancellation_reason = NULL,
		    updated_at = NOW()
		RETURNING ` + bookingColumns

	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, clientID, paymentID))
}

// CancelBySessionID is the payment-failure path: whatever booking the
// session has goes to cancelled with the given reason.
func (r *BookingRepository) CancelBySessionID(
	ctx context.Context,
	sessionID int64,
	cancelledBy string,
	reason string,
) error {
	query := `
		UPDATE session_bookings
		SET status = 'cancelled', cancelled_at = NOW(), cancelled_by = $2,
		    cancellation_reason = $3, updated_at = NOW()
		WHERE session_id = $1 AND status <> 'cancelled'
	`
	_, err := r.db.Exec(ctx, query, sessionID, cancelledBy, reason)
	return err
}

func (r *BookingRepository) scanOne(row interface{ Scan(dest ...any) error }) (*models.SessionBooking, error) {
	var booking models.SessionBooking
	err := row.Scan(
		&booking.ID,
		&booking.SessionID,
		&booking.ClientID,
		&booking.ClientMessage,
		&booking.Status,
		&booking.ConfirmedAt,
		&booking.ConfirmedBy,
		&booking.TrainerResponse,
		&booking.CancelledAt,
		&booking.CancelledBy,
		&booking.CancellationReason,
		&booking.PaymentID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
