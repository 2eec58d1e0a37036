package models

import "time"

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

const (
	CancelledByClient  = "client"
	CancelledByTrainer = "trainer"
)

type SessionBooking struct {
	ID                 int64      `json:"id"`
	SessionID          int64      `json:"session_id"`
	ClientID           int64      `json:"client_id"`
	ClientMessage      *string    `json:"client_message"`
	Status             string     `json:"status"`
	ConfirmedAt        *time.Time `json:"confirmed_at"`
	ConfirmedBy        *int64     `json:"confirmed_by"`
	TrainerResponse    *string    `json:"trainer_response"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CancelledBy        *string    `json:"cancelled_by"`
	CancellationReason *string    `json:"cancellation_reason"`
	PaymentID          *int64     `json:"payment_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
