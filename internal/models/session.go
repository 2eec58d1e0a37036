package models

import "time"

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
	SessionNoShow    = "no_show"
)

const (
	SessionTypePersonal = "personal"
	SessionTypeGroup    = "group"
	SessionTypeOnline   = "online"
)

type TrainingSession struct {
	ID              int64      `json:"id"`
	TrainerID       int64      `json:"trainer_id"`
	ClientID        *int64     `json:"client_id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	SessionDate     time.Time  `json:"session_date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	SessionType     string     `json:"session_type"`
	Status          string     `json:"status"`
	Location        *string    `json:"location"`
	WorkoutPlanID   *int64     `json:"workout_plan_id"`
	Price           *float64   `json:"price"`
	Currency        string     `json:"currency"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type SessionDetail struct {
	TrainingSession
	Booking *SessionBooking `json:"booking,omitempty"`
	Payment *Payment        `json:"payment,omitempty"`
}

type SessionStats struct {
	TotalSessions     int `json:"total_sessions"`
	ScheduledSessions int `json:"scheduled_sessions"`
	CompletedSessions int `json:"completed_sessions"`
	CancelledSessions int `json:"cancelled_sessions"`
	PendingBookings   int `json:"pending_bookings"`
	ConfirmedBookings int `json:"confirmed_bookings"`
}
