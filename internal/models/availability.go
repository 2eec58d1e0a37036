package models

import "time"

type TrainerAvailability struct {
	ID           int64      `json:"id"`
	TrainerID    int64      `json:"trainer_id"`
	DayOfWeek    *int       `json:"day_of_week"`
	SpecificDate *time.Time `json:"specific_date"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	IsRecurring  bool       `json:"is_recurring"`
	IsAvailable  bool       `json:"is_available"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SessionWindow is the slice of a session that matters for slot math.
type SessionWindow struct {
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

type AvailableSlot struct {
	TrainerAvailability
	IsBooked            bool            `json:"is_booked"`
	ConflictingSessions []SessionWindow `json:"conflicting_sessions"`
}

type TrainerSearchResult struct {
	ID           int64                 `json:"id"`
	FirstName    string                `json:"first_name"`
	LastName     string                `json:"last_name"`
	Email        string                `json:"email"`
	Availability []TrainerAvailability `json:"availability"`
}
