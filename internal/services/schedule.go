package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

var timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// normalizeTime validates an HH:MM string and zero-pads the hour so that
// lexicographic comparison (in Go and in SQL) matches chronological order.
func normalizeTime(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !timePattern.MatchString(value) {
		return "", fmt.Errorf("invalid time format: %s, use HH:MM", value)
	}
	parts := strings.SplitN(value, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	return fmt.Sprintf("%02d:%s", hours, parts[1]), nil
}

func timeToMinutes(value string) int {
	parts := strings.SplitN(value, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	return hours*60 + minutes
}

// durationMinutes returns end minus start, rejecting empty or inverted
// ranges.
func durationMinutes(startTime, endTime string) (int, error) {
	start := timeToMinutes(startTime)
	end := timeToMinutes(endTime)
	if end <= start {
		return 0, fmt.Errorf("end time must be after start time")
	}
	return end - start, nil
}

// rangesOverlap reports whether the half-open ranges [s1,e1) and [s2,e2)
// intersect.
func rangesOverlap(s1, e1, s2, e2 string) bool {
	return timeToMinutes(s1) < timeToMinutes(e2) && timeToMinutes(s2) < timeToMinutes(e1)
}

// buildSlots marks each open availability window with the non-cancelled
// sessions that cover part of it.
func buildSlots(
	availability []models.TrainerAvailability,
	sessions []models.TrainingSession,
) []models.AvailableSlot {
	slots := make([]models.AvailableSlot, 0, len(availability))
	for _, window := range availability {
		if !window.IsAvailable {
			continue
		}

		slot := models.AvailableSlot{
			TrainerAvailability: window,
			ConflictingSessions: make([]models.SessionWindow, 0),
		}
		for _, session := range sessions {
			if session.Status == models.SessionCancelled {
				continue
			}
			if rangesOverlap(window.StartTime, window.EndTime, session.StartTime, session.EndTime) {
				slot.ConflictingSessions = append(slot.ConflictingSessions, models.SessionWindow{
					ID:        session.ID,
					StartTime: session.StartTime,
					EndTime:   session.EndTime,
					Status:    session.Status,
				})
			}
		}
		slot.IsBooked = len(slot.ConflictingSessions) > 0
		slots = append(slots, slot)
	}
	return slots
}
