package services

import (
	"errors"
	"testing"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

func TestNormalizeRequestedStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"completed", models.SessionCompleted, false},
		{"COMPLETE", models.SessionCompleted, false},
		{"cancel", models.SessionCancelled, false},
		{"canceled", models.SessionCancelled, false},
		{"no-show", models.SessionNoShow, false},
		{"paused", "", true},
	}
	for _, c := range cases {
		got, err := normalizeRequestedStatus(c.in)
		if c.wantErr {
			if !errors.Is(err, ErrInvalidStatus) {
				t.Errorf("normalizeRequestedStatus(%q): expected ErrInvalidStatus, got %v", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("normalizeRequestedStatus(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}

func TestValidateStatusTransition(t *testing.T) {
	cases := []struct {
		name    string
		current string
		next    string
		wantErr bool
	}{
		{"scheduled to completed", models.SessionScheduled, models.SessionCompleted, false},
		{"scheduled to cancelled", models.SessionScheduled, models.SessionCancelled, false},
		{"scheduled to no_show", models.SessionScheduled, models.SessionNoShow, false},
		{"same status is a no-op", models.SessionCompleted, models.SessionCompleted, false},
		{"completed to cancelled", models.SessionCompleted, models.SessionCancelled, true},
		{"cancelled to scheduled", models.SessionCancelled, models.SessionScheduled, true},
		{"no_show to completed", models.SessionNoShow, models.SessionCompleted, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateStatusTransition(c.current, c.next)
			if c.wantErr && !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("expected ErrInvalidStateTransition, got %v", err)
			}
			if !c.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWithinOpenWindow(t *testing.T) {
	windows := []models.TrainerAvailability{
		{StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		{StartTime: "13:00", EndTime: "15:00", IsAvailable: false},
	}

	if !withinOpenWindow(windows, "09:30", "11:00") {
		t.Error("expected range inside an open window to pass")
	}
	if withinOpenWindow(windows, "11:00", "12:30") {
		t.Error("expected range crossing the window edge to fail")
	}
	if withinOpenWindow(windows, "13:00", "14:00") {
		t.Error("expected range inside a blocked window to fail")
	}
}
