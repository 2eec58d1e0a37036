package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type stubBookingService struct {
	bookResult    *models.SessionBooking
	bookErr       error
	getResult     *models.SessionBooking
	getErr        error
	confirmResult *models.SessionBooking
	confirmErr    error
	cancelResult  *models.SessionBooking
	cancelErr     error

	lastActorID   int64
	lastRole      string
	lastSessionID int64
	lastBookingID int64
	lastMessage   *string
	lastReason    *string
}

func (s *stubBookingService) BookSession(_ context.Context, clientID int64, sessionID int64, message *string) (*models.SessionBooking, error) {
	s.lastActorID = clientID
	s.lastSessionID = sessionID
	s.lastMessage = message
	return s.bookResult, s.bookErr
}

func (s *stubBookingService) GetBooking(_ context.Context, actorID int64, role string, bookingID int64) (*models.SessionBooking, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastBookingID = bookingID
	return s.getResult, s.getErr
}

func (s *stubBookingService) ConfirmBooking(_ context.Context, trainerID int64, bookingID int64, response *string) (*models.SessionBooking, error) {
	s.lastActorID = trainerID
	s.lastBookingID = bookingID
	return s.confirmResult, s.confirmErr
}

func (s *stubBookingService) CancelBooking(_ context.Context, actorID int64, role string, bookingID int64, reason *string) (*models.SessionBooking, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastBookingID = bookingID
	s.lastReason = reason
	return s.cancelResult, s.cancelErr
}

func newBookingTestApp(service *stubBookingService, role string, userID string) *fiber.App {
	handler := &BookingHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/bookings", handler.BookSession)
	app.Get("/api/v1/bookings/:id", handler.GetBooking)
	app.Post("/api/v1/bookings/:id/confirm", handler.ConfirmBooking)
	app.Post("/api/v1/bookings/:id/cancel", handler.CancelBooking)
	return app
}

func TestBookSessionReturnsCreated(t *testing.T) {
	service := &stubBookingService{
		bookResult: &models.SessionBooking{ID: 3, SessionID: 10, ClientID: 9, Status: models.BookingPending},
	}
	app := newBookingTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"session_id": 10, "message": "see you there"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 9 || service.lastSessionID != 10 {
		t.Fatalf("unexpected args: client %d session %d", service.lastActorID, service.lastSessionID)
	}
	if service.lastMessage == nil || *service.lastMessage != "see you there" {
		t.Fatalf("expected message to pass through, got %v", service.lastMessage)
	}
}

func TestBookSessionRejectsTrainers(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"session_id": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookSessionRequiresSessionID(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBookSessionMapsConflict(t *testing.T) {
	service := &stubBookingService{bookErr: services.ErrConflict}
	app := newBookingTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"session_id": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestConfirmBookingWithoutBody(t *testing.T) {
	service := &stubBookingService{
		confirmResult: &models.SessionBooking{ID: 3, Status: models.BookingConfirmed},
	}
	app := newBookingTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/3/confirm", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastBookingID != 3 {
		t.Fatalf("unexpected args: trainer %d booking %d", service.lastActorID, service.lastBookingID)
	}
}

func TestConfirmBookingMapsInvalidTransition(t *testing.T) {
	service := &stubBookingService{confirmErr: services.ErrInvalidStateTransition}
	app := newBookingTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/3/confirm", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCancelBookingPassesReason(t *testing.T) {
	service := &stubBookingService{
		cancelResult: &models.SessionBooking{ID: 3, Status: models.BookingCancelled},
	}
	app := newBookingTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/3/cancel", strings.NewReader(`{"reason": "sick"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRole != models.RoleClient {
		t.Fatalf("expected client role, got %q", service.lastRole)
	}
	if service.lastReason == nil || *service.lastReason != "sick" {
		t.Fatalf("expected reason to pass through, got %v", service.lastReason)
	}
}
