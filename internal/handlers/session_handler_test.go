package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type stubSessionService struct {
	createResult *models.TrainingSession
	createErr    error
	getResult    *models.SessionDetail
	getErr       error
	listResult   []models.SessionDetail
	listErr      error
	updateResult *models.SessionDetail
	updateErr    error
	deleteErr    error
	statsResult  *models.SessionStats
	statsErr     error

	lastActorID     int64
	lastRole        string
	lastSessionID   int64
	lastCreateInput services.CreateTrainingSessionInput
	lastUpdateInput repository.UpdateSessionInput
	lastListFilter  repository.SessionListFilter
}

func (s *stubSessionService) CreateSession(_ context.Context, actorID int64, role string, input services.CreateTrainingSessionInput) (*models.TrainingSession, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubSessionService) GetSession(_ context.Context, actorID int64, role string, sessionID int64) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func (s *stubSessionService) ListSessions(_ context.Context, actorID int64, role string, filter repository.SessionListFilter) ([]models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastListFilter = filter
	return s.listResult, s.listErr
}

func (s *stubSessionService) UpdateSession(_ context.Context, actorID int64, role string, sessionID int64, input repository.UpdateSessionInput) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastUpdateInput = input
	return s.updateResult, s.updateErr
}

func (s *stubSessionService) DeleteSession(_ context.Context, actorID int64, role string, sessionID int64) error {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	return s.deleteErr
}

func (s *stubSessionService) SessionStats(_ context.Context, actorID int64, role string, trainerID *int64) (*models.SessionStats, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.statsResult, s.statsErr
}

func newSessionTestApp(service *stubSessionService, role string, userID string) *fiber.App {
	handler := &SessionHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/sessions", handler.CreateSession)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Get("/api/v1/sessions/stats", handler.SessionStats)
	app.Get("/api/v1/sessions/:id", handler.GetSession)
	app.Patch("/api/v1/sessions/:id", handler.UpdateSession)
	app.Delete("/api/v1/sessions/:id", handler.DeleteSession)
	return app
}

func TestCreateSessionReturnsCreated(t *testing.T) {
	price := 75.0
	service := &stubSessionService{
		createResult: &models.TrainingSession{
			ID:        5,
			TrainerID: 42,
			Title:     "Morning strength",
			Status:    models.SessionScheduled,
			Price:     &price,
		},
	}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"title": "Morning strength",
		"session_date": "2026-03-15",
		"start_time": "09:00",
		"end_time": "10:00",
		"price": 75
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastRole != models.RoleTrainer {
		t.Fatalf("expected trainer 42, got %d %s", service.lastActorID, service.lastRole)
	}
	if service.lastCreateInput.StartTime != "09:00" || service.lastCreateInput.EndTime != "10:00" {
		t.Fatalf("unexpected times: %+v", service.lastCreateInput)
	}
	if service.lastCreateInput.SessionDate.Format("2006-01-02") != "2026-03-15" {
		t.Fatalf("unexpected date: %v", service.lastCreateInput.SessionDate)
	}
}

func TestCreateSessionRejectsClients(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{}`))
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

func TestCreateSessionRejectsBadDate(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"title": "x",
		"session_date": "15-03-2026",
		"start_time": "09:00",
		"end_time": "10:00"
	}`))
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

func TestCreateSessionMapsConflict(t *testing.T) {
	service := &stubSessionService{createErr: services.ErrConflict}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"title": "x",
		"session_date": "2026-03-15",
		"start_time": "09:00",
		"end_time": "10:00"
	}`))
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

func TestListSessionsPassesFilter(t *testing.T) {
	service := &stubSessionService{listResult: []models.SessionDetail{}}
	app := newSessionTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?status=scheduled&from=2026-03-01&to=2026-03-31", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastListFilter.Status != "scheduled" {
		t.Fatalf("expected status filter, got %q", service.lastListFilter.Status)
	}
	if service.lastListFilter.From == nil || service.lastListFilter.To == nil {
		t.Fatalf("expected date range filter, got %+v", service.lastListFilter)
	}
}

func TestGetSessionMapsNotFound(t *testing.T) {
	service := &stubSessionService{getErr: pgx.ErrNoRows}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/77", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 77 {
		t.Fatalf("expected session id 77, got %d", service.lastSessionID)
	}
}

func TestUpdateSessionMapsInvalidTransition(t *testing.T) {
	service := &stubSessionService{updateErr: services.ErrInvalidStateTransition}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/sessions/5", strings.NewReader(`{"status": "completed"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastUpdateInput.Status == nil || *service.lastUpdateInput.Status != "completed" {
		t.Fatalf("expected status in update input, got %+v", service.lastUpdateInput)
	}
}

func TestDeleteSessionReturnsNoContent(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/5", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestSessionStatsDecodesResponse(t *testing.T) {
	service := &stubSessionService{
		statsResult: &models.SessionStats{TotalSessions: 12, ScheduledSessions: 4},
	}
	app := newSessionTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/stats", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Stats models.SessionStats `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.TotalSessions != 12 {
		t.Fatalf("expected 12 total sessions, got %d", body.Stats.TotalSessions)
	}
}
