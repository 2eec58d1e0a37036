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
	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/services"
)

type stubPaymentService struct {
	checkoutResult *services.CheckoutResult
	checkoutErr    error
	refundResult   *models.Payment
	refundErr      error
	historyResult  []models.Payment
	historyTotal   int
	historyErr     error
	statsResult    *models.PaymentStats
	statsErr       error

	lastActorID   int64
	lastRole      string
	lastSessionID int64
	lastProvider  string
	lastReason    string
	lastLimit     int
	lastOffset    int
}

func (s *stubPaymentService) CreateSessionCheckout(_ context.Context, clientID int64, sessionID int64, provider string) (*services.CheckoutResult, error) {
	s.lastActorID = clientID
	s.lastSessionID = sessionID
	s.lastProvider = provider
	return s.checkoutResult, s.checkoutErr
}

func (s *stubPaymentService) RefundSessionPayment(_ context.Context, actorID int64, role string, sessionID int64, reason string) (*models.Payment, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastReason = reason
	return s.refundResult, s.refundErr
}

func (s *stubPaymentService) PaymentHistory(_ context.Context, actorID int64, role string, limit int, offset int) ([]models.Payment, int, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastLimit = limit
	s.lastOffset = offset
	return s.historyResult, s.historyTotal, s.historyErr
}

func (s *stubPaymentService) PaymentStats(_ context.Context, actorID int64, role string, trainerID *int64) (*models.PaymentStats, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.statsResult, s.statsErr
}

func newPaymentTestApp(service *stubPaymentService, role string, userID string) *fiber.App {
	handler := &PaymentHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/payments/checkout", handler.CreateCheckout)
	app.Post("/api/v1/payments/refund", handler.RefundPayment)
	app.Get("/api/v1/payments", handler.PaymentHistory)
	app.Get("/api/v1/payments/stats", handler.PaymentStats)
	return app
}

func TestCreateCheckoutDefaultsToStripe(t *testing.T) {
	service := &stubPaymentService{
		checkoutResult: &services.CheckoutResult{
			Payment: &models.Payment{ID: 1, SessionID: 10, Status: models.PaymentPending},
		},
	}
	app := newPaymentTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"session_id": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastProvider != models.ProviderStripe {
		t.Fatalf("expected stripe default, got %q", service.lastProvider)
	}
	if service.lastActorID != 9 || service.lastSessionID != 10 {
		t.Fatalf("unexpected args: client %d session %d", service.lastActorID, service.lastSessionID)
	}
}

func TestCreateCheckoutPassesRequestedGateway(t *testing.T) {
	service := &stubPaymentService{
		checkoutResult: &services.CheckoutResult{
			Payment: &models.Payment{ID: 1, SessionID: 10, Status: models.PaymentPending},
		},
	}
	app := newPaymentTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"session_id": 10, "gateway": "liqpay"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastProvider != models.ProviderLiqPay {
		t.Fatalf("expected liqpay, got %q", service.lastProvider)
	}
}

func TestCreateCheckoutRejectsTrainers(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"session_id": 10}`))
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

func TestCreateCheckoutMapsGatewayUnavailable(t *testing.T) {
	service := &stubPaymentService{checkoutErr: gateway.ErrUnavailable}
	app := newPaymentTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"session_id": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestCreateCheckoutMapsMissingSession(t *testing.T) {
	service := &stubPaymentService{checkoutErr: pgx.ErrNoRows}
	app := newPaymentTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/checkout", strings.NewReader(`{"session_id": 404}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Session or payment not found" {
		t.Fatalf("message should cover the missing session case, got %q", body.Error)
	}
}

func TestRefundPaymentRequiresTrainerOrAdmin(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/refund", strings.NewReader(`{"session_id": 10}`))
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

func TestRefundPaymentPassesReason(t *testing.T) {
	service := &stubPaymentService{
		refundResult: &models.Payment{ID: 1, SessionID: 10, Status: models.PaymentRefunded},
	}
	app := newPaymentTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/refund", strings.NewReader(`{"session_id": 10, "reason": "session cancelled"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastReason != "session cancelled" {
		t.Fatalf("expected reason to pass through, got %q", service.lastReason)
	}
}

func TestRefundPaymentMapsInvalidTransition(t *testing.T) {
	service := &stubPaymentService{refundErr: services.ErrInvalidStateTransition}
	app := newPaymentTestApp(service, models.RoleTrainer, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/refund", strings.NewReader(`{"session_id": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPaymentHistoryPaginates(t *testing.T) {
	service := &stubPaymentService{historyResult: []models.Payment{{ID: 1}}, historyTotal: 23}
	app := newPaymentTestApp(service, models.RoleClient, "9")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?page=2&limit=5", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 9 || service.lastRole != models.RoleClient {
		t.Fatalf("unexpected args: %d %s", service.lastActorID, service.lastRole)
	}
	if service.lastLimit != 5 || service.lastOffset != 5 {
		t.Fatalf("expected limit 5 offset 5, got %d %d", service.lastLimit, service.lastOffset)
	}

	var body struct {
		Pagination models.PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Pagination.Total != 23 || body.Pagination.TotalPages != 5 {
		t.Fatalf("unexpected pagination meta: %+v", body.Pagination)
	}
}
