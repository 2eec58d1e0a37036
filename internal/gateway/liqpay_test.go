package gateway

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newTestLiqPay() *LiqPayGateway {
	return NewLiqPayGateway(
		"pub-key",
		"priv-key",
		"https://front.example/payment-success",
		"https://api.example/payments/liqpay/callback",
		FixedRate{Rate: 41, AsOf: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		nil,
	)
}

func encodeCallback(t *testing.T, g *LiqPayGateway, cb map[string]any) (string, string) {
	t.Helper()
	raw, err := json.Marshal(cb)
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}
	data := base64.StdEncoding.EncodeToString(raw)
	return data, g.Sign(data)
}

func TestSignMatchesReferenceScheme(t *testing.T) {
	g := newTestLiqPay()
	data := "eyJvcmRlcl9pZCI6InRlc3QifQ=="

	sum := sha1.Sum([]byte("priv-key" + data + "priv-key"))
	want := base64.StdEncoding.EncodeToString(sum[:])

	if got := g.Sign(data); got != want {
		t.Fatalf("expected signature %s, got %s", want, got)
	}
}

func TestVerifyCallbackAcceptsValidSignature(t *testing.T) {
	g := newTestLiqPay()
	data, signature := encodeCallback(t, g, map[string]any{
		"order_id":       "session_7_abc",
		"status":         "success",
		"transaction_id": 9911,
		"amount":         3075,
		"currency":       "UAH",
	})

	event, err := g.VerifyCallback([]byte(data), signature)
	if err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}
	if event.Status != StatusSucceeded {
		t.Errorf("expected succeeded status, got %s", event.Status)
	}
	if event.ProviderRef != "session_7_abc" {
		t.Errorf("expected order id as provider ref, got %s", event.ProviderRef)
	}
	if event.ID != "liqpay_session_7_abc_9911" {
		t.Errorf("unexpected event id %s", event.ID)
	}
	if event.ChargeRef != "9911" {
		t.Errorf("expected transaction id as charge ref, got %s", event.ChargeRef)
	}
}

func TestVerifyCallbackRejectsTamperedData(t *testing.T) {
	g := newTestLiqPay()
	data, signature := encodeCallback(t, g, map[string]any{
		"order_id": "session_7_abc",
		"status":   "success",
	})

	tampered, _ := encodeCallback(t, g, map[string]any{
		"order_id": "session_7_abc",
		"status":   "failure",
	})

	if _, err := g.VerifyCallback([]byte(tampered), signature); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if _, err := g.VerifyCallback([]byte(data), "bogus"); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature for wrong signature, got %v", err)
	}
}

func TestVerifyCallbackStatusMapping(t *testing.T) {
	g := newTestLiqPay()
	cases := []struct {
		liqpayStatus string
		want         CallbackStatus
	}{
		{"success", StatusSucceeded},
		{"sandbox", StatusSucceeded},
		{"failure", StatusFailed},
		{"error", StatusFailed},
		{"processing", StatusIgnored},
	}

	for _, tc := range cases {
		data, signature := encodeCallback(t, g, map[string]any{
			"order_id": "session_1_x",
			"status":   tc.liqpayStatus,
		})
		event, err := g.VerifyCallback([]byte(data), signature)
		if err != nil {
			t.Fatalf("VerifyCallback(%s): %v", tc.liqpayStatus, err)
		}
		if event.Status != tc.want {
			t.Errorf("status %s: expected %s, got %s", tc.liqpayStatus, tc.want, event.Status)
		}
	}
}

func TestCreateChargeConvertsToUAHAndSigns(t *testing.T) {
	g := newTestLiqPay()

	intent, err := g.CreateCharge(context.Background(), ChargeRequest{
		SessionID:   7,
		ClientID:    3,
		TrainerID:   2,
		Amount:      75,
		Currency:    "USD",
		Description: "Оплата тренування: Morning strength",
	})
	if err != nil {
		t.Fatalf("CreateCharge: %v", err)
	}

	if intent.Amount != 3075 {
		t.Errorf("expected 75 USD at rate 41 to be 3075 UAH, got %.2f", intent.Amount)
	}
	if intent.Currency != "UAH" {
		t.Errorf("expected UAH currency, got %s", intent.Currency)
	}
	if !strings.HasPrefix(intent.ProviderRef, "session_7_") {
		t.Errorf("expected order id prefixed by session id, got %s", intent.ProviderRef)
	}

	data, ok := intent.ClientPayload["data"].(string)
	if !ok || data == "" {
		t.Fatal("expected base64 data in client payload")
	}
	signature, ok := intent.ClientPayload["signature"].(string)
	if !ok || signature != g.Sign(data) {
		t.Error("client payload signature must verify against the data field")
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("payload data is not base64: %v", err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		t.Fatalf("payload data is not JSON: %v", err)
	}
	if params["action"] != "pay" || params["currency"] != "UAH" {
		t.Errorf("unexpected checkout params: %+v", params)
	}
	if params["order_id"] != intent.ProviderRef {
		t.Errorf("order_id %v must match provider ref %s", params["order_id"], intent.ProviderRef)
	}
}
