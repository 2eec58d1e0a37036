package gateway

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBadSignature = errors.New("callback signature mismatch")
	ErrUnavailable  = errors.New("payment gateway unavailable")
)

type CallbackStatus string

const (
	StatusSucceeded CallbackStatus = "succeeded"
	StatusFailed    CallbackStatus = "failed"
	StatusDisputed  CallbackStatus = "disputed"
	StatusIgnored   CallbackStatus = "ignored"
)

type ChargeRequest struct {
	SessionID   int64
	ClientID    int64
	TrainerID   int64
	Amount      float64
	Currency    string
	Description string
	// Stripe Connect destination for the trainer's share, when onboarded.
	DestinationAccount *string
	PlatformFee        float64
}

// ChargeIntent is what the client needs to complete the payment plus the
// correlation id the callback will carry back.
type ChargeIntent struct {
	ProviderRef   string
	Amount        float64
	Currency      string
	ClientPayload map[string]any
}

// CallbackEvent is the provider-neutral form of an inbound gateway
// notification after signature verification.
type CallbackEvent struct {
	ID          string
	Type        string
	ProviderRef string
	ChargeRef   string
	Status      CallbackStatus
	Raw         []byte
}

type RefundRequest struct {
	ProviderRef string
	Amount      float64
	Currency    string
	Reason      string
}

type RefundResult struct {
	RefundRef string
}

// Gateway is the single contract both payment providers implement;
// booking/session reconciliation happens once against its output.
type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeIntent, error)
	VerifyCallback(payload []byte, signature string) (*CallbackEvent, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// RateSource supplies the USD to UAH conversion with a timestamp, so the
// rate is injected rather than hardcoded at call sites.
type RateSource interface {
	UAHPerUSD() (rate float64, asOf time.Time)
}

type FixedRate struct {
	Rate float64
	AsOf time.Time
}

func (f FixedRate) UAHPerUSD() (float64, time.Time) {
	return f.Rate, f.AsOf
}
