package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/refund"
	"github.com/stripe/stripe-go/v72/webhook"
)

type StripeGateway struct {
	secretKey     string
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toCents(req.Amount)),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("session_id", fmt.Sprintf("%d", req.SessionID))
	params.AddMetadata("client_id", fmt.Sprintf("%d", req.ClientID))
	params.AddMetadata("trainer_id", fmt.Sprintf("%d", req.TrainerID))
	params.AddMetadata("type", "session_payment")

	if req.PlatformFee > 0 && req.DestinationAccount != nil {
		params.ApplicationFeeAmount = stripe.Int64(toCents(req.PlatformFee))
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: req.DestinationAccount,
		}
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &ChargeIntent{
		ProviderRef: intent.ID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		ClientPayload: map[string]any{
			"client_secret":     intent.ClientSecret,
			"payment_intent_id": intent.ID,
		},
	}, nil
}

func (g *StripeGateway) VerifyCallback(payload []byte, signature string) (*CallbackEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrBadSignature)
	}
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return g.translateEvent(event)
}

func (g *StripeGateway) translateEvent(event stripe.Event) (*CallbackEvent, error) {
	out := &CallbackEvent{
		ID:     event.ID,
		Type:   string(event.Type),
		Status: StatusIgnored,
		Raw:    event.Data.Raw,
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, err
		}
		out.ProviderRef = intent.ID
		if intent.Charges != nil && len(intent.Charges.Data) > 0 {
			out.ChargeRef = intent.Charges.Data[0].ID
		}
		if event.Type == "payment_intent.succeeded" {
			out.Status = StatusSucceeded
		} else {
			out.Status = StatusFailed
		}
	case "charge.dispute.created":
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return nil, err
		}
		if dispute.Charge != nil {
			out.ChargeRef = dispute.Charge.ID
		}
		out.Status = StatusDisputed
	}

	return out, nil
}

func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ProviderRef),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}

	ref, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &RefundResult{RefundRef: ref.ID}, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
