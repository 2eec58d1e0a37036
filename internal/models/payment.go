package models

import "time"

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
	PaymentDisputed  = "disputed"
)

const (
	ProviderStripe = "stripe"
	ProviderLiqPay = "liqpay"
)

type Payment struct {
	ID           int64      `json:"id"`
	SessionID    int64      `json:"session_id"`
	ClientID     int64      `json:"client_id"`
	TrainerID    int64      `json:"trainer_id"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	Provider     string     `json:"provider"`
	ProviderRef  string     `json:"provider_ref"`
	ChargeRef    *string    `json:"charge_ref,omitempty"`
	RefundRef    *string    `json:"refund_ref,omitempty"`
	Status       string     `json:"status"`
	PlatformFee  float64    `json:"platform_fee"`
	RefundReason *string    `json:"refund_reason,omitempty"`
	CompletedAt  *time.Time `json:"completed_at"`
	RefundedAt   *time.Time `json:"refunded_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type WebhookEvent struct {
	ID              int64      `json:"id"`
	Provider        string     `json:"provider"`
	ExternalEventID string     `json:"external_event_id"`
	EventType       string     `json:"event_type"`
	Payload         string     `json:"payload"`
	Processed       bool       `json:"processed"`
	ProcessingError *string    `json:"processing_error"`
	ReceivedAt      time.Time  `json:"received_at"`
	ProcessedAt     *time.Time `json:"processed_at"`
}

type PaymentStats struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalPayments     int     `json:"total_payments"`
	CompletedPayments int     `json:"completed_payments"`
	PendingPayments   int     `json:"pending_payments"`
	RefundedPayments  int     `json:"refunded_payments"`
	PlatformFees      float64 `json:"platform_fees"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
