package models

import "time"

const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
)

type Subscription struct {
	ID                   int64      `json:"id"`
	TrainerID            int64      `json:"trainer_id"`
	PlanID               string     `json:"plan_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Price                float64    `json:"price"`
	Interval             string     `json:"interval"`
	Status               string     `json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
