package repository

import (
	"context"
	"time"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type CreateSubscriptionInput struct {
	TrainerID            int64
	PlanID               string
	StripeSubscriptionID string
	Price                float64
	Interval             string
	Status               string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
}

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, trainer_id, plan_id, stripe_subscription_id, price, billing_interval, status,
		current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func (r *SubscriptionRepository) Create(
	ctx context.Context,
	input CreateSubscriptionInput,
) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions
			(trainer_id, plan_id, stripe_subscription_id, price, billing_interval, status, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + subscriptionColumns

	return r.scanOne(r.db.QueryRow(
		ctx,
		query,
		input.TrainerID,
		input.PlanID,
		input.StripeSubscriptionID,
		input.Price,
		input.Interval,
		input.Status,
		input.CurrentPeriodStart,
		input.CurrentPeriodEnd,
	))
}

// GetCurrentByTrainer returns the trainer's pending or active
// subscription, if any.
func (r *SubscriptionRepository) GetCurrentByTrainer(
	ctx context.Context,
	trainerID int64,
) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE trainer_id = $1 AND status IN ('pending', 'active', 'past_due')
		ORDER BY id DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, trainerID))
}

func (r *SubscriptionRepository) GetByStripeID(
	ctx context.Context,
	stripeSubscriptionID string,
) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE stripe_subscription_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, stripeSubscriptionID))
}

func (r *SubscriptionRepository) SyncFromStripe(
	ctx context.Context,
	stripeSubscriptionID string,
	status string,
	periodStart *time.Time,
	periodEnd *time.Time,
	cancelAtPeriodEnd bool,
) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $2,
		    current_period_start = COALESCE($3, current_period_start),
		    current_period_end = COALESCE($4, current_period_end),
		    cancel_at_period_end = $5,
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
		RETURNING ` + subscriptionColumns

	return r.scanOne(r.db.QueryRow(ctx, query, stripeSubscriptionID, status, periodStart, periodEnd, cancelAtPeriodEnd))
}

func (r *SubscriptionRepository) MarkCancelled(
	ctx context.Context,
	subscriptionID int64,
	atPeriodEnd bool,
) (*models.Subscription, error) {
	var query string
	if atPeriodEnd {
		query = `
			UPDATE subscriptions
			SET cancel_at_period_end = TRUE, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + subscriptionColumns
	} else {
		query = `
			UPDATE subscriptions
			SET status = 'cancelled', cancel_at_period_end = FALSE, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + subscriptionColumns
	}
	return r.scanOne(r.db.QueryRow(ctx, query, subscriptionID))
}

func (r *SubscriptionRepository) scanOne(row interface{ Scan(dest ...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.TrainerID,
		&sub.PlanID,
		&sub.StripeSubscriptionID,
		&sub.Price,
		&sub.Interval,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
