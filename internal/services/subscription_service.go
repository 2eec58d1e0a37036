package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/customer"
	"github.com/stripe/stripe-go/v72/paymentmethod"
	"github.com/stripe/stripe-go/v72/sub"

	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
	"github.com/oleh-kl/TrainerAppBack/pkg/logger"
)

type subscriptionUserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error
}

type SubscriptionService struct {
	subscriptionRepo *repository.SubscriptionRepository
	userRepo         subscriptionUserStore
	log              *logger.Logger
}

func NewSubscriptionService(
	subscriptionRepo *repository.SubscriptionRepository,
	userRepo subscriptionUserStore,
	log *logger.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		log:              log,
	}
}

type SubscriptionCheckout struct {
	Subscription *models.Subscription `json:"subscription"`
	ClientSecret string               `json:"client_secret,omitempty"`
}

// CreateSubscription starts a Stripe subscription for the trainer on the
// given price. One pending or active subscription per trainer.
func (s *SubscriptionService) CreateSubscription(
	ctx context.Context,
	trainerID int64,
	planID string,
	paymentMethodID string,
) (*SubscriptionCheckout, error) {
	if strings.TrimSpace(planID) == "" || strings.TrimSpace(paymentMethodID) == "" {
		return nil, fmt.Errorf("%w: plan_id and payment_method_id are required", ErrInvalidInput)
	}

	if _, err := s.subscriptionRepo.GetCurrentByTrainer(ctx, trainerID); err == nil {
		return nil, fmt.Errorf("%w: trainer already has a subscription", ErrConflict)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if trainer.Role != models.RoleTrainer {
		return nil, ErrForbidden
	}

	customerID, err := s.ensureCustomer(ctx, trainer)
	if err != nil {
		return nil, err
	}

	attachParams := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	attachParams.Context = ctx
	if _, err := paymentmethod.Attach(paymentMethodID, attachParams); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}
	updateParams := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	updateParams.Context = ctx
	if _, err := customer.Update(customerID, updateParams); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer:        stripe.String(customerID),
		Items:           []*stripe.SubscriptionItemsParams{{Price: stripe.String(planID)}},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	subParams.Context = ctx
	subParams.AddExpand("latest_invoice.payment_intent")
	stripeSub, err := sub.New(subParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}

	price := 0.0
	interval := "month"
	if len(stripeSub.Items.Data) > 0 && stripeSub.Items.Data[0].Price != nil {
		item := stripeSub.Items.Data[0].Price
		price = float64(item.UnitAmount) / 100
		if item.Recurring != nil {
			interval = string(item.Recurring.Interval)
		}
	}
	periodStart := time.Unix(stripeSub.CurrentPeriodStart, 0).UTC()
	periodEnd := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()

	subscription, err := s.subscriptionRepo.Create(ctx, repository.CreateSubscriptionInput{
		TrainerID:            trainerID,
		PlanID:               planID,
		StripeSubscriptionID: stripeSub.ID,
		Price:                price,
		Interval:             interval,
		Status:               mapStripeSubscriptionStatus(stripeSub.Status),
		CurrentPeriodStart:   &periodStart,
		CurrentPeriodEnd:     &periodEnd,
	})
	if err != nil {
		return nil, err
	}

	checkout := &SubscriptionCheckout{Subscription: subscription}
	if stripeSub.LatestInvoice != nil && stripeSub.LatestInvoice.PaymentIntent != nil {
		checkout.ClientSecret = stripeSub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return checkout, nil
}

func (s *SubscriptionService) GetMySubscription(
	ctx context.Context,
	trainerID int64,
) (*models.Subscription, error) {
	return s.subscriptionRepo.GetCurrentByTrainer(ctx, trainerID)
}

func (s *SubscriptionService) CancelSubscription(
	ctx context.Context,
	trainerID int64,
	immediately bool,
) (*models.Subscription, error) {
	current, err := s.subscriptionRepo.GetCurrentByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	if immediately {
		cancelParams := &stripe.SubscriptionCancelParams{}
		cancelParams.Context = ctx
		if _, err := sub.Cancel(current.StripeSubscriptionID, cancelParams); err != nil {
			return nil, fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
		}
		return s.subscriptionRepo.MarkCancelled(ctx, current.ID, false)
	}

	updateParams := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	updateParams.Context = ctx
	if _, err := sub.Update(current.StripeSubscriptionID, updateParams); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}
	return s.subscriptionRepo.MarkCancelled(ctx, current.ID, true)
}

// SyncFromEvent applies a Stripe subscription lifecycle event to the
// local record. Events for subscriptions this instance never created
// are acknowledged without effect.
func (s *SubscriptionService) SyncFromEvent(
	ctx context.Context,
	event *gateway.CallbackEvent,
) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Raw, &stripeSub); err != nil {
			return err
		}
		periodStart := time.Unix(stripeSub.CurrentPeriodStart, 0).UTC()
		periodEnd := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
		return s.sync(ctx, stripeSub.ID, mapStripeSubscriptionStatus(stripeSub.Status),
			&periodStart, &periodEnd, stripeSub.CancelAtPeriodEnd)

	case "customer.subscription.deleted":
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Raw, &stripeSub); err != nil {
			return err
		}
		return s.sync(ctx, stripeSub.ID, models.SubscriptionCancelled, nil, nil, false)

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Raw, &invoice); err != nil {
			return err
		}
		if invoice.Subscription == nil {
			return nil
		}
		status := models.SubscriptionActive
		if event.Type == "invoice.payment_failed" {
			status = models.SubscriptionPastDue
		}
		current, err := s.subscriptionRepo.GetByStripeID(ctx, invoice.Subscription.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		return s.sync(ctx, current.StripeSubscriptionID, status, nil, nil, current.CancelAtPeriodEnd)
	}
	return nil
}

func (s *SubscriptionService) sync(
	ctx context.Context,
	stripeSubscriptionID string,
	status string,
	periodStart *time.Time,
	periodEnd *time.Time,
	cancelAtPeriodEnd bool,
) error {
	updated, err := s.subscriptionRepo.SyncFromStripe(ctx, stripeSubscriptionID, status, periodStart, periodEnd, cancelAtPeriodEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.log.Warnw("stripe event for unknown subscription", "stripe_subscription_id", stripeSubscriptionID)
			return nil
		}
		return err
	}
	s.log.Infow("subscription synced",
		"subscription_id", updated.ID, "stripe_subscription_id", stripeSubscriptionID, "status", status)
	return nil
}

func (s *SubscriptionService) ensureCustomer(ctx context.Context, trainer *models.User) (string, error) {
	if trainer.StripeCustomerID != nil && *trainer.StripeCustomerID != "" {
		return *trainer.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(trainer.Email),
		Name:  stripe.String(strings.TrimSpace(trainer.FirstName + " " + trainer.LastName)),
	}
	params.Context = ctx
	params.AddMetadata("trainer_id", fmt.Sprintf("%d", trainer.ID))

	created, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}
	if err := s.userRepo.SetStripeCustomerID(ctx, trainer.ID, created.ID); err != nil {
		return "", err
	}
	return created.ID, nil
}

func mapStripeSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionCancelled
	default:
		return models.SubscriptionPending
	}
}
