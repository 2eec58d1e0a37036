package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oleh-kl/TrainerAppBack/internal/gateway"
	"github.com/oleh-kl/TrainerAppBack/internal/models"
	"github.com/oleh-kl/TrainerAppBack/internal/repository"
	"github.com/oleh-kl/TrainerAppBack/pkg/logger"
)

const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

type subscriptionSyncer interface {
	SyncFromEvent(ctx context.Context, event *gateway.CallbackEvent) error
}

type PaymentService struct {
	db          *pgxpool.Pool
	gateways    map[string]gateway.Gateway
	paymentRepo *repository.PaymentRepository
	bookingRepo *repository.BookingRepository
	sessionRepo *repository.SessionRepository
	webhookRepo *repository.WebhookEventRepository
	userRepo    userReader

	subscriptions subscriptionSyncer

	feeRate                float64
	releaseClientOnFailure bool
	log                    *logger.Logger
}

func NewPaymentService(
	db *pgxpool.Pool,
	gateways []gateway.Gateway,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	sessionRepo *repository.SessionRepository,
	webhookRepo *repository.WebhookEventRepository,
	userRepo userReader,
	feeRate float64,
	releaseClientOnFailure bool,
	log *logger.Logger,
) *PaymentService {
	byName := make(map[string]gateway.Gateway, len(gateways))
	for _, gw := range gateways {
		byName[gw.Name()] = gw
	}
	return &PaymentService{
		db:                     db,
		gateways:               byName,
		paymentRepo:            paymentRepo,
		bookingRepo:            bookingRepo,
		sessionRepo:            sessionRepo,
		webhookRepo:            webhookRepo,
		userRepo:               userRepo,
		feeRate:                feeRate,
		releaseClientOnFailure: releaseClientOnFailure,
		log:                    log,
	}
}

// SetSubscriptionSyncer routes subscription lifecycle events arriving on
// the shared Stripe webhook to the subscription service.
func (s *PaymentService) SetSubscriptionSyncer(syncer subscriptionSyncer) {
	s.subscriptions = syncer
}

type CheckoutResult struct {
	Payment       *models.Payment `json:"payment"`
	ClientPayload map[string]any  `json:"client_payload"`
}

func (s *PaymentService) CreateSessionCheckout(
	ctx context.Context,
	clientID int64,
	sessionID int64,
	provider string,
) (*CheckoutResult, error) {
	gw, ok := s.gateways[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment provider", ErrInvalidInput)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrInvalidStateTransition
	}
	if session.ClientID != nil && *session.ClientID != clientID {
		return nil, ErrConflict
	}
	if session.Price == nil || *session.Price <= 0 {
		return nil, fmt.Errorf("%w: session has no price", ErrInvalidInput)
	}

	trainer, err := s.userRepo.GetByID(ctx, session.TrainerID)
	if err != nil {
		return nil, err
	}

	platformFee := roundCents(*session.Price * s.feeRate)
	intent, err := gw.CreateCharge(ctx, gateway.ChargeRequest{
		SessionID:          session.ID,
		ClientID:           clientID,
		TrainerID:          session.TrainerID,
		Amount:             *session.Price,
		Currency:           session.Currency,
		Description:        fmt.Sprintf("Training session: %s", session.Title),
		DestinationAccount: trainer.StripeAccountID,
		PlatformFee:        platformFee,
	})
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.Create(ctx, repository.CreatePaymentInput{
		SessionID:   session.ID,
		ClientID:    clientID,
		TrainerID:   session.TrainerID,
		Amount:      *session.Price,
		Currency:    session.Currency,
		Provider:    gw.Name(),
		ProviderRef: intent.ProviderRef,
		PlatformFee: platformFee,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{Payment: payment, ClientPayload: intent.ClientPayload}, nil
}

type ReconcileOutcome struct {
	EventID string `json:"event_id"`
	Outcome string `json:"outcome"`
}

// HandleCallback verifies an inbound gateway notification and feeds it
// into reconciliation. Signature errors surface as
// gateway.ErrBadSignature for the handler to reject.
func (s *PaymentService) HandleCallback(
	ctx context.Context,
	provider string,
	payload []byte,
	signature string,
) (*ReconcileOutcome, error) {
	gw, ok := s.gateways[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment provider", ErrInvalidInput)
	}

	event, err := gw.VerifyCallback(payload, signature)
	if err != nil {
		return nil, err
	}
	return s.ProcessEvent(ctx, gw.Name(), event)
}

// ProcessEvent runs a verified gateway event through the idempotency
// gate and settles the referenced payment. A duplicate of a processed
// event is acknowledged without side effects; a delivery whose previous
// attempt failed is retried.
func (s *PaymentService) ProcessEvent(
	ctx context.Context,
	provider string,
	event *gateway.CallbackEvent,
) (*ReconcileOutcome, error) {
	claimed, err := s.webhookRepo.Claim(ctx, provider, event.ID, event.Type, event.Raw)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.log.Infow("duplicate gateway event acknowledged", "provider", provider, "event_id", event.ID)
		return &ReconcileOutcome{EventID: event.ID, Outcome: OutcomeDuplicate}, nil
	}

	outcome := OutcomeProcessed
	switch event.Status {
	case gateway.StatusSucceeded:
		err = s.settleSuccess(ctx, provider, event)
	case gateway.StatusFailed:
		err = s.settleFailure(ctx, provider, event)
	case gateway.StatusDisputed:
		err = s.settleDispute(ctx, event)
	default:
		if s.subscriptions != nil && isSubscriptionEvent(event.Type) {
			err = s.subscriptions.SyncFromEvent(ctx, event)
		} else {
			outcome = OutcomeIgnored
		}
	}

	if err != nil {
		s.log.Errorw("gateway event processing failed",
			"provider", provider, "event_id", event.ID, "event_type", event.Type, "error", err)
		if recordErr := s.webhookRepo.RecordError(ctx, event.ID, err.Error()); recordErr != nil {
			s.log.Errorw("failed to record processing error", "event_id", event.ID, "error", recordErr)
		}
		return nil, err
	}

	if err := s.webhookRepo.MarkProcessed(ctx, event.ID); err != nil {
		return nil, err
	}
	return &ReconcileOutcome{EventID: event.ID, Outcome: outcome}, nil
}

// settleSuccess completes the payment and confirms the session booking
// in one transaction, creating the booking when the client paid without
// booking first.
func (s *PaymentService) settleSuccess(
	ctx context.Context,
	provider string,
	event *gateway.CallbackEvent,
) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txBookingRepo := repository.NewBookingRepository(tx)
	txSessionRepo := repository.NewSessionRepository(tx)

	payment, err := txPaymentRepo.GetByProviderRefForUpdate(ctx, provider, event.ProviderRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no payment for %s reference %s", provider, event.ProviderRef)
		}
		return err
	}
	if payment.Status == models.PaymentCompleted {
		return nil
	}
	if payment.Status != models.PaymentPending && payment.Status != models.PaymentFailed {
		return fmt.Errorf("payment %d is %s, cannot complete", payment.ID, payment.Status)
	}

	var chargeRef *string
	if event.ChargeRef != "" {
		chargeRef = &event.ChargeRef
	}
	if _, err := txPaymentRepo.MarkCompleted(ctx, payment.ID, chargeRef); err != nil {
		return err
	}
	if _, err := txBookingRepo.UpsertConfirmedForPayment(ctx, payment.SessionID, payment.ClientID, payment.ID); err != nil {
		return err
	}
	if _, err := txSessionRepo.AssignClientIfUnset(ctx, payment.SessionID, payment.ClientID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.log.Infow("payment completed", "payment_id", payment.ID, "session_id", payment.SessionID, "provider", provider)
	return nil
}

func (s *PaymentService) settleFailure(
	ctx context.Context,
	provider string,
	event *gateway.CallbackEvent,
) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txBookingRepo := repository.NewBookingRepository(tx)
	txSessionRepo := repository.NewSessionRepository(tx)

	payment, err := txPaymentRepo.GetByProviderRefForUpdate(ctx, provider, event.ProviderRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no payment for %s reference %s", provider, event.ProviderRef)
		}
		return err
	}
	// A failure notice arriving after the charge already succeeded is
	// stale, not a state change.
	if payment.Status != models.PaymentPending {
		return nil
	}

	if _, err := txPaymentRepo.MarkFailed(ctx, payment.ID); err != nil {
		return err
	}
	if err := txBookingRepo.CancelBySessionID(ctx, payment.SessionID, models.CancelledByClient, "payment failed"); err != nil {
		return err
	}
	if s.releaseClientOnFailure {
		if err := txSessionRepo.ReleaseClient(ctx, payment.SessionID, payment.ClientID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.log.Infow("payment failed", "payment_id", payment.ID, "session_id", payment.SessionID, "provider", provider)
	return nil
}

func (s *PaymentService) settleDispute(ctx context.Context, event *gateway.CallbackEvent) error {
	if event.ChargeRef == "" {
		return errors.New("dispute event without a charge reference")
	}
	payment, err := s.paymentRepo.MarkDisputedByChargeRef(ctx, event.ChargeRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.log.Warnw("dispute for unknown charge", "charge_ref", event.ChargeRef)
			return nil
		}
		return err
	}
	s.log.Warnw("payment disputed", "payment_id", payment.ID, "charge_ref", event.ChargeRef)
	return nil
}

func (s *PaymentService) RefundSessionPayment(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	reason string,
) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetCompletedBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleTrainer:
		if payment.TrainerID != actorID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	gw, ok := s.gateways[payment.Provider]
	if !ok {
		return nil, fmt.Errorf("no gateway registered for provider %s", payment.Provider)
	}

	result, err := gw.Refund(ctx, gateway.RefundRequest{
		ProviderRef: payment.ProviderRef,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Reason:      reason,
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txBookingRepo := repository.NewBookingRepository(tx)

	var reasonPtr *string
	if strings.TrimSpace(reason) != "" {
		reasonPtr = &reason
	}
	refunded, err := txPaymentRepo.MarkRefunded(ctx, payment.ID, &result.RefundRef, reasonPtr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	if err := txBookingRepo.CancelBySessionID(ctx, sessionID, models.CancelledByTrainer, "payment refunded"); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.log.Infow("payment refunded", "payment_id", refunded.ID, "refund_ref", result.RefundRef)
	return refunded, nil
}

// PaymentHistory returns one page of the caller's payments, newest
// first, with the total row count for pagination.
func (s *PaymentService) PaymentHistory(
	ctx context.Context,
	actorID int64,
	role string,
	limit int,
	offset int,
) ([]models.Payment, int, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, actorID, role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountByUser(ctx, actorID, role)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (s *PaymentService) PaymentStats(
	ctx context.Context,
	actorID int64,
	role string,
	trainerID *int64,
) (*models.PaymentStats, error) {
	switch role {
	case models.RoleTrainer:
		return s.paymentRepo.Stats(ctx, &actorID)
	case models.RoleAdmin:
		return s.paymentRepo.Stats(ctx, trainerID)
	default:
		return nil, ErrForbidden
	}
}

func isSubscriptionEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "customer.subscription.") ||
		eventType == "invoice.payment_succeeded" ||
		eventType == "invoice.payment_failed"
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
