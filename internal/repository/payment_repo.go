package repository

import (
	"context"

	"github.com/oleh-kl/TrainerAppBack/internal/models"
)

type CreatePaymentInput struct {
	SessionID   int64
	ClientID    int64
	TrainerID   int64
	Amount      float64
	Currency    string
	Provider    string
	ProviderRef string
	PlatformFee float64
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, session_id, client_id, trainer_id, amount, currency, provider, provider_ref,
		charge_ref, refund_ref, status, platform_fee, refund_reason, completed_at, refunded_at, created_at`

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (session_id, client_id, trainer_id, amount, currency, provider, provider_ref, status, platform_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
		RETURNING ` + paymentColumns

	return r.scanOne(r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.ClientID,
		input.TrainerID,
		input.Amount,
		input.Currency,
		input.Provider,
		input.ProviderRef,
		input.PlatformFee,
	))
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, paymentID))
}

func (r *PaymentRepository) GetByProviderRef(
	ctx context.Context,
	provider string,
	providerRef string,
) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE provider = $1 AND provider_ref = $2
		ORDER BY id DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, provider, providerRef))
}

func (r *PaymentRepository) GetByProviderRefForUpdate(
	ctx context.Context,
	provider string,
	providerRef string,
) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE provider = $1 AND provider_ref = $2
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRow(ctx, query, provider, providerRef))
}

func (r *PaymentRepository) GetCompletedBySessionID(
	ctx context.Context,
	sessionID int64,
) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE session_id = $1 AND status = 'completed'
		ORDER BY id DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) ListBySessionIDs(
	ctx context.Context,
	sessionIDs []int64,
) (map[int64]models.Payment, error) {
	payments := make(map[int64]models.Payment, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (session_id) ` + paymentColumns + `
		FROM payments
		WHERE session_id = ANY($1)
		ORDER BY session_id, id DESC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		payments[payment.SessionID] = *payment
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) MarkCompleted(
	ctx context.Context,
	paymentID int64,
	chargeRef *string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'completed', charge_ref = COALESCE($2, charge_ref), completed_at = NOW()
		WHERE id = $1
		RETURNING ` + paymentColumns

	return r.scanOne(r.db.QueryRow(ctx, query, paymentID, chargeRef))
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'failed'
		WHERE id = $1
		RETURNING ` + paymentColumns

	return r.scanOne(r.db.QueryRow(ctx, query, paymentID))
}

func (r *PaymentRepository) MarkRefunded(
	ctx context.Context,
	paymentID int64,
	refundRef *string,
	reason *string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'refunded', refund_ref = $2, refund_reason = $3, refunded_at = NOW()
		WHERE id = $1 AND status = 'completed'
		RETURNING ` + paymentColumns

	return r.scanOne(r.db.QueryRow(ctx, query, paymentID, refundRef, reason))
}

func (r *PaymentRepository) MarkDisputedByChargeRef(
	ctx context.Context,
	chargeRef string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'disputed'
		WHERE charge_ref = $1
		RETURNING ` + paymentColumns

	return r.scanOne(r.db.QueryRow(ctx, query, chargeRef))
}

func (r *PaymentRepository) ListByUser(
	ctx context.Context,
	userID int64,
	role string,
	limit int,
	offset int,
) ([]models.Payment, error) {
	actorColumn := "client_id"
	if role == models.RoleTrainer {
		actorColumn = "trainer_id"
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE ` + actorColumn + ` = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) CountByUser(
	ctx context.Context,
	userID int64,
	role string,
) (int, error) {
	actorColumn := "client_id"
	if role == models.RoleTrainer {
		actorColumn = "trainer_id"
	}

	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE `+actorColumn+` = $1`, userID).Scan(&total)
	return total, err
}

func (r *PaymentRepository) Stats(ctx context.Context, trainerID *int64) (*models.PaymentStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'refunded'),
			COALESCE(SUM(platform_fee) FILTER (WHERE status = 'completed'), 0)
		FROM payments
		WHERE $1::bigint IS NULL OR trainer_id = $1
	`
	var stats models.PaymentStats
	err := r.db.QueryRow(ctx, query, trainerID).Scan(
		&stats.TotalRevenue,
		&stats.TotalPayments,
		&stats.CompletedPayments,
		&stats.PendingPayments,
		&stats.RefundedPayments,
		&stats.PlatformFees,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PaymentRepository) scanOne(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.ClientID,
		&payment.TrainerID,
		&payment.Amount,
		&payment.Currency,
		&payment.Provider,
		&payment.ProviderRef,
		&payment.ChargeRef,
		&payment.RefundRef,
		&payment.Status,
		&payment.PlatformFee,
		&payment.RefundReason,
		&payment.CompletedAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
