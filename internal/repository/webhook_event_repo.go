package repository

import (
	"context"
)

type WebhookEventRepository struct {
	db DBTX
}

func NewWebhookEventRepository(db DBTX) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Claim is the idempotency gate for inbound gateway events. The unique
// constraint on external_event_id makes the insert the single arbiter
// under concurrent duplicate delivery: exactly one delivery claims a
// never-seen event. A delivery of an event whose previous attempt stored
// a processing error reclaims it, which is the passive retry path.
func (r *WebhookEventRepository) Claim(
	ctx context.Context,
	provider string,
	externalEventID string,
	eventType string,
	payload []byte,
) (bool, error) {
	insert := `
		INSERT INTO webhook_events (provider, external_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_event_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, insert, provider, externalEventID, eventType, payload)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	reclaim := `
		UPDATE webhook_events
		SET processing_error = NULL, received_at = NOW()
		WHERE external_event_id = $1 AND NOT processed AND processing_error IS NOT NULL
	`
	tag, err = r.db.Exec(ctx, reclaim, externalEventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, externalEventID string) error {
	query := `
		UPDATE webhook_events
		SET processed = TRUE, processed_at = NOW()
		WHERE external_event_id = $1
	`
	_, err := r.db.Exec(ctx, query, externalEventID)
	return err
}

// RecordError leaves the event unprocessed so a future redelivery of the
// same event id can retry it.
func (r *WebhookEventRepository) RecordError(
	ctx context.Context,
	externalEventID string,
	message string,
) error {
	query := `
		UPDATE webhook_events
		SET processing_error = $2
		WHERE external_event_id = $1
	`
	_, err := r.db.Exec(ctx, query, externalEventID, message)
	return err
}
