package billing

import (
	"context"
	"fmt"

	"codeberg.org/fitcoach/server/internal/logger"
)

// verifies, deduplicates and applies webhook deliveries
type WebhookProcessor struct {
	secret     string
	events     EventLog
	reconciler *Reconciler
}

func NewWebhookProcessor(secret string, events EventLog, reconciler *Reconciler) *WebhookProcessor {
	return &WebhookProcessor{secret: secret, events: events, reconciler: reconciler}
}

// returns ErrInvalidSignature for deliveries that fail verification; any
// other error means the event was not applied. an event is only marked
// processed after it was applied, so a later pull sync or resend can repair it.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, signature string) (*Event, error) {
	if err := VerifySignature(payload, signature, p.secret); err != nil {
		return nil, err
	}

	ev, err := ParseEvent(payload)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With("event_id", ev.ID, "event_type", ev.Type)

	seen, err := p.events.Seen(ctx, ev.ID)
	if err != nil {
		log.Warn("event log unavailable, processing anyway", "error", err)
	} else if seen {
		log.Debug("duplicate billing event, skipping")
		return ev, nil
	}

	if err := p.reconciler.HandleEvent(ctx, ev); err != nil {
		return ev, fmt.Errorf("failed to apply billing event: %w", err)
	}

	if err := p.events.MarkProcessed(ctx, ev.ID); err != nil {
		log.Warn("failed to mark billing event processed", "error", err)
	}

	return ev, nil
}
