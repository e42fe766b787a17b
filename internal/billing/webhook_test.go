package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

const invoicePaidPayload = `{
	"id": "evt_inv_1",
	"object": "event",
	"type": "invoice.paid",
	"data": {
		"object": {
			"id": "in_1",
			"object": "invoice",
			"customer": "cus_1",
			"subscription": "sub_1",
			"lines": {
				"object": "list",
				"data": [
					{"id": "il_1", "object": "line_item", "price": {"id": "price_pro", "object": "price"}, "period": {"start": 1704888000, "end": 1707566400}}
				]
			}
		}
	}
}`

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, VerifySignature(payload, sign(payload, testSecret, now), testSecret))
	})

	t.Run("any v1 candidate may match", func(t *testing.T) {
		header := sign(payload, testSecret, now) + ",v1=deadbeef"
		assert.NoError(t, VerifySignature(payload, header, testSecret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := VerifySignature(payload, sign(payload, "whsec_other", now), testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		header := sign(payload, testSecret, now)
		err := VerifySignature([]byte(`{"id":"evt_2"}`), header, testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		err := VerifySignature(payload, sign(payload, testSecret, now.Add(-10*time.Minute)), testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(payload, "", testSecret), ErrInvalidSignature)
	})
}

func TestParseEvent_Invoice(t *testing.T) {
	ev, err := ParseEvent([]byte(invoicePaidPayload))
	require.NoError(t, err)

	assert.Equal(t, "evt_inv_1", ev.ID)
	assert.Equal(t, EventInvoicePaid, ev.Type)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "sub_1", ev.SubscriptionID)

	require.NotNil(t, ev.Invoice)
	assert.Equal(t, "in_1", ev.Invoice.ID)
	assert.Equal(t, []string{"price_pro"}, ev.Invoice.PriceIDs)
	require.NotNil(t, ev.Invoice.PeriodEnd)
	assert.Equal(t, int64(1707566400), ev.Invoice.PeriodEnd.Unix())
}

func TestParseEvent_Subscription(t *testing.T) {
	payload := `{
		"id": "evt_sub_1",
		"object": "event",
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_1",
				"object": "subscription",
				"customer": "cus_1",
				"status": "trialing",
				"current_period_end": 1707566400,
				"items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_pro", "object": "price"}}]}
			}
		}
	}`

	ev, err := ParseEvent([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionUpdated, ev.Type)
	assert.Equal(t, "cus_1", ev.CustomerID)
	require.NotNil(t, ev.Subscription)
	assert.Equal(t, "trialing", ev.Subscription.Status)
	assert.Equal(t, []string{"price_pro"}, ev.Subscription.PriceIDs)
	require.NotNil(t, ev.Subscription.CurrentPeriodEnd)
	assert.Equal(t, int64(1707566400), ev.Subscription.CurrentPeriodEnd.Unix())
}

func TestParseEvent_Checkout(t *testing.T) {
	payload := `{
		"id": "evt_cs_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_1",
				"object": "checkout.session",
				"customer": "cus_1",
				"subscription": "sub_1",
				"client_reference_id": "u1"
			}
		}
	}`

	ev, err := ParseEvent([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "u1", ev.ClientReferenceID)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
}

func TestParseEvent_UnknownTypeKeepsIdentity(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_9","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`))
	require.NoError(t, err)

	assert.Equal(t, "evt_9", ev.ID)
	assert.Equal(t, EventType("charge.refunded"), ev.Type)
	assert.Empty(t, ev.CustomerID)
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = ParseEvent([]byte(`{"type":"invoice.paid","data":{"object":{}}}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

type failingEventLog struct {
	*MemoryEventLog
	markErr error
}

func (l *failingEventLog) MarkProcessed(ctx context.Context, id string) error {
	if l.markErr != nil {
		return l.markErr
	}
	return l.MemoryEventLog.MarkProcessed(ctx, id)
}

func newProcessor(t *testing.T, events EventLog) (*WebhookProcessor, *harness) {
	t.Helper()

	h := newHarness(t)
	h.linked(t)
	return NewWebhookProcessor(testSecret, events, h.rec), h
}

func TestWebhookProcessor_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	events := NewMemoryEventLog()
	p, h := newProcessor(t, events)

	payload := []byte(invoicePaidPayload)

	_, err := p.Process(ctx, payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)

	acc := h.account(t)
	assert.Equal(t, accounts.PlanPro, acc.Plan)
	assert.Equal(t, testAllowance, acc.TokenBalance)

	_, err = h.repo.Debit(ctx, "u1", 500, h.now)
	require.NoError(t, err)

	seen, err := events.Seen(ctx, "evt_inv_1")
	require.NoError(t, err)
	assert.True(t, seen)

	_, err = p.Process(ctx, payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, testAllowance-500, h.account(t).TokenBalance)
}

func TestWebhookProcessor_RejectsBadSignature(t *testing.T) {
	p, h := newProcessor(t, NewMemoryEventLog())

	payload := []byte(invoicePaidPayload)

	_, err := p.Process(context.Background(), payload, sign(payload, "whsec_wrong", time.Now()))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, accounts.PlanFree, h.account(t).Plan)
}

func TestWebhookProcessor_FailureIsNotMarked(t *testing.T) {
	ctx := context.Background()
	events := NewMemoryEventLog()

	h := newHarness(t)
	h.linked(t)
	h.source.activeSubscriptionFunc = func(context.Context, string) (*Subscription, error) {
		return nil, errors.New("platform down")
	}
	p := NewWebhookProcessor(testSecret, events, h.rec)

	payload := []byte(`{"id":"evt_f","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_2","object":"invoice","customer":"cus_1"}}}`)

	_, err := p.Process(ctx, payload, sign(payload, testSecret, time.Now()))
	require.Error(t, err)

	seen, err := events.Seen(ctx, "evt_f")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestWebhookProcessor_MarkFailureStillSucceeds(t *testing.T) {
	events := &failingEventLog{MemoryEventLog: NewMemoryEventLog(), markErr: errors.New("redis down")}
	p, h := newProcessor(t, events)

	payload := []byte(invoicePaidPayload)

	_, err := p.Process(context.Background(), payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, accounts.PlanPro, h.account(t).Plan)
}
