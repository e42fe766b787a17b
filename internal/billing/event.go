package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// how old a signed webhook timestamp may be
const SignatureTolerance = 300 * time.Second

// checks the Stripe-Signature header: an HMAC-SHA256 of "{t}.{body}" under
// secret must match one of its v1 entries and t must be within tolerance
func VerifySignature(payload []byte, header, secret string) error {
	if err := webhook.ValidatePayloadWithTolerance(payload, header, secret, SignatureTolerance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return nil
}

// decodes a platform event payload. unknown event types come back with only
// ID and Type set.
func ParseEvent(payload []byte) (*Event, error) {
	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if raw.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}

	ev := &Event{ID: raw.ID, Type: EventType(raw.Type)}
	if raw.Data == nil {
		return ev, nil
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}

		ev.CustomerID = customerID(sess.Customer)
		ev.ClientReferenceID = sess.ClientReferenceID
		if sess.Subscription != nil {
			ev.SubscriptionID = sess.Subscription.ID
		}

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
		}

		ev.Subscription = subscriptionFromStripe(&sub)
		ev.CustomerID = ev.Subscription.CustomerID
		ev.SubscriptionID = sub.ID

	case EventInvoicePaid, EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(raw.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", ErrMalformedEvent, err)
		}

		ev.Invoice = invoiceFromStripe(&inv)
		ev.CustomerID = ev.Invoice.CustomerID
		ev.SubscriptionID = ev.Invoice.SubscriptionID
	}

	return ev, nil
}

func subscriptionFromStripe(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:               sub.ID,
		CustomerID:       customerID(sub.Customer),
		Status:           string(sub.Status),
		CurrentPeriodEnd: unixTime(sub.CurrentPeriodEnd),
	}

	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item != nil && item.Price != nil {
				out.PriceIDs = append(out.PriceIDs, item.Price.ID)
			}
		}
	}

	return out
}

func invoiceFromStripe(inv *stripe.Invoice) *Invoice {
	out := &Invoice{
		ID:         inv.ID,
		CustomerID: customerID(inv.Customer),
	}

	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}

	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line == nil {
				continue
			}

			if line.Price != nil {
				out.PriceIDs = append(out.PriceIDs, line.Price.ID)
			}

			if line.Period != nil && line.Period.End > 0 {
				end := unixTime(line.Period.End)
				if out.PeriodEnd == nil || end.After(*out.PeriodEnd) {
					out.PeriodEnd = end
				}
			}
		}
	}

	return out
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}

	t := time.Unix(sec, 0).UTC()
	return &t
}
