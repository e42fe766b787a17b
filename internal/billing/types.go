package billing

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v81"
)

var (
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrBillingUnavailable = errors.New("billing platform unavailable")
	ErrMalformedEvent     = errors.New("malformed billing event")
)

// billing lifecycle event kinds, named as the platform sends them
type EventType string

const (
	EventCheckoutCompleted    = EventType(stripe.EventTypeCheckoutSessionCompleted)
	EventSubscriptionCreated  = EventType(stripe.EventTypeCustomerSubscriptionCreated)
	EventSubscriptionUpdated  = EventType(stripe.EventTypeCustomerSubscriptionUpdated)
	EventSubscriptionDeleted  = EventType(stripe.EventTypeCustomerSubscriptionDeleted)
	EventInvoicePaid          = EventType(stripe.EventTypeInvoicePaid)
	EventInvoicePaymentFailed = EventType(stripe.EventTypeInvoicePaymentFailed)
)

// subscription as seen on the billing platform
type Subscription struct {
	ID               string
	CustomerID       string
	Status           string
	PriceIDs         []string
	CurrentPeriodEnd *time.Time
}

type Invoice struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	PriceIDs       []string
	PeriodEnd      *time.Time
}

// one lifecycle event, reduced to the fields reconciliation reads
type Event struct {
	ID                string
	Type              EventType
	CustomerID        string
	ClientReferenceID string // our user id, set on checkout sessions
	SubscriptionID    string
	Subscription      *Subscription
	Invoice           *Invoice
}

// answers which subscription a customer currently holds on the tracked price
type SubscriptionSource interface {
	// returns nil, nil when the customer has no active or trialing subscription
	ActiveSubscription(ctx context.Context, customerID string) (*Subscription, error)
}

// remembers which webhook event ids were already applied
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

func isActiveStatus(status string) bool {
	return status == string(stripe.SubscriptionStatusActive) || status == string(stripe.SubscriptionStatusTrialing)
}

func isCancelStatus(status string) bool {
	switch stripe.SubscriptionStatus(status) {
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
		return true
	default:
		return false
	}
}
