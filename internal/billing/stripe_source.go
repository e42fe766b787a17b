package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// SubscriptionSource reading subscriptions from the Stripe API
type StripeSource struct {
	api     *client.API
	priceID string
}

func NewStripeSource(api *client.API, priceID string) *StripeSource {
	return &StripeSource{api: api, priceID: priceID}
}

func (s *StripeSource) ActiveSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Price:    stripe.String(s.priceID),
	}
	params.Context = ctx

	it := s.api.Subscriptions.List(params)
	for it.Next() {
		sub := it.Subscription()
		if isActiveStatus(string(sub.Status)) {
			return subscriptionFromStripe(sub), nil
		}
	}

	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return nil, nil
}
