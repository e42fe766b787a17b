package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// creates hosted checkout and customer portal sessions for the tracked price
type Checkout struct {
	api         *client.API
	priceID     string
	frontendURL string
}

func NewCheckout(api *client.API, priceID, frontendURL string) *Checkout {
	return &Checkout{api: api, priceID: priceID, frontendURL: frontendURL}
}

// returns the hosted checkout url. the user id travels as client_reference_id
// so the completed session can be linked back to the account.
func (c *Checkout) CheckoutURL(ctx context.Context, userID, email, customerID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.frontendURL + "/billing?status=success"),
		CancelURL:  stripe.String(c.frontendURL + "/billing?status=cancel"),
	}
	params.Context = ctx

	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess.URL, nil
}

func (c *Checkout) PortalURL(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.frontendURL + "/billing"),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return sess.URL, nil
}
