package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

func newStripeAPI(t *testing.T, handler http.HandlerFunc) *client.API {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		MaxNetworkRetries: stripe.Int64(0),
	})

	return client.New("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestStripeSource_ReturnsFirstActive(t *testing.T) {
	api := newStripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		assert.Equal(t, "price_pro", r.URL.Query().Get("price"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"url": "/v1/subscriptions",
			"has_more": false,
			"data": [
				{"id": "sub_old", "object": "subscription", "customer": "cus_1", "status": "incomplete_expired", "current_period_end": 1704067200},
				{"id": "sub_1", "object": "subscription", "customer": "cus_1", "status": "active", "current_period_end": 1707566400,
				 "items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_pro", "object": "price"}}]}}
			]
		}`))
	})

	sub, err := NewStripeSource(api, "price_pro").ActiveSubscription(context.Background(), "cus_1")
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, []string{"price_pro"}, sub.PriceIDs)
	assert.Equal(t, int64(1707566400), sub.CurrentPeriodEnd.Unix())
}

func TestStripeSource_NoneActive(t *testing.T) {
	api := newStripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/subscriptions","has_more":false,"data":[]}`))
	})

	sub, err := NewStripeSource(api, "price_pro").ActiveSubscription(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestStripeSource_APIError(t *testing.T) {
	api := newStripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	})

	_, err := NewStripeSource(api, "price_pro").ActiveSubscription(context.Background(), "cus_1")
	assert.Error(t, err)
}

func TestCheckout_SessionCarriesUserID(t *testing.T) {
	api := newStripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "u1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_pro", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "a@b.c", r.PostForm.Get("customer_email"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","url":"https://checkout.example/cs_1"}`))
	})

	url, err := NewCheckout(api, "price_pro", "https://app.example").CheckoutURL(context.Background(), "u1", "a@b.c", "")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", url)
}

func TestCheckout_Portal(t *testing.T) {
	api := newStripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_1", r.PostForm.Get("customer"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://portal.example/bps_1"}`))
	})

	url, err := NewCheckout(api, "price_pro", "https://app.example").PortalURL(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/bps_1", url)
}
