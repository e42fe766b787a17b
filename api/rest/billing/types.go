package billing

import (
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/quota"
)

// StatusResponse describes the caller's entitlement. when a requested sync
// failed the response is degraded: plan FREE and the balance withheld.
type StatusResponse struct {
	Plan               accounts.Plan `json:"plan"`
	TokenBalance       *int64        `json:"tokenBalance"`
	TokenRenewalAt     *time.Time    `json:"tokenRenewalAt"`
	SubscriptionStatus string        `json:"subscriptionStatus,omitempty"`
	CurrentPeriodEnd   *time.Time    `json:"currentPeriodEnd,omitempty"`
	Quota              *quota.Usage  `json:"quota,omitempty"`
	Degraded           bool          `json:"degraded"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
