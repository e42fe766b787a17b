package billing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/auth"
	"codeberg.org/fitcoach/server/internal/billing"
	apierrors "codeberg.org/fitcoach/server/internal/errors"
	"codeberg.org/fitcoach/server/internal/logger"
	"codeberg.org/fitcoach/server/internal/quota"
	"github.com/gin-gonic/gin"
)

// invoices with many line items run well past 64 KiB
const maxWebhookBody = 1 << 20

type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (*billing.Event, error)
}

type AccountReader interface {
	Get(ctx context.Context, userID string) (*accounts.Account, error)
}

type Syncer interface {
	Sync(ctx context.Context, userID string) (*accounts.Account, error)
}

type QuotaReader interface {
	Usage(ctx context.Context, userID, tier string) (*quota.Usage, error)
}

type SessionCreator interface {
	CheckoutURL(ctx context.Context, userID, email, customerID string) (string, error)
	PortalURL(ctx context.Context, customerID string) (string, error)
}

// everything the status endpoint reads
type StatusDeps struct {
	Accounts  AccountReader
	Syncer    Syncer
	Quota     QuotaReader
	IsMetered func(accounts.Plan) bool
	Now       func() time.Time
}

// WebhookHandler godoc
// @Summary Receive billing platform events
// @Description Verifies the Stripe-Signature header and applies the event to the entitlement account.
// @Tags billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Router /api/v1/billing/webhook [post]
//
// receives platform webhooks. only a failed signature or an oversized body is
// rejected; once verified the event is acknowledged with 200 even when it could
// not be applied. such events stay unmarked and a pull sync repairs the account.
func WebhookHandler(proc WebhookProcessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				apierrors.PayloadTooLarge(c, err)
				return
			}

			apierrors.BadRequest(c, err)
			return
		}

		ev, err := proc.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		switch {
		case err == nil:

		case errors.Is(err, billing.ErrInvalidSignature):
			logger.Warn("rejected webhook with invalid signature", "error", err)
			apierrors.InvalidSignature(c, err)
			return

		case errors.Is(err, billing.ErrMalformedEvent):
			logger.ErrorErr(err, "verified billing event could not be decoded")

		default:
			eventID := ""
			if ev != nil {
				eventID = ev.ID
			}
			logger.ErrorErr(err, "failed to apply billing event", "event_id", eventID)
		}

		c.JSON(http.StatusOK, WebhookResponse{Received: true})
	}
}

// StatusHandler godoc
// @Summary Get billing status
// @Description Returns plan, token balance, renewal and today's quota. With sync=1 the account is reconciled with the billing platform first.
// @Tags billing
// @Produce json
// @Param sync query string false "Set to 1 to reconcile first"
// @Success 200 {object} StatusResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/billing/status [get]
// @Security BearerAuth
func StatusHandler(deps StatusDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c)
			return
		}

		ctx := c.Request.Context()
		degraded := false

		var (
			acc *accounts.Account
			err error
		)

		if c.Query("sync") == "1" {
			acc, err = deps.Syncer.Sync(ctx, userID)
			if err != nil {
				logger.Warn("billing sync failed, serving degraded status", "user_id", userID, "error", err)
				degraded = true
			}
		}

		if acc == nil {
			if acc, err = deps.Accounts.Get(ctx, userID); err != nil {
				apierrors.InternalError(c, "failed to load account", err)
				return
			}
		}

		resp := StatusResponse{
			Plan:               acc.Plan,
			SubscriptionStatus: acc.SubscriptionStatus,
			CurrentPeriodEnd:   acc.CurrentPeriodEnd,
			Degraded:           degraded,
		}

		if degraded {
			resp.Plan = accounts.PlanFree
		} else if deps.IsMetered(acc.Plan) {
			balance := accounts.EffectiveBalance(acc, deps.Now())
			resp.TokenBalance = &balance
			resp.TokenRenewalAt = acc.TokenExpiryAt
		}

		usage, err := deps.Quota.Usage(ctx, userID, string(resp.Plan))
		if err != nil {
			logger.Warn("failed to read quota usage", "user_id", userID, "error", err)
		} else {
			resp.Quota = usage
		}

		c.JSON(http.StatusOK, resp)
	}
}

// CheckoutHandler godoc
// @Summary Start a subscription checkout
// @Tags billing
// @Produce json
// @Success 200 {object} URLResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/billing/checkout [post]
// @Security BearerAuth
func CheckoutHandler(accts AccountReader, sessions SessionCreator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c)
			return
		}

		acc, err := accts.Get(c.Request.Context(), userID)
		if err != nil {
			apierrors.InternalError(c, "failed to load account", err)
			return
		}

		url, err := sessions.CheckoutURL(c.Request.Context(), userID, auth.GetEmail(c), acc.ExternalCustomerID)
		if err != nil {
			apierrors.BillingUnavailable(c, err)
			return
		}

		c.JSON(http.StatusOK, URLResponse{URL: url})
	}
}

// PortalHandler godoc
// @Summary Open the billing portal
// @Description Only for accounts that already went through checkout.
// @Tags billing
// @Produce json
// @Success 200 {object} URLResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/billing/portal [post]
// @Security BearerAuth
func PortalHandler(accts AccountReader, sessions SessionCreator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c)
			return
		}

		acc, err := accts.Get(c.Request.Context(), userID)
		if err != nil {
			apierrors.InternalError(c, "failed to load account", err)
			return
		}

		if acc.ExternalCustomerID == "" {
			apierrors.BadRequest(c, errors.New("account has no billing customer"))
			return
		}

		url, err := sessions.PortalURL(c.Request.Context(), acc.ExternalCustomerID)
		if err != nil {
			apierrors.BillingUnavailable(c, err)
			return
		}

		c.JSON(http.StatusOK, URLResponse{URL: url})
	}
}
