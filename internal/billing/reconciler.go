package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/logger"
)

// expiry used when neither the invoice nor the platform reports a period end
const fallbackPeriod = 30 * 24 * time.Hour

// applies billing lifecycle events (push) and on-demand syncs (pull) to
// entitlement accounts. every transition is a single repository write, so
// replays and reordered events converge.
type Reconciler struct {
	accounts  accounts.Repository
	source    SubscriptionSource
	priceID   string
	allowance int64
	now       func() time.Time
}

func NewReconciler(repo accounts.Repository, source SubscriptionSource, priceID string, monthlyAllowance int64) *Reconciler {
	return &Reconciler{
		accounts:  repo,
		source:    source,
		priceID:   priceID,
		allowance: monthlyAllowance,
		now:       time.Now,
	}
}

func (r *Reconciler) HandleEvent(ctx context.Context, ev *Event) error {
	log := logger.FromContext(ctx).With("event_id", ev.ID, "event_type", ev.Type)

	switch ev.Type {
	case EventCheckoutCompleted:
		return r.handleCheckout(ctx, log, ev)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return r.handleSubscription(ctx, log, ev)
	case EventInvoicePaid:
		return r.handleInvoicePaid(ctx, log, ev)
	case EventInvoicePaymentFailed:
		return r.handleInvoiceFailed(ctx, log, ev)
	default:
		log.Debug("ignoring billing event")
		return nil
	}
}

// links the customer to the user that started checkout, then pulls the
// platform state. subscription and invoice events that arrived before the link
// were skipped as unknown customers, so the pull is what grants the plan then.
func (r *Reconciler) handleCheckout(ctx context.Context, log *slog.Logger, ev *Event) error {
	if ev.CustomerID == "" {
		log.Warn("checkout without customer, skipping")
		return nil
	}

	userID := ev.ClientReferenceID
	if userID == "" {
		acc, err := r.accountFor(ctx, log, ev.CustomerID)
		if err != nil || acc == nil {
			return err
		}
		userID = acc.UserID
	}

	if _, err := r.accounts.LinkCustomer(ctx, userID, ev.CustomerID, ev.SubscriptionID); err != nil {
		return fmt.Errorf("failed to link customer: %w", err)
	}

	log.Info("linked billing customer", "user_id", userID, "customer_id", ev.CustomerID)

	if _, err := r.Sync(ctx, userID); err != nil {
		return fmt.Errorf("failed to sync after checkout: %w", err)
	}

	return nil
}

// reads the platform for the customer's current subscription instead of
// trusting the event snapshot, which may be stale when events arrive out of order
func (r *Reconciler) handleSubscription(ctx context.Context, log *slog.Logger, ev *Event) error {
	acc, err := r.accountFor(ctx, log, ev.CustomerID)
	if err != nil || acc == nil {
		return err
	}

	active, err := r.source.ActiveSubscription(ctx, ev.CustomerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	if active != nil {
		if _, err := r.accounts.ApplySubscription(ctx, acc.UserID, stateOf(active)); err != nil {
			return fmt.Errorf("failed to apply subscription: %w", err)
		}

		log.Info("subscription active", "user_id", acc.UserID, "subscription_id", active.ID, "status", active.Status)
		return nil
	}

	status := ""
	if ev.Subscription != nil {
		status = ev.Subscription.Status
	}

	if ev.Type != EventSubscriptionDeleted && !isCancelStatus(status) {
		log.Debug("no active subscription and no cancellation signal", "user_id", acc.UserID, "status", status)
		return nil
	}

	if status == "" {
		status = "canceled"
	}

	if _, err := r.accounts.Demote(ctx, acc.UserID, status); err != nil {
		return fmt.Errorf("failed to demote account: %w", err)
	}

	log.Info("subscription ended, account demoted", "user_id", acc.UserID, "status", status)
	return nil
}

func (r *Reconciler) handleInvoicePaid(ctx context.Context, log *slog.Logger, ev *Event) error {
	inv := ev.Invoice
	if inv == nil || !slices.Contains(inv.PriceIDs, r.priceID) {
		log.Debug("invoice not for the tracked price, skipping")
		return nil
	}

	acc, err := r.accountFor(ctx, log, ev.CustomerID)
	if err != nil || acc == nil {
		return err
	}

	periodEnd := inv.PeriodEnd
	if periodEnd == nil {
		active, err := r.source.ActiveSubscription(ctx, ev.CustomerID)
		if err != nil {
			log.Warn("period end lookup failed, using fallback", "error", err)
		} else if active != nil {
			periodEnd = active.CurrentPeriodEnd
		}
	}

	expiry, ref := r.topUpTerms(inv.SubscriptionID, periodEnd, inv.ID)

	updated, applied, err := r.accounts.TopUp(ctx, acc.UserID, r.allowance, expiry, ref)
	if err != nil {
		return fmt.Errorf("failed to top up account: %w", err)
	}

	log.Info("invoice paid", "user_id", acc.UserID, "applied", applied, "balance", updated.TokenBalance, "expires_at", expiry)
	return nil
}

// a failed payment only demotes once the platform no longer reports an
// active subscription; while it retries the charge the account stays PRO
func (r *Reconciler) handleInvoiceFailed(ctx context.Context, log *slog.Logger, ev *Event) error {
	acc, err := r.accountFor(ctx, log, ev.CustomerID)
	if err != nil || acc == nil {
		return err
	}

	active, err := r.source.ActiveSubscription(ctx, ev.CustomerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	if active != nil {
		log.Info("payment failed but subscription still active", "user_id", acc.UserID, "status", active.Status)
		return nil
	}

	if _, err := r.accounts.Demote(ctx, acc.UserID, "payment_failed"); err != nil {
		return fmt.Errorf("failed to demote account: %w", err)
	}

	log.Info("payment failed, account demoted", "user_id", acc.UserID)
	return nil
}

// pulls the platform state for userID and applies it. the allowance is only
// re-granted when the stored entitlement is stale for the current period.
func (r *Reconciler) Sync(ctx context.Context, userID string) (*accounts.Account, error) {
	log := logger.FromContext(ctx).With("user_id", userID)

	acc, err := r.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if acc.ExternalCustomerID == "" {
		return acc, nil
	}

	active, err := r.source.ActiveSubscription(ctx, acc.ExternalCustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	if active == nil {
		if acc.Plan == accounts.PlanFree && acc.TokenBalance == 0 {
			return acc, nil
		}

		log.Info("no active subscription on sync, demoting")
		return r.accounts.Demote(ctx, userID, "canceled")
	}

	acc, err = r.accounts.ApplySubscription(ctx, userID, stateOf(active))
	if err != nil {
		return nil, err
	}

	now := r.now()
	if !accounts.IsStale(acc, active.CurrentPeriodEnd, now) {
		return acc, nil
	}

	expiry, ref := r.topUpTerms(active.ID, active.CurrentPeriodEnd, "")

	acc, applied, err := r.accounts.TopUp(ctx, userID, r.allowance, expiry, ref)
	if err != nil {
		return nil, err
	}

	log.Info("entitlement refreshed on sync", "applied", applied, "expires_at", expiry)
	return acc, nil
}

// expiry and idempotency ref for a top-up. the ref names the subscription
// period, so a push and a pull for the same period grant the allowance once.
func (r *Reconciler) topUpTerms(subscriptionID string, periodEnd *time.Time, fallbackRef string) (time.Time, string) {
	if periodEnd != nil && subscriptionID != "" {
		return *periodEnd, fmt.Sprintf("%s:%d", subscriptionID, periodEnd.Unix())
	}

	expiry := r.now().Add(fallbackPeriod)
	if periodEnd != nil {
		expiry = *periodEnd
	}

	if fallbackRef == "" {
		fallbackRef = fmt.Sprintf("%s:%d", subscriptionID, expiry.Unix())
	}

	return expiry, fallbackRef
}

// nil account with nil error means the customer is unknown and the event is skipped
func (r *Reconciler) accountFor(ctx context.Context, log *slog.Logger, customerID string) (*accounts.Account, error) {
	if customerID == "" {
		log.Warn("billing event without customer, skipping")
		return nil, nil
	}

	acc, err := r.accounts.FindByCustomerID(ctx, customerID)
	if errors.Is(err, accounts.ErrNotFound) {
		log.Warn("billing event for unknown customer, skipping", "customer_id", customerID)
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}

	return acc, nil
}

func stateOf(sub *Subscription) accounts.SubscriptionState {
	return accounts.SubscriptionState{
		SubscriptionID:   sub.ID,
		Status:           sub.Status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
}
