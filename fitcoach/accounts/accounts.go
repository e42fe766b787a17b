// Package accounts stores per-user entitlements: plan tier, prepaid token
// balance and the subscription fields mirrored from the billing platform.
package accounts

import "time"

// balance usable at now; an unset or past expiry always reads as zero
func EffectiveBalance(acc *Account, now time.Time) int64 {
	if acc == nil || acc.TokenExpiryAt == nil || !acc.TokenExpiryAt.After(now) {
		return 0
	}

	if acc.TokenBalance < 0 {
		return 0
	}

	return acc.TokenBalance
}

// reports whether the stored entitlement needs refreshing for a period ending at periodEnd
func IsStale(acc *Account, periodEnd *time.Time, now time.Time) bool {
	if acc.TokenExpiryAt == nil || !acc.TokenExpiryAt.After(now) {
		return true
	}

	return periodEnd != nil && acc.TokenExpiryAt.Before(*periodEnd)
}
