// Package usage tracks the account's minutes budget: a cheap local
// estimate for each clip, clamped to the known balance, and a single
// authoritative reconciliation call per turn. The server's answer
// always replaces the local value.
package usage

import (
	"math"

	"prompter/account"
)

// EstimateDivisor converts clip bytes to an optimistic seconds
// estimate. A coarse heuristic tuned against typical compressed clip
// sizes, not a billing constant; the reconciled server figure is the
// one that counts.
const EstimateDivisor = 4096

// Budget is the locally known minutes state. Unlimited plans carry
// the sentinel and are never clamped or blocked.
type Budget struct {
	RemainingMinutes int
	Unlimited        bool
}

// FromUser derives a Budget from an account snapshot.
func FromUser(u *account.User) Budget {
	return Budget{
		RemainingMinutes: u.RemainingMinutes(),
		Unlimited:        u.Unlimited(),
	}
}

// RemainingSeconds converts the balance to whole seconds. Unlimited
// budgets report a negative value; callers must check Unlimited first.
func (b Budget) RemainingSeconds() int {
	if b.Unlimited {
		return -1
	}
	return max(0, b.RemainingMinutes*60)
}

// Exhausted reports whether a metered budget has nothing left.
func (b Budget) Exhausted() bool {
	return !b.Unlimited && b.RemainingMinutes <= 0
}

// EstimateSeconds approximates a clip's billable duration from its
// encoded size. Always at least one second so an attempt is never
// free by rounding.
func EstimateSeconds(clipBytes int) int {
	return max(1, int(math.Round(float64(clipBytes)/EstimateDivisor)))
}

// ClampToRemaining caps an estimate at the known balance so one clip
// can never request more consumption than the account has left.
// Unlimited budgets pass the estimate through untouched.
func (b Budget) ClampToRemaining(seconds int) int {
	if b.Unlimited {
		return seconds
	}
	return min(seconds, b.RemainingSeconds())
}
