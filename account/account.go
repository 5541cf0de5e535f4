// Package account models the authenticated user and the subscription
// plan semantics the session pipeline depends on. The backend owns the
// authoritative numbers; this package only interprets them.
package account

// UnlimitedMinutes is the backend's sentinel for plans with no
// minutes ceiling.
const UnlimitedMinutes = -1

// FreePlanMinutes is the total allowance of the free plan. Free users
// have no minutesLeft counter on the backend; their remaining time is
// derived from total minutes used.
const FreePlanMinutes = 5

type Subscription struct {
	Plan        string `json:"plan"`
	MinutesLeft int    `json:"minutesLeft"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

type Usage struct {
	TotalMinutesUsed int `json:"totalMinutesUsed"`
}

type User struct {
	ID           string       `json:"_id"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
	Usage        Usage        `json:"usage"`
}

// Unlimited reports whether the user's plan has no minutes ceiling,
// either via the explicit sentinel or the pro+ plan name.
func (u *User) Unlimited() bool {
	return u.Subscription.MinutesLeft == UnlimitedMinutes || u.Subscription.Plan == "pro+"
}

// RemainingMinutes derives the user's remaining balance. Unlimited
// plans return the sentinel; the free plan subtracts total usage from
// its fixed allowance; metered plans report minutesLeft directly.
// Never negative for metered plans.
func (u *User) RemainingMinutes() int {
	if u.Unlimited() {
		return UnlimitedMinutes
	}
	if u.Subscription.Plan == "free" {
		return max(0, FreePlanMinutes-u.Usage.TotalMinutesUsed)
	}
	return max(0, u.Subscription.MinutesLeft)
}
