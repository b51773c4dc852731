package model

import "time"

// User carries only what the payment core needs: identity and the denormalized
// subscription plan pointer mutated by the activation service. The effective
// validity window is derived, not stored: most recent successful payment's
// creation time plus the plan duration.
type User struct {
	ID                 string
	Email              string
	Name               string
	SubscriptionPlanID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubscriptionExpiresAt derives the validity window end from the latest
// successful payment. Returns nil when the user has no plan or no payment.
func (u *User) SubscriptionExpiresAt(latestSuccess *Payment, plan *SubscriptionPlan) *time.Time {
	if u.SubscriptionPlanID == nil || latestSuccess == nil || plan.IsZero() {
		return nil
	}
	t := latestSuccess.CreatedAt.Add(plan.Duration())
	return &t
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }
