package model

import (
	"time"

	"github.com/shopspring/decimal"

	"studyplan-subscription/internal/domain"
)

// SubscriptionPlan is a static catalog entity: purchasable plan with a fixed
// duration, price and feature limits. Read-only from the payment core's
// perspective.
type SubscriptionPlan struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	DurationDays int
	Features     map[string]any // usage quotas, e.g. "ai_limit", "crawl_limit"
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, price decimal.Decimal, durationDays int) (*SubscriptionPlan, error) {
	if id == "" || name == "" || durationDays <= 0 || !price.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &SubscriptionPlan{
		ID:           id,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *SubscriptionPlan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
