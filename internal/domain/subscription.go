// Package domain contains core business types and interfaces.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan represents the pricing tier of a subscription.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPremium Plan = "premium"
)

// planLevels orders plans for feature gating. Unknown plans rank as free.
var planLevels = map[Plan]int{
	PlanFree:    0,
	PlanStarter: 1,
	PlanPremium: 2,
}

// Level returns the hierarchy level of the plan (free=0, starter=1, premium=2).
func (p Plan) Level() int {
	return planLevels[p]
}

// Valid checks if the plan is a known tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPremium:
		return true
	default:
		return false
	}
}

// SubscriptionStatus mirrors the Stripe subscription status vocabulary.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// Subscription is the durable quota record for a user: one row per user,
// keyed on the external identity provider's user ID.
type Subscription struct {
	UserID               uuid.UUID
	StripeSubscriptionID string // empty for implicit free-tier records
	Plan                 Plan
	Status               SubscriptionStatus
	ProposalsCount       int
	CurrentPeriodEnd     *time.Time // nil for free-tier records
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether the subscription grants access to paid features.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// DefaultSubscription returns the effective subscription for a user with no
// stored row: free plan, zero usage, active. Every component resolves missing
// rows through this single accessor so the implicit free tier behaves the
// same on the generation, export, and premium paths.
func DefaultSubscription(userID uuid.UUID) *Subscription {
	return &Subscription{
		UserID: userID,
		Plan:   PlanFree,
		Status: SubscriptionStatusActive,
	}
}
