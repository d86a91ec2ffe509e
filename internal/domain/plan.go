// Package domain contains core business types and interfaces.
//
// This file defines the plan policy: pure decision functions that map a
// subscription's plan, usage counter, billing period boundary, and the
// current time to an allow/deny decision. No I/O happens here.
package domain

import (
	"fmt"
	"time"
)

// Proposal limits per plan. A negative limit means unlimited.
const (
	FreeProposalLimit    = 1
	StarterProposalLimit = 30
	UnlimitedProposals   = -1
)

// ProposalLimit returns the per-period proposal limit for a plan.
func ProposalLimit(plan Plan) int {
	switch plan {
	case PlanStarter:
		return StarterProposalLimit
	case PlanPremium:
		return UnlimitedProposals
	default:
		return FreeProposalLimit
	}
}

// Denial codes surfaced to clients.
const (
	CodeQuotaExceeded        = "QUOTA_EXCEEDED"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodePremiumRequired      = "PREMIUM_REQUIRED"
)

// Decision is the outcome of a plan policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string // human-readable denial reason, empty when allowed
	Code    string // stable machine-readable denial code, empty when allowed

	// NeedsPeriodReset indicates the billing period has rolled over and the
	// caller must reset the usage counter before proceeding. Only set on
	// allowed decisions for paid plans.
	NeedsPeriodReset bool
}

// EvaluateGeneration decides whether a proposal generation is allowed for the
// given subscription at the given wall-clock time.
//
// Rules:
//   - free: allowed while proposals_count < 1.
//   - starter: allowed while proposals_count < 30; once the counter is full,
//     a crossed period boundary (now >= current_period_end) rolls the period
//     over and allows with NeedsPeriodReset set.
//   - premium: always allowed.
func EvaluateGeneration(sub *Subscription, now time.Time) Decision {
	switch sub.Plan {
	case PlanPremium:
		return Decision{Allowed: true}

	case PlanStarter:
		if sub.ProposalsCount < StarterProposalLimit {
			return Decision{Allowed: true}
		}
		if sub.CurrentPeriodEnd != nil && !now.Before(*sub.CurrentPeriodEnd) {
			// Period boundary crossed: counter resets for the new period.
			return Decision{Allowed: true, NeedsPeriodReset: true}
		}
		return Decision{
			Allowed: false,
			Reason:  "Limite de 30 propostas/mês do plano Starter atingido. Faça upgrade para Premium.",
			Code:    CodeQuotaExceeded,
		}

	default:
		if sub.ProposalsCount < FreeProposalLimit {
			return Decision{Allowed: true}
		}
		return Decision{
			Allowed: false,
			Reason:  "Limite de propostas do plano Free atingido. Faça upgrade para continuar.",
			Code:    CodeQuotaExceeded,
		}
	}
}

// RequirePlan gates a feature behind a minimum plan tier. The subscription
// must be active and at least at the required tier's level.
func RequirePlan(sub *Subscription, required Plan) Decision {
	if !sub.IsActive() || sub.Plan.Level() < required.Level() {
		code := CodeSubscriptionRequired
		if required == PlanPremium {
			code = CodePremiumRequired
		}
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("Plano %s necessário", required),
			Code:    code,
		}
	}
	return Decision{Allowed: true}
}
