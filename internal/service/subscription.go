// Package service contains the business logic layer.
//
// This file implements the subscription service: the shared effective-
// subscription accessor and the webhook reconciler that maps payment
// processor events onto quota store writes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SubscriptionService defines subscription resolution and reconciliation.
type SubscriptionService interface {
	// ResolveEffective returns the subscription for a user, substituting the
	// implicit free-tier default when no row exists. Every plan gate in the
	// system goes through this accessor.
	ResolveEffective(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)

	// ApplyCheckoutCompleted reconciles a completed checkout: upserts the
	// subscription row as active on the purchased plan. Idempotent under
	// event replay; the usage counter resets only on first activation.
	ApplyCheckoutCompleted(ctx context.Context, params CheckoutCompletedParams) error

	// ApplySubscriptionUpdated overwrites status and period end for the row
	// matching the Stripe reference. Unknown references are dropped.
	ApplySubscriptionUpdated(ctx context.Context, stripeSubscriptionID string, status domain.SubscriptionStatus, periodEnd time.Time) error

	// ApplySubscriptionDeleted transitions the row matching the Stripe
	// reference to canceled. Unknown references are dropped.
	ApplySubscriptionDeleted(ctx context.Context, stripeSubscriptionID string) error
}

// CheckoutCompletedParams carries the reconciliation payload of a
// checkout.session.completed event after price resolution.
type CheckoutCompletedParams struct {
	UserID               uuid.UUID
	StripeSubscriptionID string
	Plan                 domain.Plan
	CurrentPeriodEnd     time.Time
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	store  SubscriptionStore
	logger *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(store SubscriptionStore, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		store:  store,
		logger: logger,
	}
}

func (s *subscriptionService) ResolveEffective(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	const op = "subscription.resolve"

	sub, err := s.store.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DefaultSubscription(userID), nil
		}
		return nil, domain.Internal(err, op, "failed to load subscription")
	}
	return sub, nil
}

func (s *subscriptionService) ApplyCheckoutCompleted(ctx context.Context, params CheckoutCompletedParams) error {
	const op = "subscription.checkout_completed"

	// First activation resets the usage counter; a replay of the same event
	// (or a renewal webhook for the same subscription) must not. Prior state
	// decides which write runs.
	resetCounter := true
	prior, err := s.store.GetSubscriptionByUserID(ctx, params.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.Internal(err, op, "failed to load prior subscription")
	}
	if prior != nil && prior.StripeSubscriptionID == params.StripeSubscriptionID {
		resetCounter = false
	}

	err = s.store.ActivateSubscription(ctx, repository.ActivateSubscriptionParams{
		UserID:               params.UserID,
		StripeSubscriptionID: params.StripeSubscriptionID,
		Plan:                 params.Plan,
		CurrentPeriodEnd:     params.CurrentPeriodEnd,
		ResetCounter:         resetCounter,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to activate subscription")
	}

	s.logger.Info("subscription activated",
		"user_id", params.UserID,
		"plan", params.Plan,
		"subscription_id", params.StripeSubscriptionID,
		"counter_reset", resetCounter,
	)
	return nil
}

func (s *subscriptionService) ApplySubscriptionUpdated(ctx context.Context, stripeSubscriptionID string, status domain.SubscriptionStatus, periodEnd time.Time) error {
	const op = "subscription.updated"

	prior, err := s.store.GetSubscriptionByStripeID(ctx, stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No local row for this reference: nothing to reconcile.
			s.logger.Warn("subscription update for unknown reference dropped",
				"subscription_id", stripeSubscriptionID)
			return nil
		}
		return domain.Internal(err, op, "failed to load subscription")
	}

	err = s.store.UpdateSubscriptionStatus(ctx, repository.UpdateSubscriptionStatusParams{
		StripeSubscriptionID: stripeSubscriptionID,
		Status:               status,
		CurrentPeriodEnd:     periodEnd,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update subscription")
	}

	s.logger.Info("subscription updated",
		"subscription_id", stripeSubscriptionID,
		"user_id", prior.UserID,
		"status", status,
	)
	return nil
}

func (s *subscriptionService) ApplySubscriptionDeleted(ctx context.Context, stripeSubscriptionID string) error {
	const op = "subscription.deleted"

	err := s.store.MarkSubscriptionCanceled(ctx, stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("subscription deletion for unknown reference dropped",
				"subscription_id", stripeSubscriptionID)
			return nil
		}
		return domain.Internal(err, op, "failed to cancel subscription")
	}

	s.logger.Info("subscription canceled", "subscription_id", stripeSubscriptionID)
	return nil
}
