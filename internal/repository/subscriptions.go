package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/domain"
)

const subscriptionColumns = `user_id, stripe_subscription_id, plan, status, proposals_count, current_period_end, created_at, updated_at`

func scanSubscription(row interface{ Scan(dest ...any) error }) (*domain.Subscription, error) {
	var (
		s         domain.Subscription
		stripeID  sql.NullString
		periodEnd sql.NullTime
	)
	err := row.Scan(
		&s.UserID,
		&stripeID,
		&s.Plan,
		&s.Status,
		&s.ProposalsCount,
		&periodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.StripeSubscriptionID = stripeID.String
	if periodEnd.Valid {
		t := periodEnd.Time
		s.CurrentPeriodEnd = &t
	}
	return &s, nil
}

const getSubscriptionByUserID = `
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE user_id = $1
`

// GetSubscriptionByUserID returns the subscription row for a user, or
// ErrNotFound when the user has never been through checkout.
func (q *Queries) GetSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, getSubscriptionByUserID, userID))
}

const getSubscriptionByStripeID = `
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE stripe_subscription_id = $1
`

// GetSubscriptionByStripeID looks a subscription up by the Stripe
// subscription reference. Used by the webhook reconciler.
func (q *Queries) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	return scanSubscription(q.db.QueryRowContext(ctx, getSubscriptionByStripeID, stripeSubscriptionID))
}

const ensureSubscription = `
INSERT INTO subscriptions (user_id, plan, status, proposals_count)
VALUES ($1, 'free', 'active', 0)
ON CONFLICT (user_id) DO NOTHING
`

// EnsureSubscription inserts a default free-tier row for the user if none
// exists yet. Safe under concurrency: a concurrent insert wins and this call
// becomes a no-op.
func (q *Queries) EnsureSubscription(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, ensureSubscription, userID)
	return err
}

// ActivateSubscriptionParams holds the fields written on checkout completion.
type ActivateSubscriptionParams struct {
	UserID               uuid.UUID
	StripeSubscriptionID string
	Plan                 domain.Plan
	CurrentPeriodEnd     time.Time
	ResetCounter         bool
}

const activateSubscriptionReset = `
INSERT INTO subscriptions (user_id, stripe_subscription_id, plan, status, proposals_count, current_period_end)
VALUES ($1, $2, $3, 'active', 0, $4)
ON CONFLICT (user_id) DO UPDATE SET
	stripe_subscription_id = EXCLUDED.stripe_subscription_id,
	plan = EXCLUDED.plan,
	status = 'active',
	proposals_count = 0,
	current_period_end = EXCLUDED.current_period_end,
	updated_at = now()
`

const activateSubscriptionKeepCounter = `
INSERT INTO subscriptions (user_id, stripe_subscription_id, plan, status, proposals_count, current_period_end)
VALUES ($1, $2, $3, 'active', 0, $4)
ON CONFLICT (user_id) DO UPDATE SET
	stripe_subscription_id = EXCLUDED.stripe_subscription_id,
	plan = EXCLUDED.plan,
	status = 'active',
	current_period_end = EXCLUDED.current_period_end,
	updated_at = now()
`

// ActivateSubscription upserts the subscription row on checkout completion.
// ResetCounter controls whether proposals_count restarts at 0: true on first
// activation, false when a webhook replay hits an already-active row.
func (q *Queries) ActivateSubscription(ctx context.Context, params ActivateSubscriptionParams) error {
	query := activateSubscriptionKeepCounter
	if params.ResetCounter {
		query = activateSubscriptionReset
	}
	_, err := q.db.ExecContext(ctx, query,
		params.UserID,
		params.StripeSubscriptionID,
		params.Plan,
		params.CurrentPeriodEnd,
	)
	return err
}

// UpdateSubscriptionStatusParams holds the fields overwritten on
// customer.subscription.updated events.
type UpdateSubscriptionStatusParams struct {
	StripeSubscriptionID string
	Status               domain.SubscriptionStatus
	CurrentPeriodEnd     time.Time
}

const updateSubscriptionStatus = `
UPDATE subscriptions
SET status = $2, current_period_end = $3, updated_at = now()
WHERE stripe_subscription_id = $1
`

// UpdateSubscriptionStatus overwrites status and period end for the row
// matching the Stripe reference. Returns ErrNotFound when no row matches.
func (q *Queries) UpdateSubscriptionStatus(ctx context.Context, params UpdateSubscriptionStatusParams) error {
	res, err := q.db.ExecContext(ctx, updateSubscriptionStatus,
		params.StripeSubscriptionID,
		params.Status,
		params.CurrentPeriodEnd,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const markSubscriptionCanceled = `
UPDATE subscriptions
SET status = 'canceled', updated_at = now()
WHERE stripe_subscription_id = $1
`

// MarkSubscriptionCanceled transitions the row matching the Stripe reference
// to canceled. Returns ErrNotFound when no row matches.
func (q *Queries) MarkSubscriptionCanceled(ctx context.Context, stripeSubscriptionID string) error {
	res, err := q.db.ExecContext(ctx, markSubscriptionCanceled, stripeSubscriptionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const resetProposalsCountIfExpired = `
UPDATE subscriptions
SET proposals_count = 0, updated_at = now()
WHERE user_id = $1
  AND current_period_end IS NOT NULL
  AND current_period_end <= $2
  AND proposals_count > 0
`

// ResetProposalsCountIfExpired resets the usage counter when the billing
// period boundary has been crossed. The guard clause makes concurrent resets
// converge: the second statement matches zero rows.
func (q *Queries) ResetProposalsCountIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, resetProposalsCountIfExpired, userID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const incrementProposalsCountIfBelow = `
UPDATE subscriptions
SET proposals_count = proposals_count + 1, updated_at = now()
WHERE user_id = $1
  AND ($2 < 0 OR proposals_count < $2)
`

// IncrementProposalsCountIfBelow atomically increments the usage counter only
// while it is still below the plan limit. A negative limit means unlimited.
// Returns false when the precondition no longer holds, which closes the
// read-then-write race between concurrent generation requests.
func (q *Queries) IncrementProposalsCountIfBelow(ctx context.Context, userID uuid.UUID, limit int) (bool, error) {
	res, err := q.db.ExecContext(ctx, incrementProposalsCountIfBelow, userID, limit)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
