// Package service contains the business logic layer.
//
// Services orchestrate interactions between the repository, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Plan policy enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/repository"
)

// SubscriptionStore is the quota-store surface the services depend on.
// *repository.Queries satisfies it; tests substitute in-memory fakes.
type SubscriptionStore interface {
	GetSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)
	EnsureSubscription(ctx context.Context, userID uuid.UUID) error
	ActivateSubscription(ctx context.Context, params repository.ActivateSubscriptionParams) error
	UpdateSubscriptionStatus(ctx context.Context, params repository.UpdateSubscriptionStatusParams) error
	MarkSubscriptionCanceled(ctx context.Context, stripeSubscriptionID string) error
	ResetProposalsCountIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
	IncrementProposalsCountIfBelow(ctx context.Context, userID uuid.UUID, limit int) (bool, error)
}

// JobStore is the generated-proposal storage surface.
type JobStore interface {
	CreateJob(ctx context.Context, params repository.CreateJobParams) (*domain.Job, error)
	GetJobByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	ListJobsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Job, error)
}

// PremiumStore is the storage surface for the premium planning features.
type PremiumStore interface {
	CreateProjectPlan(ctx context.Context, params repository.CreateProjectPlanParams) (*domain.ProjectPlan, error)
	GetProjectPlanByID(ctx context.Context, id uuid.UUID) (*domain.ProjectPlan, error)
	UpdateProjectPlanChecklist(ctx context.Context, id uuid.UUID, completedItems []string) error
	CreateClientDialog(ctx context.Context, params repository.CreateClientDialogParams) (*domain.ClientDialog, error)
	ListClientDialogsByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.ClientDialog, error)
}
