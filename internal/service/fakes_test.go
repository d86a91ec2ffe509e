package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/repository"
)

// undefinedTableError builds the Postgres error a query against a missing
// relation produces.
func undefinedTableError() error {
	return &pgconn.PgError{Code: "42P01", Message: `relation "project_plans" does not exist`}
}

// mockSubscriptionStore implements SubscriptionStore with configurable
// function fields. Nil fields fall back to not-found / no-op behavior so
// tests only wire what they assert on.
type mockSubscriptionStore struct {
	GetByUserIDFn     func(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	GetByStripeIDFn   func(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)
	EnsureFn          func(ctx context.Context, userID uuid.UUID) error
	ActivateFn        func(ctx context.Context, params repository.ActivateSubscriptionParams) error
	UpdateStatusFn    func(ctx context.Context, params repository.UpdateSubscriptionStatusParams) error
	MarkCanceledFn    func(ctx context.Context, stripeSubscriptionID string) error
	ResetIfExpiredFn  func(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
	IncrementBelowFn  func(ctx context.Context, userID uuid.UUID, limit int) (bool, error)

	ActivateCalls  []repository.ActivateSubscriptionParams
	IncrementCalls int
	ResetCalls     int
}

func (m *mockSubscriptionStore) GetSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubscriptionStore) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	if m.GetByStripeIDFn != nil {
		return m.GetByStripeIDFn(ctx, stripeSubscriptionID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubscriptionStore) EnsureSubscription(ctx context.Context, userID uuid.UUID) error {
	if m.EnsureFn != nil {
		return m.EnsureFn(ctx, userID)
	}
	return nil
}

func (m *mockSubscriptionStore) ActivateSubscription(ctx context.Context, params repository.ActivateSubscriptionParams) error {
	m.ActivateCalls = append(m.ActivateCalls, params)
	if m.ActivateFn != nil {
		return m.ActivateFn(ctx, params)
	}
	return nil
}

func (m *mockSubscriptionStore) UpdateSubscriptionStatus(ctx context.Context, params repository.UpdateSubscriptionStatusParams) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, params)
	}
	return nil
}

func (m *mockSubscriptionStore) MarkSubscriptionCanceled(ctx context.Context, stripeSubscriptionID string) error {
	if m.MarkCanceledFn != nil {
		return m.MarkCanceledFn(ctx, stripeSubscriptionID)
	}
	return nil
}

func (m *mockSubscriptionStore) ResetProposalsCountIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	m.ResetCalls++
	if m.ResetIfExpiredFn != nil {
		return m.ResetIfExpiredFn(ctx, userID, now)
	}
	return false, nil
}

func (m *mockSubscriptionStore) IncrementProposalsCountIfBelow(ctx context.Context, userID uuid.UUID, limit int) (bool, error) {
	m.IncrementCalls++
	if m.IncrementBelowFn != nil {
		return m.IncrementBelowFn(ctx, userID, limit)
	}
	return true, nil
}

// mockJobStore implements JobStore with configurable function fields.
type mockJobStore struct {
	CreateJobFn func(ctx context.Context, params repository.CreateJobParams) (*domain.Job, error)
	GetJobFn    func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	ListJobsFn  func(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Job, error)

	CreateJobCalls []repository.CreateJobParams
}

func (m *mockJobStore) CreateJob(ctx context.Context, params repository.CreateJobParams) (*domain.Job, error) {
	m.CreateJobCalls = append(m.CreateJobCalls, params)
	if m.CreateJobFn != nil {
		return m.CreateJobFn(ctx, params)
	}
	return &domain.Job{
		ID:                uuid.New(),
		UserID:            params.UserID,
		Profile:           params.Profile,
		OldProposals:      params.OldProposals,
		JobDescription:    params.JobDescription,
		GeneratedProposal: params.GeneratedProposal,
		CreatedAt:         time.Now(),
	}, nil
}

func (m *mockJobStore) GetJobByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockJobStore) ListJobsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Job, error) {
	if m.ListJobsFn != nil {
		return m.ListJobsFn(ctx, userID, limit)
	}
	return nil, nil
}

// mockPremiumStore implements PremiumStore with configurable function fields.
type mockPremiumStore struct {
	CreatePlanFn      func(ctx context.Context, params repository.CreateProjectPlanParams) (*domain.ProjectPlan, error)
	GetPlanFn         func(ctx context.Context, id uuid.UUID) (*domain.ProjectPlan, error)
	UpdateChecklistFn func(ctx context.Context, id uuid.UUID, completedItems []string) error
	CreateDialogFn    func(ctx context.Context, params repository.CreateClientDialogParams) (*domain.ClientDialog, error)
	ListDialogsFn     func(ctx context.Context, jobID uuid.UUID) ([]*domain.ClientDialog, error)

	CreateDialogCalls []repository.CreateClientDialogParams
}

func (m *mockPremiumStore) CreateProjectPlan(ctx context.Context, params repository.CreateProjectPlanParams) (*domain.ProjectPlan, error) {
	if m.CreatePlanFn != nil {
		return m.CreatePlanFn(ctx, params)
	}
	return &domain.ProjectPlan{
		ID:             uuid.New(),
		UserID:         params.UserID,
		JobID:          params.JobID,
		PlanItems:      params.PlanItems,
		CompletedItems: []string{},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}, nil
}

func (m *mockPremiumStore) GetProjectPlanByID(ctx context.Context, id uuid.UUID) (*domain.ProjectPlan, error) {
	if m.GetPlanFn != nil {
		return m.GetPlanFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockPremiumStore) UpdateProjectPlanChecklist(ctx context.Context, id uuid.UUID, completedItems []string) error {
	if m.UpdateChecklistFn != nil {
		return m.UpdateChecklistFn(ctx, id, completedItems)
	}
	return nil
}

func (m *mockPremiumStore) CreateClientDialog(ctx context.Context, params repository.CreateClientDialogParams) (*domain.ClientDialog, error) {
	m.CreateDialogCalls = append(m.CreateDialogCalls, params)
	if m.CreateDialogFn != nil {
		return m.CreateDialogFn(ctx, params)
	}
	return &domain.ClientDialog{
		ID:                uuid.New(),
		UserID:            params.UserID,
		JobID:             params.JobID,
		MessageFromClient: params.MessageFromClient,
		MessageFromIA:     params.MessageFromIA,
		CreatedAt:         time.Now(),
	}, nil
}

func (m *mockPremiumStore) ListClientDialogsByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.ClientDialog, error) {
	if m.ListDialogsFn != nil {
		return m.ListDialogsFn(ctx, jobID)
	}
	return nil, nil
}
