package handler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProposalService implements service.ProposalService with func fields.
type mockProposalService struct {
	GenerateFn func(ctx context.Context, params service.GenerateProposalParams) (*domain.Job, error)
	ListJobsFn func(ctx context.Context, userID string, limit int) ([]*domain.Job, error)
}

func (m *mockProposalService) Generate(ctx context.Context, params service.GenerateProposalParams) (*domain.Job, error) {
	return m.GenerateFn(ctx, params)
}

func (m *mockProposalService) ListJobs(ctx context.Context, userID string, limit int) ([]*domain.Job, error) {
	return m.ListJobsFn(ctx, userID, limit)
}

// mockSubscriptionService implements service.SubscriptionService.
type mockSubscriptionService struct {
	ResolveEffectiveFn func(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	CheckoutFn         func(ctx context.Context, params service.CheckoutCompletedParams) error
	UpdatedFn          func(ctx context.Context, id string, status domain.SubscriptionStatus, periodEnd time.Time) error
	DeletedFn          func(ctx context.Context, id string) error

	CheckoutCalls int
	UpdatedCalls  int
	DeletedCalls  int
}

func (m *mockSubscriptionService) ResolveEffective(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	if m.ResolveEffectiveFn != nil {
		return m.ResolveEffectiveFn(ctx, userID)
	}
	return domain.DefaultSubscription(userID), nil
}

func (m *mockSubscriptionService) ApplyCheckoutCompleted(ctx context.Context, params service.CheckoutCompletedParams) error {
	m.CheckoutCalls++
	if m.CheckoutFn != nil {
		return m.CheckoutFn(ctx, params)
	}
	return nil
}

func (m *mockSubscriptionService) ApplySubscriptionUpdated(ctx context.Context, id string, status domain.SubscriptionStatus, periodEnd time.Time) error {
	m.UpdatedCalls++
	if m.UpdatedFn != nil {
		return m.UpdatedFn(ctx, id, status, periodEnd)
	}
	return nil
}

func (m *mockSubscriptionService) ApplySubscriptionDeleted(ctx context.Context, id string) error {
	m.DeletedCalls++
	if m.DeletedFn != nil {
		return m.DeletedFn(ctx, id)
	}
	return nil
}

// mockPremiumService implements service.PremiumService.
type mockPremiumService struct {
	GeneratePlanFn    func(ctx context.Context, userID, jobID string) (*domain.ProjectPlan, error)
	UpdateChecklistFn func(ctx context.Context, planID string, completedItems []string) (*domain.ProjectPlan, error)
	ChatFn            func(ctx context.Context, params service.ChatParams) (*domain.ClientDialog, error)
	ChatHistoryFn     func(ctx context.Context, userID, jobID string) ([]*domain.ClientDialog, error)
}

func (m *mockPremiumService) GeneratePlan(ctx context.Context, userID, jobID string) (*domain.ProjectPlan, error) {
	return m.GeneratePlanFn(ctx, userID, jobID)
}

func (m *mockPremiumService) UpdateChecklist(ctx context.Context, planID string, completedItems []string) (*domain.ProjectPlan, error) {
	return m.UpdateChecklistFn(ctx, planID, completedItems)
}

func (m *mockPremiumService) Chat(ctx context.Context, params service.ChatParams) (*domain.ClientDialog, error) {
	return m.ChatFn(ctx, params)
}

func (m *mockPremiumService) ChatHistory(ctx context.Context, userID, jobID string) ([]*domain.ClientDialog, error) {
	return m.ChatHistoryFn(ctx, userID, jobID)
}

// mockBillingService implements billing.Service.
type mockBillingService struct {
	CreateCheckoutSessionFn  func(priceID, userID string) (string, error)
	CreatePortalSessionFn    func(subscriptionID string) (string, error)
	GetSubscriptionFn        func(subscriptionID string) (*stripe.Subscription, error)
	VerifyWebhookSignatureFn func(payload []byte, signature string) (stripe.Event, error)
	PlanForPriceIDFn         func(priceID string) domain.Plan
}

func (m *mockBillingService) CreateCheckoutSession(priceID, userID string) (string, error) {
	return m.CreateCheckoutSessionFn(priceID, userID)
}

func (m *mockBillingService) CreatePortalSession(subscriptionID string) (string, error) {
	return m.CreatePortalSessionFn(subscriptionID)
}

func (m *mockBillingService) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	return m.GetSubscriptionFn(subscriptionID)
}

func (m *mockBillingService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	return m.VerifyWebhookSignatureFn(payload, signature)
}

func (m *mockBillingService) PlanForPriceID(priceID string) domain.Plan {
	if m.PlanForPriceIDFn != nil {
		return m.PlanForPriceIDFn(priceID)
	}
	return domain.PlanFree
}
