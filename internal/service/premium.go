package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lancecerto/lancecerto/internal/ai"
	"github.com/lancecerto/lancecerto/internal/ai/gemini"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PremiumService defines the premium project-planning and client-chat
// operations. Every entry point is gated behind an active premium plan.
type PremiumService interface {
	// GeneratePlan produces a structured task breakdown for a previously
	// generated proposal and persists it with an empty checklist.
	GeneratePlan(ctx context.Context, userID, jobID string) (*domain.ProjectPlan, error)

	// UpdateChecklist replaces a plan's completed-items list and returns the
	// updated plan.
	UpdateChecklist(ctx context.Context, planID string, completedItems []string) (*domain.ProjectPlan, error)

	// Chat generates a suggested reply to a client message in the context of
	// a job and its proposal, persisting the exchange.
	Chat(ctx context.Context, params ChatParams) (*domain.ClientDialog, error)

	// ChatHistory returns the persisted chat exchanges for a job, oldest
	// first.
	ChatHistory(ctx context.Context, userID, jobID string) ([]*domain.ClientDialog, error)
}

// ChatParams carries one premium client-chat request.
type ChatParams struct {
	UserID        string
	JobID         string
	ClientMessage string
	History       []domain.ChatMessage
}

// =============================================================================
// Implementation
// =============================================================================

type premiumService struct {
	subs     SubscriptionStore
	jobs     JobStore
	store    PremiumStore
	provider ai.TextProvider
	logger   *slog.Logger
}

// NewPremiumService creates a new PremiumService.
func NewPremiumService(subs SubscriptionStore, jobs JobStore, store PremiumStore, provider ai.TextProvider, logger *slog.Logger) PremiumService {
	return &premiumService{
		subs:     subs,
		jobs:     jobs,
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

func (s *premiumService) GeneratePlan(ctx context.Context, rawUserID, rawJobID string) (*domain.ProjectPlan, error) {
	const op = "premium.generate_plan"

	userID, jobID, err := parsePremiumIDs(op, rawUserID, rawJobID)
	if err != nil {
		return nil, err
	}

	job, err := s.requirePremiumJob(ctx, op, userID, jobID)
	if err != nil {
		return nil, err
	}

	prompt := gemini.BuildProjectPlanPrompt(job.Profile, job.JobDescription, job.GeneratedProposal, job.OldProposals)
	result, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return nil, translateProviderError(op, err)
	}

	items, err := parsePlanItems(result.Text)
	if err != nil {
		s.logger.Error("failed to parse plan JSON from provider",
			"user_id", userID, "job_id", jobID, "error", err)
		return nil, domain.Internal(err, op, "A IA retornou um planejamento inválido. Tente novamente.")
	}

	plan, err := s.store.CreateProjectPlan(ctx, repository.CreateProjectPlanParams{
		UserID:    userID,
		JobID:     jobID,
		PlanItems: items,
	})
	if err != nil {
		if repository.IsUndefinedTable(err) {
			return nil, domain.TableNotFound(op, "project_plans")
		}
		return nil, domain.Internal(err, op, "failed to persist project plan")
	}

	s.logger.Info("project plan generated", "user_id", userID, "job_id", jobID, "items", len(items))
	return plan, nil
}

func (s *premiumService) UpdateChecklist(ctx context.Context, rawPlanID string, completedItems []string) (*domain.ProjectPlan, error) {
	const op = "premium.update_checklist"

	planID, err := uuid.Parse(rawPlanID)
	if err != nil {
		return nil, domain.NewValidationError(op, "planId", "planId deve ser um UUID válido")
	}
	if completedItems == nil {
		completedItems = []string{}
	}

	if err := s.store.UpdateProjectPlanChecklist(ctx, planID, completedItems); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFound(op, "Planejamento não encontrado")
		case repository.IsUndefinedTable(err):
			return nil, domain.TableNotFound(op, "project_plans")
		default:
			return nil, domain.Internal(err, op, "failed to update checklist")
		}
	}

	plan, err := s.store.GetProjectPlanByID(ctx, planID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reload project plan")
	}
	return plan, nil
}

func (s *premiumService) Chat(ctx context.Context, params ChatParams) (*domain.ClientDialog, error) {
	const op = "premium.chat"

	userID, jobID, err := parsePremiumIDs(op, params.UserID, params.JobID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.ClientMessage) == "" {
		return nil, domain.NewValidationError(op, "clientMessage", "Mensagem do cliente é obrigatória")
	}

	job, err := s.requirePremiumJob(ctx, op, userID, jobID)
	if err != nil {
		return nil, err
	}

	prompt := gemini.BuildChatPrompt(job.JobDescription, job.GeneratedProposal, params.ClientMessage, params.History)
	result, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return nil, translateProviderError(op, err)
	}

	dialog, err := s.store.CreateClientDialog(ctx, repository.CreateClientDialogParams{
		UserID:            userID,
		JobID:             jobID,
		MessageFromClient: params.ClientMessage,
		MessageFromIA:     result.Text,
	})
	if err != nil {
		if repository.IsUndefinedTable(err) {
			return nil, domain.TableNotFound(op, "client_dialogs")
		}
		// Other persistence failures don't waste the generated reply.
		s.logger.Warn("failed to persist client dialog",
			"user_id", userID, "job_id", jobID, "error", err)
		return &domain.ClientDialog{
			UserID:            userID,
			JobID:             jobID,
			MessageFromClient: params.ClientMessage,
			MessageFromIA:     result.Text,
		}, nil
	}
	return dialog, nil
}

func (s *premiumService) ChatHistory(ctx context.Context, rawUserID, rawJobID string) ([]*domain.ClientDialog, error) {
	const op = "premium.chat_history"

	userID, jobID, err := parsePremiumIDs(op, rawUserID, rawJobID)
	if err != nil {
		return nil, err
	}

	if _, err := s.requirePremiumJob(ctx, op, userID, jobID); err != nil {
		return nil, err
	}

	dialogs, err := s.store.ListClientDialogsByJob(ctx, jobID)
	if err != nil {
		if repository.IsUndefinedTable(err) {
			return nil, domain.TableNotFound(op, "client_dialogs")
		}
		return nil, domain.Internal(err, op, "failed to list client dialogs")
	}
	if dialogs == nil {
		dialogs = []*domain.ClientDialog{}
	}
	return dialogs, nil
}

// requirePremiumJob enforces the premium gate and loads the target job,
// checking ownership.
func (s *premiumService) requirePremiumJob(ctx context.Context, op string, userID, jobID uuid.UUID) (*domain.Job, error) {
	sub, err := s.resolveSubscription(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load subscription")
	}
	if decision := domain.RequirePlan(sub, domain.PlanPremium); !decision.Allowed {
		return nil, domain.PolicyDenied(op, decision)
	}

	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound(op, "Job não encontrado")
		}
		return nil, domain.Internal(err, op, "failed to load job")
	}
	if job.UserID != userID {
		return nil, domain.NotFound(op, "Job não encontrado")
	}
	return job, nil
}

func (s *premiumService) resolveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subs.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DefaultSubscription(userID), nil
		}
		return nil, err
	}
	return sub, nil
}

func parsePremiumIDs(op, rawUserID, rawJobID string) (uuid.UUID, uuid.UUID, error) {
	var verr error
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		verr = domain.AddFieldError(verr, op, "userId", "userId deve ser um UUID válido")
	}
	jobID, err := uuid.Parse(rawJobID)
	if err != nil {
		verr = domain.AddFieldError(verr, op, "jobId", "jobId deve ser um UUID válido")
	}
	if verr != nil {
		return uuid.Nil, uuid.Nil, verr
	}
	return userID, jobID, nil
}

// parsePlanItems extracts the JSON object from the provider response. Models
// occasionally wrap the JSON in markdown fences or prose, so the parser takes
// the span from the first '{' to the last '}'.
func parsePlanItems(text string) ([]domain.PlanItem, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in response")
	}

	var payload struct {
		PlanItems []domain.PlanItem `json:"plan_items"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, err
	}
	if len(payload.PlanItems) == 0 {
		return nil, errors.New("response contains no plan items")
	}
	return payload.PlanItems, nil
}
