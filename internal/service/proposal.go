package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lancecerto/lancecerto/internal/ai"
	"github.com/lancecerto/lancecerto/internal/ai/gemini"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/metrics"
	"github.com/lancecerto/lancecerto/internal/repository"
)

// Input length limits, in characters.
const (
	MaxProfileLen        = 2000
	MaxJobDescriptionLen = 5000
	MaxOldProposalsLen   = 3000
)

// Default number of history entries returned when the client does not ask
// for a specific page size.
const DefaultJobHistoryLimit = 50

// =============================================================================
// Interface Definition
// =============================================================================

// ProposalService defines proposal generation and history operations.
type ProposalService interface {
	// Generate validates the form input, enforces the plan policy, calls the
	// text provider, persists the result, and advances the usage counter.
	Generate(ctx context.Context, params GenerateProposalParams) (*domain.Job, error)

	// ListJobs returns a user's generation history, newest first.
	ListJobs(ctx context.Context, userID string, limit int) ([]*domain.Job, error)
}

// GenerateProposalParams carries the raw generation form input. UserID is the
// identity provider's user ID and is validated as a UUID here.
type GenerateProposalParams struct {
	UserID         string
	Profile        string
	OldProposals   string
	JobDescription string
}

// =============================================================================
// Implementation
// =============================================================================

type proposalService struct {
	subs     SubscriptionStore
	jobs     JobStore
	provider ai.TextProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewProposalService creates a new ProposalService.
func NewProposalService(subs SubscriptionStore, jobs JobStore, provider ai.TextProvider, logger *slog.Logger) ProposalService {
	return &proposalService{
		subs:     subs,
		jobs:     jobs,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *proposalService) Generate(ctx context.Context, params GenerateProposalParams) (*domain.Job, error) {
	const op = "proposal.generate"

	userID, err := validateGenerateParams(op, params)
	if err != nil {
		return nil, err
	}

	sub, err := s.resolveSubscription(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load subscription")
	}

	now := s.now()
	decision := domain.EvaluateGeneration(sub, now)
	if !decision.Allowed {
		return nil, domain.PolicyDenied(op, decision)
	}
	if decision.NeedsPeriodReset {
		if _, err := s.subs.ResetProposalsCountIfExpired(ctx, userID, now); err != nil {
			return nil, domain.Internal(err, op, "failed to roll over billing period")
		}
	}

	prompt := gemini.BuildProposalPrompt(params.Profile, params.OldProposals, params.JobDescription)
	result, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return nil, translateProviderError(op, err)
	}

	job, err := s.jobs.CreateJob(ctx, repository.CreateJobParams{
		UserID:            userID,
		Profile:           params.Profile,
		OldProposals:      params.OldProposals,
		JobDescription:    params.JobDescription,
		GeneratedProposal: result.Text,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to persist proposal")
	}

	// The conditional increment is the authoritative quota write: it only
	// succeeds while the counter is below the plan limit, so concurrent
	// requests can never push usage past it. The policy check above is a
	// fast path that spares the provider call.
	if err := s.subs.EnsureSubscription(ctx, userID); err != nil {
		s.logger.Error("failed to ensure subscription row", "user_id", userID, "error", err)
	} else {
		ok, err := s.subs.IncrementProposalsCountIfBelow(ctx, userID, domain.ProposalLimit(sub.Plan))
		switch {
		case err != nil:
			s.logger.Error("failed to increment usage counter", "user_id", userID, "error", err)
		case !ok:
			s.logger.Warn("usage counter already at limit, increment skipped",
				"user_id", userID, "plan", sub.Plan)
		}
	}

	metrics.ProposalsGenerated.WithLabelValues(string(sub.Plan)).Inc()

	s.logger.Info("proposal generated",
		"user_id", userID,
		"job_id", job.ID,
		"plan", sub.Plan,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)
	return job, nil
}

func (s *proposalService) ListJobs(ctx context.Context, rawUserID string, limit int) ([]*domain.Job, error) {
	const op = "proposal.list"

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, domain.NewValidationError(op, "userId", "userId deve ser um UUID válido")
	}
	if limit <= 0 {
		limit = DefaultJobHistoryLimit
	}

	jobs, err := s.jobs.ListJobsByUserID(ctx, userID, limit)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list jobs")
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	return jobs, nil
}

// resolveSubscription loads the user's subscription, substituting the
// implicit free-tier default when no row exists.
func (s *proposalService) resolveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subs.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DefaultSubscription(userID), nil
		}
		return nil, err
	}
	return sub, nil
}

func validateGenerateParams(op string, params GenerateProposalParams) (uuid.UUID, error) {
	// An absent userId means the front-end sent the request without an
	// authenticated user; a present-but-malformed one is a validation error.
	if params.UserID == "" {
		return uuid.Nil, domain.Unauthorized(op, "Usuário não autenticado")
	}

	var verr error

	userID, err := uuid.Parse(params.UserID)
	if err != nil {
		verr = domain.AddFieldError(verr, op, "userId", "userId deve ser um UUID válido")
	}
	if params.Profile == "" {
		verr = domain.AddFieldError(verr, op, "perfil", "Perfil é obrigatório")
	} else if utf8.RuneCountInString(params.Profile) > MaxProfileLen {
		verr = domain.AddFieldError(verr, op, "perfil", "Perfil deve ter no máximo 2000 caracteres")
	}
	if params.JobDescription == "" {
		verr = domain.AddFieldError(verr, op, "descricao_job", "Descrição do job é obrigatória")
	} else if utf8.RuneCountInString(params.JobDescription) > MaxJobDescriptionLen {
		verr = domain.AddFieldError(verr, op, "descricao_job", "Descrição do job deve ter no máximo 5000 caracteres")
	}
	if utf8.RuneCountInString(params.OldProposals) > MaxOldProposalsLen {
		verr = domain.AddFieldError(verr, op, "propostas_antigas", "Propostas antigas devem ter no máximo 3000 caracteres")
	}

	if verr != nil {
		return uuid.Nil, verr
	}
	return userID, nil
}

// translateProviderError maps the provider error vocabulary onto domain
// errors with user-facing Portuguese messages.
func translateProviderError(op string, err error) error {
	switch {
	case errors.Is(err, ai.ErrRateLimit), errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrTimeout):
		return &domain.Error{
			Code:    domain.EUNAVAILABLE,
			Op:      op,
			Message: "Serviço de geração temporariamente indisponível. Tente novamente em instantes.",
			Err:     err,
		}
	case errors.Is(err, ai.ErrInvalidPrompt):
		return &domain.Error{
			Code:    domain.EINVALID,
			Op:      op,
			Message: "Não foi possível processar o conteúdo enviado.",
			Err:     err,
		}
	case errors.Is(err, ai.ErrEmptyResponse):
		return domain.Internal(err, op, "A IA não retornou uma proposta. Tente novamente.")
	default:
		return domain.Internal(err, op, "Erro ao gerar proposta.")
	}
}
