package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/ai/mock"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/metrics"
)

func newProposalService(subs *mockSubscriptionStore, jobs *mockJobStore, provider *mock.Provider) *proposalService {
	return &proposalService{
		subs:     subs,
		jobs:     jobs,
		provider: provider,
		logger:   testLogger(),
		now:      time.Now,
	}
}

func validParams() GenerateProposalParams {
	return GenerateProposalParams{
		UserID:         uuid.NewString(),
		Profile:        "Desenvolvedor backend com 5 anos de experiência em Go e Postgres.",
		JobDescription: "Preciso de uma API REST para gestão de pedidos.",
	}
}

func TestGenerate_Success(t *testing.T) {
	subs := &mockSubscriptionStore{}
	jobs := &mockJobStore{}
	provider := mock.New(testLogger())
	svc := newProposalService(subs, jobs, provider)

	params := validParams()
	job, err := svc.Generate(context.Background(), params)
	require.NoError(t, err)

	assert.NotEmpty(t, job.GeneratedProposal)
	assert.Equal(t, params.JobDescription, job.JobDescription)
	assert.Equal(t, 1, provider.GenerateTextCalls)
	assert.Equal(t, 1, subs.IncrementCalls)
	assert.Contains(t, provider.LastPrompt, params.Profile)
}

func TestGenerate_FreeUserOverQuotaDeniedBeforeProviderCall(t *testing.T) {
	subs := &mockSubscriptionStore{
		GetByUserIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return &domain.Subscription{
				UserID:         id,
				Plan:           domain.PlanFree,
				Status:         domain.SubscriptionStatusActive,
				ProposalsCount: 1,
			}, nil
		},
	}
	jobs := &mockJobStore{}
	provider := mock.New(testLogger())
	svc := newProposalService(subs, jobs, provider)

	_, err := svc.Generate(context.Background(), validParams())
	require.Error(t, err)

	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	assert.Equal(t, domain.CodeQuotaExceeded, domain.ErrorClientCode(err))
	assert.Equal(t, 0, provider.GenerateTextCalls, "denied requests must not reach the provider")
	assert.Empty(t, jobs.CreateJobCalls)
	assert.Equal(t, 0, subs.IncrementCalls)
}

func TestGenerate_StarterPeriodRolloverResetsCounter(t *testing.T) {
	periodEnd := time.Now().Add(-time.Hour)
	subs := &mockSubscriptionStore{
		GetByUserIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return &domain.Subscription{
				UserID:           id,
				Plan:             domain.PlanStarter,
				Status:           domain.SubscriptionStatusActive,
				ProposalsCount:   30,
				CurrentPeriodEnd: &periodEnd,
			}, nil
		},
	}
	jobs := &mockJobStore{}
	provider := mock.New(testLogger())
	svc := newProposalService(subs, jobs, provider)

	_, err := svc.Generate(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, 1, subs.ResetCalls, "crossed period boundary must reset the counter")
	assert.Equal(t, 1, provider.GenerateTextCalls)
}

func TestGenerate_ValidationLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerateProposalParams)
		field  string
	}{
		{"missing profile", func(p *GenerateProposalParams) { p.Profile = "" }, "perfil"},
		{"profile too long", func(p *GenerateProposalParams) { p.Profile = strings.Repeat("a", MaxProfileLen+1) }, "perfil"},
		{"missing job description", func(p *GenerateProposalParams) { p.JobDescription = "" }, "descricao_job"},
		{"job description too long", func(p *GenerateProposalParams) { p.JobDescription = strings.Repeat("a", MaxJobDescriptionLen+1) }, "descricao_job"},
		{"old proposals too long", func(p *GenerateProposalParams) { p.OldProposals = strings.Repeat("a", MaxOldProposalsLen+1) }, "propostas_antigas"},
		{"invalid user id", func(p *GenerateProposalParams) { p.UserID = "not-a-uuid" }, "userId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mock.New(testLogger())
			svc := newProposalService(&mockSubscriptionStore{}, &mockJobStore{}, provider)

			params := validParams()
			tt.mutate(&params)

			_, err := svc.Generate(context.Background(), params)
			require.Error(t, err)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, 0, provider.GenerateTextCalls)
		})
	}
}

func TestGenerate_MissingUserIDIsUnauthenticated(t *testing.T) {
	provider := mock.New(testLogger())
	svc := newProposalService(&mockSubscriptionStore{}, &mockJobStore{}, provider)

	params := validParams()
	params.UserID = ""

	_, err := svc.Generate(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	assert.Equal(t, 0, provider.GenerateTextCalls)
}

func TestGenerate_CountsProposalsByPlan(t *testing.T) {
	provider := mock.New(testLogger())
	svc := newProposalService(&mockSubscriptionStore{}, &mockJobStore{}, provider)

	counter := metrics.ProposalsGenerated.WithLabelValues(string(domain.PlanFree))
	before := testutil.ToFloat64(counter)

	_, err := svc.Generate(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestGenerate_JobDescriptionAtLimitAccepted(t *testing.T) {
	provider := mock.New(testLogger())
	svc := newProposalService(&mockSubscriptionStore{}, &mockJobStore{}, provider)

	params := validParams()
	params.JobDescription = strings.Repeat("a", MaxJobDescriptionLen)

	_, err := svc.Generate(context.Background(), params)
	assert.NoError(t, err, "a description exactly at the limit is valid")
}

func TestGenerate_ProviderFailureSurfacedAsUnavailable(t *testing.T) {
	provider := mock.New(testLogger())
	provider.GenerateTextError = context.DeadlineExceeded
	jobs := &mockJobStore{}
	svc := newProposalService(&mockSubscriptionStore{}, jobs, provider)

	_, err := svc.Generate(context.Background(), validParams())
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Empty(t, jobs.CreateJobCalls, "failed generations are not persisted")
}

func TestGenerate_IncrementFailureStillReturnsProposal(t *testing.T) {
	subs := &mockSubscriptionStore{
		IncrementBelowFn: func(ctx context.Context, id uuid.UUID, limit int) (bool, error) {
			return false, nil
		},
	}
	svc := newProposalService(subs, &mockJobStore{}, mock.New(testLogger()))

	job, err := svc.Generate(context.Background(), validParams())
	require.NoError(t, err)
	assert.NotNil(t, job)
}

func TestListJobs(t *testing.T) {
	userID := uuid.New()
	jobs := &mockJobStore{
		ListJobsFn: func(ctx context.Context, id uuid.UUID, limit int) ([]*domain.Job, error) {
			assert.Equal(t, userID, id)
			assert.Equal(t, DefaultJobHistoryLimit, limit)
			return []*domain.Job{{ID: uuid.New(), UserID: id}}, nil
		},
	}
	svc := newProposalService(&mockSubscriptionStore{}, jobs, mock.New(testLogger()))

	list, err := svc.ListJobs(context.Background(), userID.String(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListJobs_InvalidUserID(t *testing.T) {
	svc := newProposalService(&mockSubscriptionStore{}, &mockJobStore{}, mock.New(testLogger()))

	_, err := svc.ListJobs(context.Background(), "abc", 0)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestListJobs_EmptyHistoryReturnsEmptySlice(t *testing.T) {
	svc := newProposalService(&mockSubscriptionStore{}, &mockJobStore{}, mock.New(testLogger()))

	list, err := svc.ListJobs(context.Background(), uuid.NewString(), 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
