package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/ai"
	"github.com/lancecerto/lancecerto/internal/ai/mock"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/repository"
)

func premiumSubStore() *mockSubscriptionStore {
	return &mockSubscriptionStore{
		GetByUserIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return &domain.Subscription{
				UserID: id,
				Plan:   domain.PlanPremium,
				Status: domain.SubscriptionStatusActive,
			}, nil
		},
	}
}

func jobStoreWithJob(userID, jobID uuid.UUID) *mockJobStore {
	return &mockJobStore{
		GetJobFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			if id != jobID {
				return nil, repository.ErrNotFound
			}
			return &domain.Job{
				ID:                jobID,
				UserID:            userID,
				Profile:           "dev backend",
				JobDescription:    "API em Go",
				GeneratedProposal: "Olá! Posso ajudar.",
			}, nil
		},
	}
}

const planJSON = `{"plan_items": [
	{"id": "task_1", "title": "Levantamento", "description": "Entender requisitos", "order": 1},
	{"id": "task_2", "title": "Implementação", "description": "Construir a API", "order": 2, "tips": "Comece pelo modelo de dados"}
]}`

func TestGeneratePlan_Success(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: planJSON}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), &mockPremiumStore{}, provider, testLogger())

	plan, err := svc.GeneratePlan(context.Background(), userID.String(), jobID.String())
	require.NoError(t, err)

	require.Len(t, plan.PlanItems, 2)
	assert.Equal(t, "Levantamento", plan.PlanItems[0].Title)
	assert.Empty(t, plan.CompletedItems)
}

func TestGeneratePlan_StripsMarkdownFences(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: "```json\n" + planJSON + "\n```"}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), &mockPremiumStore{}, provider, testLogger())

	plan, err := svc.GeneratePlan(context.Background(), userID.String(), jobID.String())
	require.NoError(t, err)
	assert.Len(t, plan.PlanItems, 2)
}

func TestGeneratePlan_NonPremiumDenied(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	subs := &mockSubscriptionStore{
		GetByUserIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return &domain.Subscription{
				UserID: id,
				Plan:   domain.PlanStarter,
				Status: domain.SubscriptionStatusActive,
			}, nil
		},
	}
	provider := mock.New(testLogger())
	svc := NewPremiumService(subs, jobStoreWithJob(userID, jobID), &mockPremiumStore{}, provider, testLogger())

	_, err := svc.GeneratePlan(context.Background(), userID.String(), jobID.String())
	require.Error(t, err)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	assert.Equal(t, domain.CodePremiumRequired, domain.ErrorClientCode(err))
	assert.Equal(t, 0, provider.GenerateTextCalls)
}

func TestGeneratePlan_InactivePremiumDenied(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	subs := &mockSubscriptionStore{
		GetByUserIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return &domain.Subscription{
				UserID: id,
				Plan:   domain.PlanPremium,
				Status: domain.SubscriptionStatusCanceled,
			}, nil
		},
	}
	svc := NewPremiumService(subs, jobStoreWithJob(userID, jobID), &mockPremiumStore{}, mock.New(testLogger()), testLogger())

	_, err := svc.GeneratePlan(context.Background(), userID.String(), jobID.String())
	require.Error(t, err)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

func TestGeneratePlan_OtherUsersJobNotFound(t *testing.T) {
	owner, jobID := uuid.New(), uuid.New()
	intruder := uuid.New()
	provider := mock.New(testLogger())

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(owner, jobID), &mockPremiumStore{}, provider, testLogger())

	_, err := svc.GeneratePlan(context.Background(), intruder.String(), jobID.String())
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Equal(t, 0, provider.GenerateTextCalls)
}

func TestGeneratePlan_InvalidJSONFromProvider(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: "desculpe, não consegui gerar o plano"}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), &mockPremiumStore{}, provider, testLogger())

	_, err := svc.GeneratePlan(context.Background(), userID.String(), jobID.String())
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestGeneratePlan_MissingTableMapped(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: planJSON}
	store := &mockPremiumStore{
		CreatePlanFn: func(ctx context.Context, params repository.CreateProjectPlanParams) (*domain.ProjectPlan, error) {
			return nil, undefinedTableError()
		},
	}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), store, provider, testLogger())

	_, err := svc.GeneratePlan(context.Background(), userID.String(), jobID.String())
	require.Error(t, err)
	assert.Equal(t, domain.ClientCodeTableNotFound, domain.ErrorClientCode(err))
}

func TestUpdateChecklist_Success(t *testing.T) {
	planID := uuid.New()
	var written []string
	store := &mockPremiumStore{
		UpdateChecklistFn: func(ctx context.Context, id uuid.UUID, items []string) error {
			written = items
			return nil
		},
		GetPlanFn: func(ctx context.Context, id uuid.UUID) (*domain.ProjectPlan, error) {
			return &domain.ProjectPlan{ID: id, CompletedItems: written}, nil
		},
	}
	svc := NewPremiumService(premiumSubStore(), &mockJobStore{}, store, mock.New(testLogger()), testLogger())

	plan, err := svc.UpdateChecklist(context.Background(), planID.String(), []string{"task_1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"task_1"}, plan.CompletedItems)
}

func TestUpdateChecklist_NilItemsBecomesEmpty(t *testing.T) {
	var written []string
	store := &mockPremiumStore{
		UpdateChecklistFn: func(ctx context.Context, id uuid.UUID, items []string) error {
			written = items
			return nil
		},
		GetPlanFn: func(ctx context.Context, id uuid.UUID) (*domain.ProjectPlan, error) {
			return &domain.ProjectPlan{ID: id}, nil
		},
	}
	svc := NewPremiumService(premiumSubStore(), &mockJobStore{}, store, mock.New(testLogger()), testLogger())

	_, err := svc.UpdateChecklist(context.Background(), uuid.NewString(), nil)
	require.NoError(t, err)
	assert.NotNil(t, written)
	assert.Empty(t, written)
}

func TestUpdateChecklist_UnknownPlan(t *testing.T) {
	store := &mockPremiumStore{
		UpdateChecklistFn: func(ctx context.Context, id uuid.UUID, items []string) error {
			return repository.ErrNotFound
		},
	}
	svc := NewPremiumService(premiumSubStore(), &mockJobStore{}, store, mock.New(testLogger()), testLogger())

	_, err := svc.UpdateChecklist(context.Background(), uuid.NewString(), []string{"task_1"})
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestChat_Success(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: "Claro, podemos ajustar o prazo."}
	store := &mockPremiumStore{}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), store, provider, testLogger())

	dialog, err := svc.Chat(context.Background(), ChatParams{
		UserID:        userID.String(),
		JobID:         jobID.String(),
		ClientMessage: "Conseguimos entregar uma semana antes?",
		History: []domain.ChatMessage{
			{From: "client", Message: "Oi, tudo bem?"},
			{From: "freelancer", Message: "Tudo ótimo!"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Claro, podemos ajustar o prazo.", dialog.MessageFromIA)
	require.Len(t, store.CreateDialogCalls, 1)
	assert.Contains(t, provider.LastPrompt, "Conseguimos entregar uma semana antes?")
	assert.Contains(t, provider.LastPrompt, "Histórico da conversa")
}

func TestChat_MissingClientMessage(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), &mockPremiumStore{}, mock.New(testLogger()), testLogger())

	_, err := svc.Chat(context.Background(), ChatParams{
		UserID:        userID.String(),
		JobID:         jobID.String(),
		ClientMessage: "   ",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "clientMessage")
}

func TestChat_DialogSaveFailureStillReturnsReply(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: "Resposta gerada."}
	store := &mockPremiumStore{
		CreateDialogFn: func(ctx context.Context, params repository.CreateClientDialogParams) (*domain.ClientDialog, error) {
			return nil, errors.New("connection reset by peer")
		},
	}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), store, provider, testLogger())

	dialog, err := svc.Chat(context.Background(), ChatParams{
		UserID:        userID.String(),
		JobID:         jobID.String(),
		ClientMessage: "Qual o prazo?",
	})
	require.NoError(t, err, "a failed dialog save must not discard the generated reply")
	assert.Equal(t, "Resposta gerada.", dialog.MessageFromIA)
}

func TestChat_MissingDialogTableMapped(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	provider := mock.New(testLogger())
	provider.GenerateTextResponse = &ai.Result{Text: "Resposta gerada."}
	store := &mockPremiumStore{
		CreateDialogFn: func(ctx context.Context, params repository.CreateClientDialogParams) (*domain.ClientDialog, error) {
			return nil, undefinedTableError()
		},
	}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), store, provider, testLogger())

	_, err := svc.Chat(context.Background(), ChatParams{
		UserID:        userID.String(),
		JobID:         jobID.String(),
		ClientMessage: "Qual o prazo?",
	})
	require.Error(t, err)
	assert.Equal(t, domain.ClientCodeTableNotFound, domain.ErrorClientCode(err))
}

func TestChatHistory_Success(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	store := &mockPremiumStore{
		ListDialogsFn: func(ctx context.Context, id uuid.UUID) ([]*domain.ClientDialog, error) {
			assert.Equal(t, jobID, id)
			return []*domain.ClientDialog{
				{MessageFromClient: "Oi", MessageFromIA: "Olá!"},
				{MessageFromClient: "Qual o prazo?", MessageFromIA: "Duas semanas."},
			}, nil
		},
	}

	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), store, mock.New(testLogger()), testLogger())

	dialogs, err := svc.ChatHistory(context.Background(), userID.String(), jobID.String())
	require.NoError(t, err)
	require.Len(t, dialogs, 2)
	assert.Equal(t, "Duas semanas.", dialogs[1].MessageFromIA)
}

func TestChatHistory_NonPremiumDenied(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	subs := &mockSubscriptionStore{
		GetByUserIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return &domain.Subscription{
				UserID: id,
				Plan:   domain.PlanFree,
				Status: domain.SubscriptionStatusActive,
			}, nil
		},
	}
	svc := NewPremiumService(subs, jobStoreWithJob(userID, jobID), &mockPremiumStore{}, mock.New(testLogger()), testLogger())

	_, err := svc.ChatHistory(context.Background(), userID.String(), jobID.String())
	require.Error(t, err)
	assert.Equal(t, domain.CodePremiumRequired, domain.ErrorClientCode(err))
}

func TestChatHistory_EmptyReturnsEmptySlice(t *testing.T) {
	userID, jobID := uuid.New(), uuid.New()
	svc := NewPremiumService(premiumSubStore(), jobStoreWithJob(userID, jobID), &mockPremiumStore{}, mock.New(testLogger()), testLogger())

	dialogs, err := svc.ChatHistory(context.Background(), userID.String(), jobID.String())
	require.NoError(t, err)
	assert.NotNil(t, dialogs)
	assert.Empty(t, dialogs)
}
