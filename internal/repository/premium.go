package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// CreateProjectPlanParams holds the fields for a new premium project plan.
type CreateProjectPlanParams struct {
	UserID    uuid.UUID
	JobID     uuid.UUID
	PlanItems []domain.PlanItem
}

const createProjectPlan = `
INSERT INTO project_plans (user_id, job_id, plan_items, completed_items)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at
`

// CreateProjectPlan persists a generated project plan with an empty checklist.
func (q *Queries) CreateProjectPlan(ctx context.Context, params CreateProjectPlanParams) (*domain.ProjectPlan, error) {
	plan := &domain.ProjectPlan{
		UserID:         params.UserID,
		JobID:          params.JobID,
		PlanItems:      params.PlanItems,
		CompletedItems: []string{},
	}
	raw, err := json.Marshal(params.PlanItems)
	if err != nil {
		return nil, err
	}
	items := pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	err = q.db.QueryRowContext(ctx, createProjectPlan,
		params.UserID,
		params.JobID,
		items,
		pq.Array([]string{}),
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

const getProjectPlanByID = `
SELECT id, user_id, job_id, plan_items, completed_items, created_at, updated_at
FROM project_plans
WHERE id = $1
`

// GetProjectPlanByID returns a project plan with its checklist state.
func (q *Queries) GetProjectPlanByID(ctx context.Context, id uuid.UUID) (*domain.ProjectPlan, error) {
	var (
		plan      domain.ProjectPlan
		rawItems  pqtype.NullRawMessage
		completed []string
	)
	err := q.db.QueryRowContext(ctx, getProjectPlanByID, id).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.JobID,
		&rawItems,
		pq.Array(&completed),
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rawItems.Valid {
		if err := json.Unmarshal(rawItems.RawMessage, &plan.PlanItems); err != nil {
			return nil, err
		}
	}
	plan.CompletedItems = completed
	return &plan, nil
}

const updateProjectPlanChecklist = `
UPDATE project_plans
SET completed_items = $2, updated_at = now()
WHERE id = $1
`

// UpdateProjectPlanChecklist replaces the completed-items checklist.
// Returns ErrNotFound when the plan does not exist.
func (q *Queries) UpdateProjectPlanChecklist(ctx context.Context, id uuid.UUID, completedItems []string) error {
	if completedItems == nil {
		completedItems = []string{}
	}
	res, err := q.db.ExecContext(ctx, updateProjectPlanChecklist, id, pq.Array(completedItems))
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

// CreateClientDialogParams holds one client message / generated reply pair.
type CreateClientDialogParams struct {
	UserID            uuid.UUID
	JobID             uuid.UUID
	MessageFromClient string
	MessageFromIA     string
}

const createClientDialog = `
INSERT INTO client_dialogs (user_id, job_id, message_from_client, message_from_ia)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`

// CreateClientDialog persists a chat exchange for a job.
func (q *Queries) CreateClientDialog(ctx context.Context, params CreateClientDialogParams) (*domain.ClientDialog, error) {
	dialog := &domain.ClientDialog{
		UserID:            params.UserID,
		JobID:             params.JobID,
		MessageFromClient: params.MessageFromClient,
		MessageFromIA:     params.MessageFromIA,
	}
	err := q.db.QueryRowContext(ctx, createClientDialog,
		params.UserID,
		params.JobID,
		params.MessageFromClient,
		params.MessageFromIA,
	).Scan(&dialog.ID, &dialog.CreatedAt)
	if err != nil {
		return nil, err
	}
	return dialog, nil
}

const listClientDialogsByJob = `
SELECT id, user_id, job_id, message_from_client, message_from_ia, created_at
FROM client_dialogs
WHERE job_id = $1
ORDER BY created_at ASC
`

// ListClientDialogsByJob returns the chat history for a job, oldest first.
func (q *Queries) ListClientDialogsByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.ClientDialog, error) {
	rows, err := q.db.QueryContext(ctx, listClientDialogsByJob, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dialogs []*domain.ClientDialog
	for rows.Next() {
		var d domain.ClientDialog
		if err := rows.Scan(&d.ID, &d.UserID, &d.JobID, &d.MessageFromClient, &d.MessageFromIA, &d.CreatedAt); err != nil {
			return nil, err
		}
		dialogs = append(dialogs, &d)
	}
	return dialogs, rows.Err()
}
