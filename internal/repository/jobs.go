package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/domain"
)

// CreateJobParams holds the input fields for a generated proposal record.
type CreateJobParams struct {
	UserID            uuid.UUID
	Profile           string
	OldProposals      string
	JobDescription    string
	GeneratedProposal string
}

const createJob = `
INSERT INTO jobs (user_id, profile, old_proposals, job_description, generated_proposal)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`

// CreateJob persists a generated proposal and returns the stored record.
func (q *Queries) CreateJob(ctx context.Context, params CreateJobParams) (*domain.Job, error) {
	job := &domain.Job{
		UserID:            params.UserID,
		Profile:           params.Profile,
		OldProposals:      params.OldProposals,
		JobDescription:    params.JobDescription,
		GeneratedProposal: params.GeneratedProposal,
	}
	oldProposals := sql.NullString{String: params.OldProposals, Valid: params.OldProposals != ""}
	err := q.db.QueryRowContext(ctx, createJob,
		params.UserID,
		params.Profile,
		oldProposals,
		params.JobDescription,
		params.GeneratedProposal,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

const jobColumns = `id, user_id, profile, old_proposals, job_description, generated_proposal, created_at`

func scanJob(row interface{ Scan(dest ...any) error }) (*domain.Job, error) {
	var (
		j            domain.Job
		oldProposals sql.NullString
	)
	err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.Profile,
		&oldProposals,
		&j.JobDescription,
		&j.GeneratedProposal,
		&j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	j.OldProposals = oldProposals.String
	return &j, nil
}

const getJobByID = `
SELECT ` + jobColumns + `
FROM jobs
WHERE id = $1
`

// GetJobByID returns a single generated proposal record.
func (q *Queries) GetJobByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, getJobByID, id))
}

const listJobsByUserID = `
SELECT ` + jobColumns + `
FROM jobs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`

// ListJobsByUserID returns a user's generation history, newest first.
func (q *Queries) ListJobsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Job, error) {
	rows, err := q.db.QueryContext(ctx, listJobsByUserID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
