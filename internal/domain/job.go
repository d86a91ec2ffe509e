// Package domain contains core business types and interfaces.
//
// This file defines the records produced by proposal generation and the
// premium project-planning features.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is one generated proposal: the form input plus the generated text.
// Jobs are immutable once written and are never deleted; they back the
// history view and the export endpoints.
type Job struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Profile           string
	OldProposals      string // optional style reference, empty when not given
	JobDescription    string
	GeneratedProposal string
	CreatedAt         time.Time
}

// PlanItem is one task in a premium project plan.
type PlanItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Tips        string `json:"tips,omitempty"`
	Risks       string `json:"risks,omitempty"`
}

// ProjectPlan is a premium-generated task breakdown for a job, with a
// client-managed completion checklist.
type ProjectPlan struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	JobID          uuid.UUID
	PlanItems      []PlanItem
	CompletedItems []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MarshalPlanItems serializes the plan items for jsonb storage.
func (p *ProjectPlan) MarshalPlanItems() (json.RawMessage, error) {
	return json.Marshal(p.PlanItems)
}

// ChatMessage is one turn of a premium client-chat conversation, supplied by
// the client as conversation history.
type ChatMessage struct {
	From    string `json:"from"` // "client" or "freelancer"
	Message string `json:"message"`
}

// ClientDialog is a persisted client message / generated reply pair.
type ClientDialog struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	JobID             uuid.UUID
	MessageFromClient string
	MessageFromIA     string
	CreatedAt         time.Time
}
