// This file implements proposal generation and history.
//
// Routes:
//   - POST /api/gerar-lance   -> HandleGenerate
//   - GET  /api/jobs/{userId} -> HandleListJobs
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/service"
)

// ProposalHandler handles proposal generation and history requests.
type ProposalHandler struct {
	proposals service.ProposalService
	logger    *slog.Logger
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(proposals service.ProposalService, logger *slog.Logger) *ProposalHandler {
	return &ProposalHandler{
		proposals: proposals,
		logger:    logger,
	}
}

// RegisterRoutes registers proposal routes on the provided mux.
func (h *ProposalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/gerar-lance", h.HandleGenerate)
	mux.HandleFunc("GET /api/jobs/{userId}", h.HandleListJobs)
}

type generateRequest struct {
	UserID         string `json:"userId"`
	Profile        string `json:"perfil"`
	OldProposals   string `json:"propostas_antigas"`
	JobDescription string `json:"descricao_job"`
}

type generateResponse struct {
	Proposal string `json:"proposta"`
	JobID    string `json:"jobId"`
}

// HandleGenerate processes a proposal generation request.
func (h *ProposalHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}

	job, err := h.proposals.Generate(r.Context(), service.GenerateProposalParams{
		UserID:         req.UserID,
		Profile:        req.Profile,
		OldProposals:   req.OldProposals,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Proposal: job.GeneratedProposal,
		JobID:    job.ID.String(),
	})
}

type jobResponse struct {
	ID                string    `json:"id"`
	Profile           string    `json:"perfil"`
	OldProposals      string    `json:"propostas_antigas,omitempty"`
	JobDescription    string    `json:"descricao_job"`
	GeneratedProposal string    `json:"proposta_gerada"`
	CreatedAt         time.Time `json:"created_at"`
}

// HandleListJobs returns a user's generation history, newest first.
func (h *ProposalHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	jobs, err := h.proposals.ListJobs(r.Context(), userID, 0)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

func toJobResponse(job *domain.Job) jobResponse {
	return jobResponse{
		ID:                job.ID.String(),
		Profile:           job.Profile,
		OldProposals:      job.OldProposals,
		JobDescription:    job.JobDescription,
		GeneratedProposal: job.GeneratedProposal,
		CreatedAt:         job.CreatedAt,
	}
}
