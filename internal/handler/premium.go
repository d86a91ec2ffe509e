// This file implements the premium project-planning and client-chat
// endpoints.
//
// Routes:
//   - POST /api/premium/generate-plan     -> HandleGeneratePlan
//   - POST /api/premium/update-checklist  -> HandleUpdateChecklist
//   - POST /api/premium/chat              -> HandleChat
//   - POST /api/premium/chat-history      -> HandleChatHistory
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/service"
)

// PremiumHandler handles the premium feature endpoints.
type PremiumHandler struct {
	premium service.PremiumService
	logger  *slog.Logger
}

// NewPremiumHandler creates a new PremiumHandler.
func NewPremiumHandler(premium service.PremiumService, logger *slog.Logger) *PremiumHandler {
	return &PremiumHandler{
		premium: premium,
		logger:  logger,
	}
}

// RegisterRoutes registers premium routes on the provided mux.
func (h *PremiumHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/premium/generate-plan", h.HandleGeneratePlan)
	mux.HandleFunc("POST /api/premium/update-checklist", h.HandleUpdateChecklist)
	mux.HandleFunc("POST /api/premium/chat", h.HandleChat)
	mux.HandleFunc("POST /api/premium/chat-history", h.HandleChatHistory)
}

type generatePlanRequest struct {
	UserID string `json:"userId"`
	JobID  string `json:"jobId"`
}

// HandleGeneratePlan generates a structured project plan for a job.
func (h *PremiumHandler) HandleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}

	plan, err := h.premium.GeneratePlan(r.Context(), req.UserID, req.JobID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":              plan.ID.String(),
		"plan_items":      plan.PlanItems,
		"completed_items": plan.CompletedItems,
	})
}

type updateChecklistRequest struct {
	PlanID string `json:"planId"`
	// Pointer distinguishes an absent field from an explicitly empty list:
	// the former is rejected, the latter clears the checklist.
	CompletedItems *[]string `json:"completedItems"`
}

// HandleUpdateChecklist replaces a plan's completed-items checklist.
func (h *PremiumHandler) HandleUpdateChecklist(w http.ResponseWriter, r *http.Request) {
	var req updateChecklistRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}
	if req.CompletedItems == nil {
		BadRequestResponse(w, r, h.logger, "planId e completedItems são obrigatórios")
		return
	}

	plan, err := h.premium.UpdateChecklist(r.Context(), req.PlanID, *req.CompletedItems)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"completed_items": plan.CompletedItems,
	})
}

type chatRequest struct {
	UserID        string               `json:"userId"`
	JobID         string               `json:"jobId"`
	ClientMessage string               `json:"clientMessage"`
	History       []domain.ChatMessage `json:"history"`
}

// HandleChat generates a suggested reply to a client message.
func (h *PremiumHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}

	dialog, err := h.premium.Chat(r.Context(), service.ChatParams{
		UserID:        req.UserID,
		JobID:         req.JobID,
		ClientMessage: req.ClientMessage,
		History:       req.History,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": dialog.MessageFromIA})
}

type chatHistoryRequest struct {
	UserID string `json:"userId"`
	JobID  string `json:"jobId"`
}

type dialogResponse struct {
	ClientMessage string    `json:"message_from_client"`
	Reply         string    `json:"message_from_ia"`
	CreatedAt     time.Time `json:"created_at"`
}

// HandleChatHistory returns the persisted chat exchanges for a job.
func (h *PremiumHandler) HandleChatHistory(w http.ResponseWriter, r *http.Request) {
	var req chatHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}

	dialogs, err := h.premium.ChatHistory(r.Context(), req.UserID, req.JobID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]dialogResponse, 0, len(dialogs))
	for _, d := range dialogs {
		out = append(out, dialogResponse{
			ClientMessage: d.MessageFromClient,
			Reply:         d.MessageFromIA,
			CreatedAt:     d.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"dialogs": out})
}
