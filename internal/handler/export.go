// This file implements the proposal export endpoints.
//
// Routes:
//   - POST /api/export/pdf  -> HandleExport
//   - POST /api/export/docx -> HandleExport
//
// Export is gated behind a paid plan: free users get 403
// SUBSCRIPTION_REQUIRED regardless of content.
package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/export"
	"github.com/lancecerto/lancecerto/internal/metrics"
	"github.com/lancecerto/lancecerto/internal/service"
)

// ExportHandler renders proposal text into downloadable documents.
type ExportHandler struct {
	subs       service.SubscriptionService
	generators map[domain.ExportFormat]export.Generator
	logger     *slog.Logger
}

// NewExportHandler creates a new ExportHandler from the given generators.
func NewExportHandler(subs service.SubscriptionService, generators []export.Generator, logger *slog.Logger) *ExportHandler {
	byFormat := make(map[domain.ExportFormat]export.Generator, len(generators))
	for _, g := range generators {
		byFormat[g.Format()] = g
	}
	return &ExportHandler{
		subs:       subs,
		generators: byFormat,
		logger:     logger,
	}
}

// RegisterRoutes registers export routes on the provided mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/export/{format}", h.HandleExport)
}

type exportRequest struct {
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

// HandleExport renders the posted proposal text as an attachment in the
// requested format.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "export.render"

	format := domain.ExportFormat(r.PathValue("format"))
	generator, ok := h.generators[format]
	if !ok || !format.Valid() {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "Formato de exportação não suportado"))
		return
	}

	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "userId", "userId deve ser um UUID válido"))
		return
	}
	if req.Content == "" {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "content", "Conteúdo é obrigatório"))
		return
	}

	sub, err := h.subs.ResolveEffective(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if decision := domain.RequirePlan(sub, domain.PlanStarter); !decision.Allowed {
		ErrorResponse(w, r, h.logger, domain.PolicyDenied(op, decision))
		return
	}

	// Render to a buffer first so generator failures still produce a clean
	// JSON error instead of a truncated attachment.
	var buf bytes.Buffer
	job := &domain.Job{GeneratedProposal: req.Content, CreatedAt: time.Now()}
	if _, err := generator.Generate(r.Context(), job, &buf); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Erro ao gerar o documento."))
		return
	}

	metrics.ExportsGenerated.WithLabelValues(string(format)).Inc()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
