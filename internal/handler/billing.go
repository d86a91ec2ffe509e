// This file implements the Stripe checkout and customer portal endpoints.
//
// Routes:
//   - POST /api/create-checkout-session -> HandleCreateCheckoutSession
//   - POST /api/create-portal-session   -> HandleCreatePortalSession
//
// Both answer 503 STRIPE_NOT_CONFIGURED when billing is not configured.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/lancecerto/lancecerto/internal/billing"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/service"
)

// BillingHandler handles checkout and portal session creation.
type BillingHandler struct {
	billing billing.Service
	subs    service.SubscriptionService
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler. billingService may be nil
// when Stripe is not configured.
func NewBillingHandler(billingService billing.Service, subs service.SubscriptionService, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		subs:    subs,
		logger:  logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/create-checkout-session", h.HandleCreateCheckoutSession)
	mux.HandleFunc("POST /api/create-portal-session", h.HandleCreatePortalSession)
}

func stripeNotConfigured(op string) error {
	return domain.Unavailable(op, domain.ClientCodeStripeNotConfigured,
		"Pagamentos não configurados neste ambiente.")
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
}

// HandleCreateCheckoutSession creates a Stripe Checkout session for the
// requested price.
func (h *BillingHandler) HandleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	const op = "billing.create_checkout"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, stripeNotConfigured(op))
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "userId", "userId deve ser um UUID válido"))
		return
	}
	if !billing.IsValidPriceID(req.PriceID) {
		ErrorResponse(w, r, h.logger, &domain.Error{
			Code:       domain.EINVALID,
			ClientCode: domain.ClientCodeInvalidPriceID,
			Op:         op,
			Message:    "priceId inválido. Use um price ID do Stripe (price_...).",
		})
		return
	}
	if h.billing.PlanForPriceID(req.PriceID) == domain.PlanFree {
		ErrorResponse(w, r, h.logger, &domain.Error{
			Code:       domain.EINVALID,
			ClientCode: domain.ClientCodePriceNotFound,
			Op:         op,
			Message:    "priceId não corresponde a nenhum plano.",
		})
		return
	}

	sessionID, err := h.billing.CreateCheckoutSession(req.PriceID, req.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Erro ao criar sessão de checkout."))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}

type portalRequest struct {
	UserID string `json:"userId"`
}

// HandleCreatePortalSession creates a Stripe Customer Portal session for the
// user's stored subscription.
func (h *BillingHandler) HandleCreatePortalSession(w http.ResponseWriter, r *http.Request) {
	const op = "billing.create_portal"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, stripeNotConfigured(op))
		return
	}

	var req portalRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, "Corpo da requisição inválido")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "userId", "userId deve ser um UUID válido"))
		return
	}

	sub, err := h.subs.ResolveEffective(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if sub.StripeSubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "Nenhuma assinatura ativa encontrada."))
		return
	}

	url, err := h.billing.CreatePortalSession(sub.StripeSubscriptionID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Erro ao criar sessão do portal."))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
