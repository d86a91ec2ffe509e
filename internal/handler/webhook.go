// This file implements the Stripe webhook endpoint.
//
// Route:
//   - POST /api/webhook -> HandleStripeWebhook
//
// The route is PUBLIC; authentication is the Stripe webhook signature
// verified against the raw body before anything is written.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"github.com/lancecerto/lancecerto/internal/billing"
	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/metrics"
	"github.com/lancecerto/lancecerto/internal/service"
)

// maxWebhookBodyBytes caps the webhook payload size.
const maxWebhookBodyBytes = 65536

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing billing.Service
	subs    service.SubscriptionService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. billingService may be nil
// when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, subs service.SubscriptionService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billingService,
		subs:    subs,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/webhook", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and processes incoming Stripe events.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, stripeNotConfigured("webhook"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		metrics.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	outcome := "ok"
	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(r.Context(), event)
	case "customer.subscription.updated":
		err = h.handleSubscriptionUpdated(r.Context(), event)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(r.Context(), event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		outcome = "ignored"
	}
	if err != nil {
		h.logger.Error("webhook event processing failed", "type", event.Type, "error", err)
		outcome = "error"
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type), outcome).Inc()

	// Stripe retries non-2xx responses. Processing failures are answered 200
	// after logging so a poison event cannot wedge the delivery queue; the
	// periodic subscription.updated events converge the state.
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	rawUserID := session.ClientReferenceID
	if rawUserID == "" {
		rawUserID = session.Metadata["userId"]
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		h.logger.Warn("checkout session without usable user reference", "session_id", session.ID)
		return nil
	}
	if session.Subscription == nil {
		h.logger.Warn("checkout session missing subscription", "session_id", session.ID)
		return nil
	}

	// The session payload carries only the subscription ID; fetch the full
	// object for the price and period end.
	sub, err := h.billing.GetSubscription(session.Subscription.ID)
	if err != nil {
		return err
	}

	plan := domain.PlanFree
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		plan = h.billing.PlanForPriceID(sub.Items.Data[0].Price.ID)
	}

	return h.subs.ApplyCheckoutCompleted(ctx, service.CheckoutCompletedParams{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		Plan:                 plan,
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0),
	})
}

func (h *WebhookHandler) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	return h.subs.ApplySubscriptionUpdated(ctx, sub.ID,
		domain.SubscriptionStatus(sub.Status), time.Unix(sub.CurrentPeriodEnd, 0))
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	return h.subs.ApplySubscriptionDeleted(ctx, sub.ID)
}
