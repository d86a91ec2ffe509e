// Package billing provides Stripe billing integration for subscription management.
package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/lancecerto/lancecerto/internal/domain"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for subscribing.
	// Returns the session ID the client redirects with.
	CreateCheckoutSession(priceID, userID string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session for the
	// customer owning the given subscription. Returns the portal URL.
	CreatePortalSession(subscriptionID string) (string, error)

	// GetSubscription retrieves a Stripe subscription by ID.
	GetSubscription(subscriptionID string) (*stripe.Subscription, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// PlanForPriceID returns the plan tier for a given Stripe price ID.
	// Unknown prices map to the free plan.
	PlanForPriceID(priceID string) domain.Plan
}

// PriceConfig holds the Stripe price IDs for the paid plans.
type PriceConfig struct {
	StarterPriceID string
	PremiumPriceID string
}

// IsValidPriceID checks that a price identifier has the expected Stripe
// shape. Rejecting product IDs (prod_...) here turns a common dashboard
// misconfiguration into a specific 400 instead of an opaque upstream error.
func IsValidPriceID(priceID string) bool {
	return strings.HasPrefix(priceID, "price_") && len(priceID) > 10
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	frontendURL   string
	prices        PriceConfig
	priceToPlan   map[string]domain.Plan
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls, the webhookSecret verifies
// incoming webhook signatures, and frontendURL is the base for checkout
// success/cancel redirects.
func NewStripeService(secretKey, webhookSecret, frontendURL string, prices PriceConfig) Service {
	stripe.Key = secretKey

	priceToPlan := make(map[string]domain.Plan)
	if prices.StarterPriceID != "" {
		priceToPlan[prices.StarterPriceID] = domain.PlanStarter
	}
	if prices.PremiumPriceID != "" {
		priceToPlan[prices.PremiumPriceID] = domain.PlanPremium
	}

	return &stripeService{
		webhookSecret: webhookSecret,
		frontendURL:   frontendURL,
		prices:        prices,
		priceToPlan:   priceToPlan,
	}
}

func (s *stripeService) CreateCheckoutSession(priceID, userID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.frontendURL + "/gerar?success=true"),
		CancelURL:         stripe.String(s.frontendURL + "/?canceled=true"),
		ClientReferenceID: stripe.String(userID),
		Params: stripe.Params{
			Metadata: map[string]string{"userId": userID},
		},
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.ID, nil
}

func (s *stripeService) CreatePortalSession(subscriptionID string) (string, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return "", fmt.Errorf("stripe get subscription: %w", err)
	}
	if sub.Customer == nil {
		return "", fmt.Errorf("stripe subscription %s has no customer", subscriptionID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.Customer.ID),
		ReturnURL: stripe.String(s.frontendURL + "/gerar"),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	return sub, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) PlanForPriceID(priceID string) domain.Plan {
	if plan, ok := s.priceToPlan[priceID]; ok {
		return plan
	}
	return domain.PlanFree
}
