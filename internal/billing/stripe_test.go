package billing

import (
	"testing"

	"github.com/lancecerto/lancecerto/internal/domain"
)

func TestIsValidPriceID(t *testing.T) {
	tests := []struct {
		priceID string
		valid   bool
	}{
		{"price_1AbCdEfGhIjKl", true},
		{"price_1234567890", true},
		{"price_1", false},       // too short
		{"prod_1AbCdEfGhIjKl", false}, // product ID, not price ID
		{"", false},
		{"1AbCdEfGhIjKl", false},
	}

	for _, tt := range tests {
		if got := IsValidPriceID(tt.priceID); got != tt.valid {
			t.Errorf("IsValidPriceID(%q) = %v, want %v", tt.priceID, got, tt.valid)
		}
	}
}

func TestPlanForPriceID(t *testing.T) {
	svc := NewStripeService("sk_test_x", "whsec_x", "http://localhost:3000", PriceConfig{
		StarterPriceID: "price_starter123",
		PremiumPriceID: "price_premium123",
	})

	if got := svc.PlanForPriceID("price_starter123"); got != domain.PlanStarter {
		t.Errorf("starter price mapped to %q", got)
	}
	if got := svc.PlanForPriceID("price_premium123"); got != domain.PlanPremium {
		t.Errorf("premium price mapped to %q", got)
	}
	if got := svc.PlanForPriceID("price_unknown"); got != domain.PlanFree {
		t.Errorf("unknown price should map to free, got %q", got)
	}
}

func TestVerifyWebhookSignature_RejectsForgedPayload(t *testing.T) {
	svc := NewStripeService("sk_test_x", "whsec_secret", "http://localhost:3000", PriceConfig{})

	_, err := svc.VerifyWebhookSignature([]byte(`{"type":"checkout.session.completed"}`), "t=1,v1=forged")
	if err == nil {
		t.Fatal("expected signature verification to fail for forged payload")
	}
}
