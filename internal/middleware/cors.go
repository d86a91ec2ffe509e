package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS returns CORS middleware configured for the separate-origin React
// client. Stripe-Signature is not listed: webhooks come from Stripe's
// servers, not a browser.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}
