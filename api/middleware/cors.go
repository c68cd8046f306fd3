package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the API's allowed origin policy. The local origin covers
// frontend development against a deployed backend.
func CORS() func(http.Handler) http.Handler {
	policy := cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"https://bitekart.in",
			"https://app.bitekart.in",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	return cors.New(policy).Handler
}
