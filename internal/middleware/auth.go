package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/identity"
	"github.com/cinevault/cinevault/internal/request"
)

// UserFromContext extracts the user from the request context
var UserFromContext = request.UserFromContext

// Auth creates authentication middleware that resolves the session cookie into
// a user profile. The session secret is verified locally against the identity
// provider's JWKS; no network call to the provider per request.
func Auth(projectID string, verifier *identity.Verifier, jwksURL string, profiles database.ProfileStore) func(http.Handler) http.Handler {
	cookieName := auth.SessionCookieName(projectID)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				respondError(w, http.StatusUnauthorized, "Missing session")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, cookie.Value, jwksURL)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			profile, err := profiles.GetByAccountID(ctx, claims.Sub)
			if err != nil {
				log.Printf("Database error while fetching profile: %v", err)
				respondError(w, http.StatusInternalServerError, "Database error")
				return
			}
			if profile == nil {
				// Session is valid but the profile record never materialized.
				// Force a fresh sign-in so provisioning runs again.
				respondError(w, http.StatusUnauthorized, "Unknown account")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, profile)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
