package models

import "time"

// PendingAuthentication correlates a one-time-code request with its later
// verification. It is transient: created when a code is requested, read by
// the verify step, and never persisted.
type PendingAuthentication struct {
	PendingID string `json:"pending_id"`
	Email     string `json:"email"`
}

// Session is a provider-issued credential for an authenticated identity.
// Secret is opaque to callers; it is delivered to browsers as a cookie.
type Session struct {
	UserID    string    `json:"user_id"`
	Secret    string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	// Reused is true when verification found an already-active session and
	// skipped creating a new one.
	Reused bool `json:"reused"`
}

// Identity is the provider's view of the currently authenticated account.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionClaims are the claims extracted from a verified session token.
type SessionClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int64  `json:"exp"`
	Iss   string `json:"iss"`
}
