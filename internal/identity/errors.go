package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Error type strings returned by the provider in error payloads.
const (
	// ErrTypeSessionActive is returned when session creation is attempted
	// while a session already exists for the identity.
	ErrTypeSessionActive = "session_already_active"
)

// Error is an error payload returned by the identity provider.
type Error struct {
	StatusCode int    `json:"status"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider: %s (%s, status %d)", e.Message, e.Type, e.StatusCode)
}

// IsSessionActive reports whether err is the provider's "session already
// active" rejection. The verify flow folds this condition into success.
// Older provider deployments signal it only in the message text, so both
// the type and the message are checked.
func IsSessionActive(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	if pe.Type == ErrTypeSessionActive {
		return true
	}
	return strings.Contains(pe.Message, "session is active")
}
