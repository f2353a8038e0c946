package auth

import (
	"errors"
	"fmt"
)

// ValidationError reports bad or missing local input. No network call was
// attempted when one of these is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProviderError reports a failed identity or document provider call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage converts a flow error into a message safe to show the caller.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return "Something went wrong. Please try again."
	}
	return "Something went wrong."
}
