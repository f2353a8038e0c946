package auth

import (
	"context"
	"fmt"

	"github.com/cinevault/cinevault/internal/models"
)

// FlowState is the state of one interactive code sign-in attempt.
type FlowState string

const (
	FlowIdle          FlowState = "idle"
	FlowAwaitingCode  FlowState = "awaiting_code"
	FlowVerifying     FlowState = "verifying"
	FlowAuthenticated FlowState = "authenticated"
	FlowFailed        FlowState = "failed"
)

// Flow drives a single one-time-code sign-in attempt from code request
// through verification and profile provisioning. A failed attempt can be
// retried by submitting another code, or restarted with a fresh code
// request; an authenticated flow is terminal. Flow is not safe for
// concurrent use - each sign-in attempt owns its own instance.
type Flow struct {
	svc      *Service
	state    FlowState
	pending  *models.PendingAuthentication
	fullName string
}

// NewFlow creates an idle flow backed by svc.
func NewFlow(svc *Service) *Flow {
	return &Flow{svc: svc, state: FlowIdle}
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	return f.state
}

// Pending returns the in-flight pending authentication, or nil.
func (f *Flow) Pending() *models.PendingAuthentication {
	return f.pending
}

// Start requests a one-time code for email. Allowed from Idle, or from
// Failed/AwaitingCode to request a fresh code. On success the flow holds
// the pending authentication and awaits a code.
func (f *Flow) Start(ctx context.Context, email, fullName string) error {
	switch f.state {
	case FlowIdle, FlowFailed, FlowAwaitingCode:
	default:
		return fmt.Errorf("cannot request a code in state %q", f.state)
	}

	pending, err := f.svc.RequestCode(ctx, email)
	if err != nil {
		return err
	}

	f.pending = pending
	f.fullName = fullName
	f.state = FlowAwaitingCode
	return nil
}

// Submit verifies the user-entered code and provisions the profile. On
// success the flow is Authenticated and the pending authentication is
// discarded; on error the flow is Failed but keeps the pending
// authentication so the user can retry the code.
func (f *Flow) Submit(ctx context.Context, code, currentSecret string) (*models.Session, string, error) {
	switch f.state {
	case FlowAwaitingCode, FlowFailed:
	default:
		return nil, "", fmt.Errorf("cannot submit a code in state %q", f.state)
	}

	f.state = FlowVerifying
	session, err := f.svc.Verify(ctx, f.pending, code, currentSecret)
	if err != nil {
		f.state = FlowFailed
		return nil, "", err
	}

	accountID, err := f.svc.EnsureProfile(ctx, session.UserID, f.pending.Email, f.fullName)
	if err != nil {
		f.state = FlowFailed
		return nil, "", err
	}

	f.state = FlowAuthenticated
	f.pending = nil
	return session, accountID, nil
}
