package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/identity"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/cinevault/cinevault/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 8

// Provider is the subset of the identity provider API the auth flows use.
type Provider interface {
	CreateEmailToken(ctx context.Context, userID, email string) (*identity.EmailToken, error)
	CreateTokenSession(ctx context.Context, userID, code string) (*models.Session, error)
	CreateAccount(ctx context.Context, accountID, email, password, name string) (*models.Identity, error)
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*models.Session, error)
	CurrentIdentity(ctx context.Context, sessionSecret string) (*models.Identity, error)
	DeleteSession(ctx context.Context, sessionSecret string) error
}

// Service implements account sign-up/sign-in and the one-time-code flow:
// request a code, verify it, and provision the user profile record.
type Service struct {
	provider Provider
	profiles database.ProfileStore
	logger   *zap.Logger
}

// NewService creates a new auth service
func NewService(provider Provider, profiles database.ProfileStore, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		profiles: profiles,
		logger:   logger,
	}
}

// RequestCode asks the provider to deliver a one-time code to email and
// returns the pending authentication that correlates the later verify call.
// Repeated calls send repeated codes.
func (s *Service) RequestCode(ctx context.Context, email string) (*models.PendingAuthentication, error) {
	email = validation.SanitizeText(email)
	if !validation.ValidEmail(email) {
		return nil, &ValidationError{Message: "Invalid email address."}
	}

	token, err := s.provider.CreateEmailToken(ctx, uuid.NewString(), email)
	if err != nil {
		return nil, &ProviderError{Op: "request code", Err: err}
	}

	return &models.PendingAuthentication{
		PendingID: token.UserID,
		Email:     email,
	}, nil
}

// Verify establishes a session from the pending authentication and the
// user-entered code. Verification tolerates repeats: if a session already
// exists for this client (currentSecret) or the provider rejects session
// creation because one is active, that existing session is the result, not
// an error.
func (s *Service) Verify(ctx context.Context, pending *models.PendingAuthentication, code, currentSecret string) (*models.Session, error) {
	if code == "" {
		return nil, &ValidationError{Message: "Enter the code sent to your email."}
	}
	if pending == nil || pending.PendingID == "" {
		return nil, &ValidationError{Message: "Missing user. Please request a new code."}
	}

	ident, err := s.provider.CurrentIdentity(ctx, currentSecret)
	if err != nil {
		return nil, &ProviderError{Op: "verify code", Err: err}
	}
	if ident != nil {
		return &models.Session{UserID: ident.ID, Secret: currentSecret, Reused: true}, nil
	}

	session, err := s.provider.CreateTokenSession(ctx, pending.PendingID, code)
	if err != nil {
		if identity.IsSessionActive(err) {
			return &models.Session{UserID: pending.PendingID, Secret: currentSecret, Reused: true}, nil
		}
		return nil, &ProviderError{Op: "verify code", Err: err}
	}

	return session, nil
}

// EnsureProfile guarantees exactly one profile record for email and returns
// its account ID. Existing profiles are returned untouched: fullName is
// never updated on later logins, even when the caller supplies a new value.
// The unique index on email is the real duplicate guard; the lookup is only
// a fast path, and an insert conflict resolves to the surviving record.
func (s *Service) EnsureProfile(ctx context.Context, accountID, email, fullName string) (string, error) {
	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed_to_look_up_profile",
			zap.String("email", email),
			zap.Error(err),
		)
		return "", &ProviderError{Op: "ensure profile", Err: err}
	}
	if existing != nil {
		return existing.AccountID, nil
	}

	profile := &models.UserProfile{
		AccountID: accountID,
		Email:     email,
		FullName:  fullName,
		AvatarURL: "",
	}
	err = s.profiles.Create(ctx, profile)
	if errors.Is(err, database.ErrProfileExists) {
		// Lost a provisioning race; the surviving record wins.
		winner, lookupErr := s.profiles.GetByEmail(ctx, email)
		if lookupErr != nil || winner == nil {
			s.logger.Error("failed_to_resolve_profile_conflict",
				zap.String("email", email),
				zap.Error(lookupErr),
			)
			return "", &ProviderError{Op: "ensure profile", Err: fmt.Errorf("resolve conflict: %w", lookupErr)}
		}
		return winner.AccountID, nil
	}
	if err != nil {
		s.logger.Error("failed_to_create_profile",
			zap.String("email", email),
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return "", &ProviderError{Op: "ensure profile", Err: err}
	}

	return accountID, nil
}

// SignUp registers an email/password account, provisions its profile, and
// signs the new account in.
func (s *Service) SignUp(ctx context.Context, fullName, email, password string) (*models.Session, error) {
	email = validation.SanitizeText(email)
	if !validation.ValidEmail(email) {
		return nil, &ValidationError{Message: "Invalid email address."}
	}
	if len(password) < MinPasswordLength {
		return nil, &ValidationError{Message: "Password must be at least 8 characters."}
	}

	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, &ProviderError{Op: "sign up", Err: err}
	}
	if existing != nil {
		return nil, &ValidationError{Message: "User already exists."}
	}

	accountID := uuid.NewString()
	if _, err := s.provider.CreateAccount(ctx, accountID, email, password, fullName); err != nil {
		return nil, &ProviderError{Op: "sign up", Err: err}
	}

	if _, err := s.EnsureProfile(ctx, accountID, email, fullName); err != nil {
		return nil, err
	}

	session, err := s.provider.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		return nil, &ProviderError{Op: "sign up", Err: err}
	}

	return session, nil
}

// SignIn establishes an email/password session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = validation.SanitizeText(email)
	if !validation.ValidEmail(email) {
		return nil, &ValidationError{Message: "Invalid email address."}
	}
	if password == "" {
		return nil, &ValidationError{Message: "Password is required."}
	}

	session, err := s.provider.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		return nil, &ProviderError{Op: "sign in", Err: err}
	}

	return session, nil
}

// SignOut invalidates the session identified by secret.
func (s *Service) SignOut(ctx context.Context, secret string) error {
	if secret == "" {
		return nil
	}
	if err := s.provider.DeleteSession(ctx, secret); err != nil {
		return &ProviderError{Op: "sign out", Err: err}
	}
	return nil
}
