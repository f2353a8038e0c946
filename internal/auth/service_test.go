package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/cinevault/cinevault/internal/database"
	"github.com/cinevault/cinevault/internal/identity"
	"github.com/cinevault/cinevault/internal/models"
	"go.uber.org/zap"
)

// fakeProvider implements Provider in memory and counts calls so tests can
// assert that validation failures never reach the network.
type fakeProvider struct {
	calls map[string]int

	tokenUserID     string
	tokenErr        error
	sessionSecret   string
	sessionErr      error
	current         *models.Identity
	currentErr      error
	createAccErr    error
	passwordSession *models.Session
	passwordErr     error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls:         make(map[string]int),
		tokenUserID:   "p123",
		sessionSecret: "sek_abc",
	}
}

func (f *fakeProvider) CreateEmailToken(ctx context.Context, userID, email string) (*identity.EmailToken, error) {
	f.calls["CreateEmailToken"]++
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &identity.EmailToken{UserID: f.tokenUserID}, nil
}

func (f *fakeProvider) CreateTokenSession(ctx context.Context, userID, code string) (*models.Session, error) {
	f.calls["CreateTokenSession"]++
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &models.Session{UserID: userID, Secret: f.sessionSecret}, nil
}

func (f *fakeProvider) CreateAccount(ctx context.Context, accountID, email, password, name string) (*models.Identity, error) {
	f.calls["CreateAccount"]++
	if f.createAccErr != nil {
		return nil, f.createAccErr
	}
	return &models.Identity{ID: accountID, Email: email, Name: name}, nil
}

func (f *fakeProvider) CreateEmailPasswordSession(ctx context.Context, email, password string) (*models.Session, error) {
	f.calls["CreateEmailPasswordSession"]++
	if f.passwordErr != nil {
		return nil, f.passwordErr
	}
	if f.passwordSession != nil {
		return f.passwordSession, nil
	}
	return &models.Session{UserID: "acc-pw", Secret: "sek_pw"}, nil
}

func (f *fakeProvider) CurrentIdentity(ctx context.Context, sessionSecret string) (*models.Identity, error) {
	f.calls["CurrentIdentity"]++
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.current, nil
}

func (f *fakeProvider) DeleteSession(ctx context.Context, sessionSecret string) error {
	f.calls["DeleteSession"]++
	return nil
}

func (f *fakeProvider) totalCalls() int {
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// fakeProfileStore implements database.ProfileStore in memory, keyed by
// email like the real unique index.
type fakeProfileStore struct {
	byEmail   map[string]*models.UserProfile
	getErr    error
	createErr error
	// conflictWinner simulates a concurrent writer: Create fails with
	// ErrProfileExists and this record appears in the store.
	conflictWinner *models.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{byEmail: make(map[string]*models.UserProfile)}
}

func (f *fakeProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.conflictWinner != nil {
		f.byEmail[f.conflictWinner.Email] = f.conflictWinner
		return database.ErrProfileExists
	}
	if _, ok := f.byEmail[profile.Email]; ok {
		return database.ErrProfileExists
	}
	f.byEmail[profile.Email] = profile
	return nil
}

func (f *fakeProfileStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byEmail[email], nil
}

func (f *fakeProfileStore) GetByAccountID(ctx context.Context, accountID string) (*models.UserProfile, error) {
	for _, p := range f.byEmail {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	return nil, nil
}

func newTestService(provider *fakeProvider, store *fakeProfileStore) *Service {
	return NewService(provider, store, zap.NewNop())
}

func TestRequestCode(t *testing.T) {
	t.Parallel()

	t.Run("invalid email fails without a provider call", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		for _, email := range []string{"", "not-an-email", "alice@"} {
			_, err := svc.RequestCode(context.Background(), email)
			if !IsValidation(err) {
				t.Errorf("RequestCode(%q): expected ValidationError, got %v", email, err)
			}
		}
		if provider.totalCalls() != 0 {
			t.Errorf("expected no provider calls, got %d", provider.totalCalls())
		}
	})

	t.Run("returns pending authentication", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		pending, err := svc.RequestCode(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("RequestCode returned error: %v", err)
		}
		if pending.PendingID != "p123" {
			t.Errorf("expected pendingId 'p123', got %q", pending.PendingID)
		}
		if pending.Email != "alice@example.com" {
			t.Errorf("expected pending email to be kept, got %q", pending.Email)
		}
	})

	t.Run("provider failure surfaces as ProviderError", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.tokenErr = errors.New("smtp down")
		svc := newTestService(provider, newFakeProfileStore())

		_, err := svc.RequestCode(context.Background(), "alice@example.com")
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
		if provider.calls["CreateEmailToken"] != 1 {
			t.Errorf("expected exactly one token call, got %d", provider.calls["CreateEmailToken"])
		}
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	pending := &models.PendingAuthentication{PendingID: "p123", Email: "alice@example.com"}

	t.Run("empty code fails without a provider call", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		_, err := svc.Verify(context.Background(), pending, "", "")
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Message != "Enter the code sent to your email." {
			t.Errorf("unexpected message: %q", ve.Message)
		}
		if provider.totalCalls() != 0 {
			t.Errorf("expected no provider calls, got %d", provider.totalCalls())
		}
	})

	t.Run("missing pending fails without a provider call", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		for _, p := range []*models.PendingAuthentication{nil, {Email: "alice@example.com"}} {
			_, err := svc.Verify(context.Background(), p, "445566", "")
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Message != "Missing user. Please request a new code." {
				t.Errorf("unexpected message: %q", ve.Message)
			}
		}
		if provider.totalCalls() != 0 {
			t.Errorf("expected no provider calls, got %d", provider.totalCalls())
		}
	})

	t.Run("creates a session", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		session, err := svc.Verify(context.Background(), pending, "445566", "")
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if session.Secret != "sek_abc" {
			t.Errorf("expected secret 'sek_abc', got %q", session.Secret)
		}
		if session.UserID != "p123" {
			t.Errorf("expected userId 'p123', got %q", session.UserID)
		}
		if session.Reused {
			t.Error("expected a fresh session, got reused")
		}
	})

	t.Run("existing session skips session creation", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.current = &models.Identity{ID: "acc1", Email: "alice@example.com"}
		svc := newTestService(provider, newFakeProfileStore())

		session, err := svc.Verify(context.Background(), pending, "445566", "sek_live")
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if !session.Reused {
			t.Error("expected reused session")
		}
		if session.UserID != "acc1" {
			t.Errorf("expected userId from current identity, got %q", session.UserID)
		}
		if provider.calls["CreateTokenSession"] != 0 {
			t.Errorf("expected no session creation, got %d calls", provider.calls["CreateTokenSession"])
		}
	})

	t.Run("session-active rejection folds into success", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.sessionErr = &identity.Error{
			StatusCode: 400,
			Type:       identity.ErrTypeSessionActive,
			Message:    "Creation of a session is prohibited when a session is active",
		}
		svc := newTestService(provider, newFakeProfileStore())

		session, err := svc.Verify(context.Background(), pending, "445566", "")
		if err != nil {
			t.Fatalf("expected session-active to fold into success, got %v", err)
		}
		if !session.Reused {
			t.Error("expected reused session")
		}
	})

	t.Run("verify twice yields success both times", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		first, err := svc.Verify(context.Background(), pending, "445566", "")
		if err != nil {
			t.Fatalf("first Verify returned error: %v", err)
		}

		// The provider now rejects new sessions because one is active.
		provider.sessionErr = &identity.Error{Type: identity.ErrTypeSessionActive, Message: "session is active"}
		second, err := svc.Verify(context.Background(), pending, "445566", "")
		if err != nil {
			t.Fatalf("second Verify returned error: %v", err)
		}
		if first.Secret == "" || !second.Reused {
			t.Errorf("expected fresh then reused session, got %+v then %+v", first, second)
		}
	})

	t.Run("other provider errors propagate", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.sessionErr = &identity.Error{StatusCode: 401, Type: "invalid_credentials", Message: "bad code"}
		svc := newTestService(provider, newFakeProfileStore())

		_, err := svc.Verify(context.Background(), pending, "000000", "")
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
	})
}

func TestEnsureProfile(t *testing.T) {
	t.Parallel()

	t.Run("creates once and returns the same accountId", func(t *testing.T) {
		t.Parallel()
		store := newFakeProfileStore()
		svc := newTestService(newFakeProvider(), store)

		first, err := svc.EnsureProfile(context.Background(), "acc1", "alice@example.com", "Alice")
		if err != nil {
			t.Fatalf("first EnsureProfile returned error: %v", err)
		}
		second, err := svc.EnsureProfile(context.Background(), "acc-other", "alice@example.com", "Someone Else")
		if err != nil {
			t.Fatalf("second EnsureProfile returned error: %v", err)
		}
		if first != "acc1" || second != "acc1" {
			t.Errorf("expected 'acc1' both times, got %q then %q", first, second)
		}
		if len(store.byEmail) != 1 {
			t.Errorf("expected exactly one record, got %d", len(store.byEmail))
		}
	})

	t.Run("fullName defaults to empty and is never updated", func(t *testing.T) {
		t.Parallel()
		store := newFakeProfileStore()
		svc := newTestService(newFakeProvider(), store)

		if _, err := svc.EnsureProfile(context.Background(), "acc1", "alice@example.com", ""); err != nil {
			t.Fatalf("EnsureProfile returned error: %v", err)
		}
		if got := store.byEmail["alice@example.com"].FullName; got != "" {
			t.Errorf("expected empty fullName, got %q", got)
		}

		if _, err := svc.EnsureProfile(context.Background(), "acc1", "alice@example.com", "Alice Updated"); err != nil {
			t.Fatalf("EnsureProfile returned error: %v", err)
		}
		if got := store.byEmail["alice@example.com"].FullName; got != "" {
			t.Errorf("expected fullName to stay untouched, got %q", got)
		}
	})

	t.Run("stores the provided fullName on first creation", func(t *testing.T) {
		t.Parallel()
		store := newFakeProfileStore()
		svc := newTestService(newFakeProvider(), store)

		if _, err := svc.EnsureProfile(context.Background(), "acc1", "bob@example.com", "Bob"); err != nil {
			t.Fatalf("EnsureProfile returned error: %v", err)
		}
		p := store.byEmail["bob@example.com"]
		if p.FullName != "Bob" || p.AvatarURL != "" || p.AccountID != "acc1" {
			t.Errorf("unexpected profile: %+v", p)
		}
	})

	t.Run("insert conflict resolves to the surviving record", func(t *testing.T) {
		t.Parallel()
		store := newFakeProfileStore()
		store.conflictWinner = &models.UserProfile{AccountID: "acc-winner", Email: "alice@example.com"}
		svc := newTestService(newFakeProvider(), store)

		got, err := svc.EnsureProfile(context.Background(), "acc-loser", "alice@example.com", "")
		if err != nil {
			t.Fatalf("EnsureProfile returned error: %v", err)
		}
		if got != "acc-winner" {
			t.Errorf("expected winner's accountId, got %q", got)
		}
	})

	t.Run("store failure is a ProviderError", func(t *testing.T) {
		t.Parallel()
		store := newFakeProfileStore()
		store.getErr = errors.New("connection refused")
		svc := newTestService(newFakeProvider(), store)

		_, err := svc.EnsureProfile(context.Background(), "acc1", "alice@example.com", "")
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
	})
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	t.Run("rejects short passwords locally", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		_, err := svc.SignUp(context.Background(), "Alice", "alice@example.com", "short")
		if !IsValidation(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if provider.totalCalls() != 0 {
			t.Errorf("expected no provider calls, got %d", provider.totalCalls())
		}
	})

	t.Run("rejects an existing user", func(t *testing.T) {
		t.Parallel()
		store := newFakeProfileStore()
		store.byEmail["alice@example.com"] = &models.UserProfile{AccountID: "acc1", Email: "alice@example.com"}
		svc := newTestService(newFakeProvider(), store)

		_, err := svc.SignUp(context.Background(), "Alice", "alice@example.com", "longenough")
		if !IsValidation(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("creates account, profile, and session", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		store := newFakeProfileStore()
		svc := newTestService(provider, store)

		session, err := svc.SignUp(context.Background(), "Alice", "alice@example.com", "longenough")
		if err != nil {
			t.Fatalf("SignUp returned error: %v", err)
		}
		if session.Secret != "sek_pw" {
			t.Errorf("expected password session secret, got %q", session.Secret)
		}
		if provider.calls["CreateAccount"] != 1 || provider.calls["CreateEmailPasswordSession"] != 1 {
			t.Errorf("unexpected provider calls: %v", provider.calls)
		}
		p := store.byEmail["alice@example.com"]
		if p == nil || p.FullName != "Alice" {
			t.Errorf("expected provisioned profile, got %+v", p)
		}
	})
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	t.Run("validates locally first", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		svc := newTestService(provider, newFakeProfileStore())

		if _, err := svc.SignIn(context.Background(), "bad-email", "pw"); !IsValidation(err) {
			t.Errorf("expected ValidationError for bad email, got %v", err)
		}
		if _, err := svc.SignIn(context.Background(), "alice@example.com", ""); !IsValidation(err) {
			t.Errorf("expected ValidationError for empty password, got %v", err)
		}
		if provider.totalCalls() != 0 {
			t.Errorf("expected no provider calls, got %d", provider.totalCalls())
		}
	})

	t.Run("bad credentials surface as ProviderError", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.passwordErr = &identity.Error{StatusCode: 401, Type: "invalid_credentials", Message: "Invalid credentials"}
		svc := newTestService(provider, newFakeProfileStore())

		_, err := svc.SignIn(context.Background(), "alice@example.com", "wrongpass")
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
	})
}
