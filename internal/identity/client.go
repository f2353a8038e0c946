package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cinevault/cinevault/internal/models"
)

// Request headers understood by the hosted identity provider.
const (
	headerProject = "X-CV-Project"
	headerKey     = "X-CV-Key"
	headerSession = "X-CV-Session"
)

// Config identifies a provider project. It is an immutable handle: build it
// once at startup and pass it to NewClient, never mutate it afterwards.
type Config struct {
	// Endpoint is the provider's API base URL, e.g. https://cloud.example.com/v1.
	Endpoint string
	// ProjectID scopes every call to one project.
	ProjectID string
	// APIKey is an optional elevated credential for server-side operations.
	APIKey string
}

// Client is an HTTP client for the hosted identity provider. The zero value
// is not usable; construct with NewClient.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a provider client from an immutable config handle.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// JWKSURL returns the provider's key-set endpoint for session verification.
func (c *Client) JWKSURL() string {
	return strings.TrimSuffix(c.cfg.Endpoint, "/") + "/.well-known/jwks.json"
}

// Issuer returns the issuer string the provider stamps into session tokens.
func (c *Client) Issuer() string {
	return strings.TrimSuffix(c.cfg.Endpoint, "/")
}

// EmailToken is the provider's response to a one-time-code request. The
// code itself is delivered out of band to the email address.
type EmailToken struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expire"`
}

type sessionPayload struct {
	UserID    string    `json:"userId"`
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expire"`
}

type identityPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateEmailToken asks the provider to generate and deliver a one-time
// code to email. userID becomes the account ID if the email is new.
// Repeated calls send repeated codes; the provider exposes no idempotency
// guarantee here.
func (c *Client) CreateEmailToken(ctx context.Context, userID, email string) (*EmailToken, error) {
	body := map[string]string{"userId": userID, "email": email}
	var token EmailToken
	if err := c.do(ctx, http.MethodPost, "/account/tokens/email", "", body, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateTokenSession exchanges a pending token and the user-entered code
// for a session.
func (c *Client) CreateTokenSession(ctx context.Context, userID, code string) (*models.Session, error) {
	body := map[string]string{"userId": userID, "secret": code}
	var s sessionPayload
	if err := c.do(ctx, http.MethodPost, "/account/sessions/token", "", body, &s); err != nil {
		return nil, err
	}
	return &models.Session{UserID: s.UserID, Secret: s.Secret, ExpiresAt: s.ExpiresAt}, nil
}

// CreateAccount registers a new email/password account under accountID.
func (c *Client) CreateAccount(ctx context.Context, accountID, email, password, name string) (*models.Identity, error) {
	body := map[string]string{
		"userId":   accountID,
		"email":    email,
		"password": password,
		"name":     name,
	}
	var ident identityPayload
	if err := c.do(ctx, http.MethodPost, "/account", "", body, &ident); err != nil {
		return nil, err
	}
	return &models.Identity{ID: ident.ID, Email: ident.Email, Name: ident.Name}, nil
}

// CreateEmailPasswordSession signs in with email and password.
func (c *Client) CreateEmailPasswordSession(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var s sessionPayload
	if err := c.do(ctx, http.MethodPost, "/account/sessions/email", "", body, &s); err != nil {
		return nil, err
	}
	return &models.Session{UserID: s.UserID, Secret: s.Secret, ExpiresAt: s.ExpiresAt}, nil
}

// CurrentIdentity returns the identity authenticated by sessionSecret, or
// (nil, nil) when the secret is empty or the provider reports no session.
func (c *Client) CurrentIdentity(ctx context.Context, sessionSecret string) (*models.Identity, error) {
	if sessionSecret == "" {
		return nil, nil
	}
	var ident identityPayload
	err := c.do(ctx, http.MethodGet, "/account", sessionSecret, nil, &ident)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) && pe.StatusCode == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return &models.Identity{ID: ident.ID, Email: ident.Email, Name: ident.Name}, nil
}

// DeleteSession invalidates the session identified by sessionSecret.
func (c *Client) DeleteSession(ctx context.Context, sessionSecret string) error {
	return c.do(ctx, http.MethodDelete, "/account/sessions/current", sessionSecret, nil, nil)
}

// do issues one provider call. sessionSecret is optional; the project
// header is always sent and the API key is attached when configured.
func (c *Client) do(ctx context.Context, method, path, sessionSecret string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := strings.TrimSuffix(c.cfg.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerProject, c.cfg.ProjectID)
	if c.cfg.APIKey != "" {
		req.Header.Set(headerKey, c.cfg.APIKey)
	}
	if sessionSecret != "" {
		req.Header.Set(headerSession, sessionSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode >= 400 {
		pe := &Error{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, pe); err != nil || pe.Message == "" {
			pe.Message = strings.TrimSpace(string(data))
			if pe.Message == "" {
				pe.Message = http.StatusText(resp.StatusCode)
			}
		}
		pe.StatusCode = resp.StatusCode
		return pe
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
