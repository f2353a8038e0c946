package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cinevault/cinevault/internal/auth"
	"github.com/cinevault/cinevault/internal/middleware"
	"github.com/cinevault/cinevault/internal/models"
	"github.com/gorilla/mux"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	service   *auth.Service
	projectID string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, projectID string) *AuthHandler {
	return &AuthHandler{service: service, projectID: projectID}
}

// RegisterRoutes registers the public auth routes on the given router.
// The router should already have the /api/v1/auth prefix.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/otp/request", h.RequestCode).Methods("POST")
	r.HandleFunc("/otp/verify", h.VerifyCode).Methods("POST")
	r.HandleFunc("/sign-up", h.SignUp).Methods("POST")
	r.HandleFunc("/sign-in", h.SignIn).Methods("POST")
	r.HandleFunc("/sign-out", h.SignOut).Methods("POST")
}

// RegisterProtectedRoutes registers auth routes that require a session.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// RequestCodeRequest represents a one-time code request
type RequestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCodeResponse correlates the later verify call
type RequestCodeResponse struct {
	PendingID string `json:"pending_id"`
	Email     string `json:"email"`
}

// RequestCode asks the identity provider to email a one-time code
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	pending, err := h.service.RequestCode(r.Context(), req.Email)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RequestCodeResponse{
		PendingID: pending.PendingID,
		Email:     pending.Email,
	})
}

// VerifyCodeRequest carries the pending authentication and the user-entered code
type VerifyCodeRequest struct {
	PendingID string `json:"pending_id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
}

// SessionResponse reports the established session
type SessionResponse struct {
	AccountID string `json:"account_id"`
	Reused    bool   `json:"reused"`
}

// VerifyCode exchanges the one-time code for a session cookie and provisions
// the caller's profile record. Verifying twice is not an error: an already
// active session is returned as a reused success.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	ctx := r.Context()
	pending := &models.PendingAuthentication{PendingID: req.PendingID, Email: req.Email}

	session, err := h.service.Verify(ctx, pending, req.Code, h.currentSecret(r))
	if err != nil {
		respondAuthError(w, err)
		return
	}

	accountID, err := h.service.EnsureProfile(ctx, session.UserID, req.Email, "")
	if err != nil {
		respondAuthError(w, err)
		return
	}

	// Cookie headers must go out before the body is written.
	if session.Secret != "" {
		http.SetCookie(w, auth.NewSessionCookie(h.projectID, session))
	}
	respondJSON(w, http.StatusOK, SessionResponse{AccountID: accountID, Reused: session.Reused})
}

// SignUpRequest represents an email/password registration
type SignUpRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account and signs it in
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	session, err := h.service.SignUp(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(h.projectID, session))
	respondJSON(w, http.StatusCreated, SessionResponse{AccountID: session.UserID})
}

// SignInRequest represents an email/password login
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn establishes an email/password session
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(h.projectID, session))
	respondJSON(w, http.StatusOK, SessionResponse{AccountID: session.UserID})
}

// SignOut invalidates the current session and clears the cookie
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), h.currentSecret(r)); err != nil {
		respondAuthError(w, err)
		return
	}

	http.SetCookie(w, auth.ExpiredSessionCookie(h.projectID))
	respondJSON(w, http.StatusOK, map[string]any{"signed_out": true})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// currentSecret returns the session secret from the request cookie, or "".
func (h *AuthHandler) currentSecret(r *http.Request) string {
	cookie, err := r.Cookie(auth.SessionCookieName(h.projectID))
	if err != nil {
		return ""
	}
	return cookie.Value
}

// respondAuthError maps flow errors onto status codes: invalid input is the
// caller's fault, provider failures are upstream.
func respondAuthError(w http.ResponseWriter, err error) {
	if auth.IsValidation(err) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", auth.UserMessage(err))
		return
	}
	respondJSONError(w, http.StatusBadGateway, "Provider Error", auth.UserMessage(err))
}
