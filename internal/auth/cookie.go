package auth

import (
	"net/http"
	"time"

	"github.com/cinevault/cinevault/internal/models"
)

const sessionCookiePrefix = "cv_session_"

// SessionCookieName derives the session cookie name from the provider
// project ID, so sessions for different projects never collide.
func SessionCookieName(projectID string) string {
	return sessionCookiePrefix + projectID
}

// NewSessionCookie builds the hardened session cookie for a session. The
// cookie must be attached before the response body is written so the
// credential always accompanies the response.
func NewSessionCookie(projectID string, session *models.Session) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName(projectID),
		Value:    session.Secret,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	if !session.ExpiresAt.IsZero() {
		c.Expires = session.ExpiresAt
	}
	return c
}

// ExpiredSessionCookie returns a cookie that clears the session on sign-out.
func ExpiredSessionCookie(projectID string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName(projectID),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	}
}
