package identity

import (
	"context"
	"fmt"

	"github.com/cinevault/cinevault/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier verifies provider-issued session tokens locally against the
// provider's JWKS, so authenticated requests avoid a provider round-trip.
type Verifier struct {
	jwksManager *JWKSManager
	issuer      string
}

// NewVerifier creates a new session token verifier
func NewVerifier(jwksManager *JWKSManager, issuer string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		issuer:      issuer,
	}
}

// Verify verifies a session token and extracts its claims
func (v *Verifier) Verify(ctx context.Context, tokenString string, jwksURL string) (*models.SessionClaims, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify session token: %w", err)
	}

	iss, ok := token.Get("iss")
	if !ok {
		return nil, fmt.Errorf("session token missing issuer claim")
	}
	if issStr, ok := iss.(string); !ok || issStr != v.issuer {
		return nil, fmt.Errorf("session token issuer mismatch: expected %s, got %v", v.issuer, iss)
	}

	claims := &models.SessionClaims{
		Sub: token.Subject(),
		Iss: v.issuer,
		Exp: token.Expiration().Unix(),
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}
