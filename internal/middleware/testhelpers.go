package middleware

import (
	"context"

	"github.com/cinevault/cinevault/internal/models"
	"github.com/cinevault/cinevault/internal/request"
)

// SetUserInContext is a helper function for testing - sets user in context
// This is exported so other test packages can use it
func SetUserInContext(ctx context.Context, user *models.UserProfile) context.Context {
	return request.WithUser(ctx, user)
}
