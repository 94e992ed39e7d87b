// Package appctx carries request-scoped values (acting user, trace ids)
// through context.Context.
package appctx

import (
	"context"

	"estampa/internal/core/id"
)

// UserContext holds the acting user identity supplied by the auth layer.
// Guest requests (e.g. guest order creation) have no UserContext.
type UserContext struct {
	UserID id.ID
	Email  string
	Role   string
}

type userKey struct{}

// WithUser stores the user context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the user context, or nil for guest requests.
func GetUser(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(userKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// UserID returns the acting user id, or nil for guest requests.
// Services pass this straight into movement audit records.
func UserID(ctx context.Context) *id.ID {
	if u := GetUser(ctx); u != nil && !id.IsNil(u.UserID) {
		uid := u.UserID
		return &uid
	}
	return nil
}
