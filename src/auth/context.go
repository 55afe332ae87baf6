package auth

import (
	"context"
	"strings"
)

type contextKey string

const UserKey contextKey = "user"

// WithUserID stores the caller's opaque identity on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserKey, userID)
}

// GetUserFromContext returns the identity set by the upstream proxy.
func GetUserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserKey).(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", false
	}
	return userID, true
}
