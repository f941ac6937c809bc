package http

import (
	"context"
	"log/slog"

	"github.com/example/rotation-scheduler/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	userIDContextKey     contextKey = "user_id"
	groupIDContextKey    contextKey = "group_id"
	rotationIDContextKey contextKey = "rotation_id"
	loggerContextKey     contextKey = "logger"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithGroupID injects the group identifier resolved from the request path.
func ContextWithGroupID(ctx context.Context, groupID string) context.Context {
	return context.WithValue(ctx, groupIDContextKey, groupID)
}

// GroupIDFromContext extracts a group identifier previously associated with the context.
func GroupIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(groupIDContextKey).(string)
	return id, ok
}

// ContextWithRotationID injects the rotation identifier resolved from the request path.
func ContextWithRotationID(ctx context.Context, rotationID string) context.Context {
	return context.WithValue(ctx, rotationIDContextKey, rotationID)
}

// RotationIDFromContext extracts a rotation identifier previously associated with the context.
func RotationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(rotationIDContextKey).(string)
	return id, ok
}

// ContextWithLogger returns a derived context carrying the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext extracts a logger previously attached to the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger
}
