package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
)

type contextKey string

const (
	actorContextKey     contextKey = "actor"
	requestIDContextKey contextKey = "requestID"
)

// ContextualLoggerMiddleware attaches a request-scoped logger carrying a
// generated request ID.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitMiddleware rejects requests once the shared limiter is drained
func RateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
				sendJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware validates the bearer token, re-resolves the actor from
// the user directory, and stores it in the request context. The role is
// always taken from the directory, never from the token claims, so a
// role change takes effect before the token expires.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger := logger.FromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			sendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			sendJSONError(w, "Authorization header must use the Bearer scheme", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		userID, err := s.Tokens.Validate(tokenString)
		if err != nil {
			ctxLogger.Warn("Token validation failed", "path", r.URL.Path, "error", err)
			sendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		actor, err := s.Users.Lookup(r.Context(), userID)
		if err != nil {
			ctxLogger.Warn("Token subject no longer exists", "userID", userID)
			sendJSONError(w, "Invalid session or user", http.StatusUnauthorized)
			return
		}

		enriched := ctxLogger.With(slog.String("userID", actor.ID), slog.String("role", string(actor.Role)))
		ctx := logger.ToContext(r.Context(), enriched)
		ctx = context.WithValue(ctx, actorContextKey, actor)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext retrieves the authenticated actor stored by AuthMiddleware
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}
