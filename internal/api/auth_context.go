package api

import (
	"context"
	"net/http"

	"github.com/notekeep/notekeep-server/internal/auth"
	domainerrors "github.com/notekeep/notekeep-server/internal/errors"
	"github.com/notekeep/notekeep-server/internal/logger"
	"github.com/notekeep/notekeep-server/internal/metrics"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// bearerTokenKey is the context key for the presented bearer token.
const bearerTokenKey ctxKey = "bearerToken"

// authMiddleware stores the bearer token of the request in its context.
// It never rejects; operations call requireScope with the scope they need.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.FromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), bearerTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey).(string)
	return token
}

// requireScope checks the request credential grants scope and returns
// everything it grants. Denials are logged and counted.
func (s *Server) requireScope(ctx context.Context, scope auth.Scope) (auth.Scopes, error) {
	scopes, err := s.keys.Authorize(bearerToken(ctx), scope)
	if err == nil {
		return scopes, nil
	}

	reason := "insufficient_scope"
	if domainerrors.Is(err, domainerrors.ErrUnauthorized) {
		reason = "missing_token"
	}
	metrics.TrackAuthDenied(reason, string(scope))
	logger.FromContext(ctx, s.logger).Warn("Request denied",
		"reason", reason,
		"required_scope", scope,
		"granted", scopes.String(),
	)
	return scopes, err
}
