package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	logpkg "github.com/remindly/remind-api/internal/logger"
	"github.com/remindly/remind-api/internal/request"
	"github.com/remindly/remind-api/internal/services/auth"
	"go.uber.org/zap"
)

// Auth creates authentication middleware that validates bearer tokens and
// attaches the token subject to the request context as the owner ID.
func Auth(verifier *auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				logger.Warn("token_verification_failed",
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx = request.WithOwner(ctx, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DevAuth attaches an owner ID from the X-User-ID header, falling back to a
// default owner. For local development only, when no JWKS endpoint is set.
func DevAuth(defaultOwner string) func(http.Handler) http.Handler {
	if defaultOwner == "" {
		defaultOwner = "local"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := r.Header.Get("X-User-ID")
			if owner == "" {
				owner = defaultOwner
			}
			ctx := request.WithOwner(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
