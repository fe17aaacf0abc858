package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/service"
)

type contextKey string

const callerKey contextKey = "caller"

// JWTAuthMiddleware validates Bearer tokens, resolves the caller's privilege
// and injects the caller into the context.
func JWTAuthMiddleware(authSvc *service.AuthService, accessSvc *service.AccessService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				logger.Warn("auth: missing or malformed token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := authSvc.ValidateToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			caller, err := accessSvc.Resolve(r.Context(), claims.UserID, claims.UserEmail)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext extracts the authenticated caller from context. The zero
// Caller sees nothing.
func CallerFromContext(ctx context.Context) domain.Caller {
	c, _ := ctx.Value(callerKey).(domain.Caller)
	return c
}
