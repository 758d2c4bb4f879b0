// Package auth resolves bearer tokens into the caller's session.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/httputil"
	"floodrelief/pkg/requestcontext"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is what the middleware needs from a validated token.
type TokenClaims struct {
	SessionID id.SessionID
	JTI       string
}

// SessionResolver loads the live session named by a token.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
}

type contextKeySession struct{}

// GetSession returns the caller's session, or models.Anonymous.
func GetSession(ctx context.Context) models.Session {
	if sess, ok := ctx.Value(contextKeySession{}).(models.Session); ok {
		return sess
	}
	return models.Anonymous
}

// WithSession stores the session in ctx. Handler tests use it to skip the
// token round trip.
func WithSession(ctx context.Context, sess models.Session) context.Context {
	return context.WithValue(ctx, contextKeySession{}, sess)
}

// Authenticate resolves an Authorization bearer token into a session.
// Requests without the header continue as anonymous; a header that does not
// resolve to a live session is rejected with 401.
func Authenticate(validator TokenValidator, resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			requestID := requestcontext.RequestID(ctx)
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			sess, err := resolver.ResolveSession(ctx, claims.SessionID)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.WarnContext(ctx, "unauthorized access - session ended",
						"session_id", claims.SessionID.String(),
						"request_id", requestID,
					)
					httputil.WriteError(w, err)
					return
				}
				logger.ErrorContext(ctx, "failed to resolve session",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, *sess)))
		})
	}
}

// RequireSession rejects anonymous callers with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetSession(r.Context()).IsAuthenticated() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "login required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
