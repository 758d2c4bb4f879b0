package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/httputil"
	"floodrelief/pkg/requestcontext"
)

// Middleware limits requests per client IP and endpoint class. Store failures
// let the request through.
type Middleware struct {
	store  Store
	logger *slog.Logger
	limit  int
	window time.Duration
}

func NewMiddleware(store Store, limit int, window time.Duration, logger *slog.Logger) *Middleware {
	return &Middleware{
		store:  store,
		logger: logger,
		limit:  limit,
		window: window,
	}
}

// Limit returns middleware counting requests under class. It relies on
// metadata.ClientMetadata having stored the client IP.
func (m *Middleware) Limit(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			now := requestcontext.Now(ctx)
			ip := requestcontext.ClientIP(ctx)

			result, err := m.store.Allow(ctx, class+":"+ip, m.limit, m.window, now)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"class", class,
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retry := int(result.RetryAfter(now).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
