package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodrelief/pkg/requestcontext"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestInMemoryAllow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	for i := range 3 {
		res, err := store.Allow(ctx, "login:10.0.0.1", 3, time.Minute, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	t.Run("fourth request in the window is rejected", func(t *testing.T) {
		res, err := store.Allow(ctx, "login:10.0.0.1", 3, time.Minute, t0.Add(30*time.Second))
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, t0.Add(time.Minute), res.ResetAt)
		assert.Equal(t, 30*time.Second, res.RetryAfter(t0.Add(30*time.Second)))
	})

	t.Run("keys are independent", func(t *testing.T) {
		res, err := store.Allow(ctx, "login:10.0.0.2", 3, time.Minute, t0.Add(30*time.Second))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		res, err := store.Allow(ctx, "login:10.0.0.1", 3, time.Minute, t0.Add(time.Minute+500*time.Millisecond))
		require.NoError(t, err)
		assert.True(t, res.Allowed, "the first request has left the window")
	})
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration, time.Time) (*Result, error) {
	return nil, errors.New("redis down")
}

func limited(store Store, limit int) http.Handler {
	m := NewMiddleware(store, limit, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return m.Limit("auth")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func request(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, "test")
	ctx = requestcontext.WithTime(ctx, t0)
	return req.WithContext(ctx)
}

func TestMiddleware(t *testing.T) {
	t.Run("rejects over the limit with Retry-After", func(t *testing.T) {
		h := limited(NewInMemory(), 2)
		for range 2 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, request("10.0.0.1"))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "61", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, request("10.0.0.9"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("store failures let requests through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		limited(failingStore{}, 1).ServeHTTP(rec, request("10.0.0.1"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
