package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	authmw "floodrelief/pkg/platform/middleware/auth"
)

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	tests := []struct {
		name    string
		session models.Session
		status  int
	}{
		{name: "anonymous", session: models.Anonymous, status: http.StatusUnauthorized},
		{name: "regular account", session: models.Session{ID: id.NewSessionID(), AccountID: 2}, status: http.StatusForbidden},
		{name: "admin", session: models.Session{ID: id.NewSessionID(), AccountID: 1, IsAdmin: true}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			req = req.WithContext(authmw.WithSession(req.Context(), tt.session))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
