package testutil

import (
	"net/http"

	"floodrelief/internal/auth/models"
	authmw "floodrelief/pkg/platform/middleware/auth"
)

// WithSession attaches a session to the request context, as Authenticate
// would after resolving a token.
func WithSession(req *http.Request, sess models.Session) *http.Request {
	return req.WithContext(authmw.WithSession(req.Context(), sess))
}
