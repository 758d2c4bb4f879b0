package admin

import (
	"log/slog"
	"net/http"

	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/httputil"
	authmw "floodrelief/pkg/platform/middleware/auth"
	"floodrelief/pkg/requestcontext"
)

// RequireAdmin admits only sessions whose account holds the admin flag.
// It must run after auth.Authenticate.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := authmw.GetSession(ctx)
			if !sess.IsAuthenticated() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "login required"))
				return
			}
			if !sess.IsAdmin {
				logger.WarnContext(ctx, "admin route denied",
					"account_id", sess.AccountID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "administrator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
