package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/httputil"
	adminmw "floodrelief/pkg/platform/middleware/admin"
	authmw "floodrelief/pkg/platform/middleware/auth"
	"floodrelief/pkg/requestcontext"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Handler serves the admin endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin endpoints behind RequireAdmin.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdmin(h.logger))
		r.Get("/accounts", h.HandleListAccounts)
		r.Post("/accounts/{id}/toggle-admin", h.HandleToggleAdmin)
		r.Get("/stats", h.HandleStats)
		r.Get("/audit", h.HandleAudit)
	})
}

// HandleListAccounts handles GET /admin/accounts.
func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.service.ListAccounts(ctx, authmw.GetSession(ctx))
	if err != nil {
		h.fail(w, r, "list accounts failed", err)
		return
	}
	resp := &AccountsListResponse{Accounts: make([]*AccountResponse, 0, len(accounts))}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(a))
	}
	resp.Total = len(resp.Accounts)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleToggleAdmin handles POST /admin/accounts/{id}/toggle-admin.
func (h *Handler) HandleToggleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := id.ParseKey(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.service.ToggleAdmin(ctx, authmw.GetSession(ctx), id.AccountID(key))
	if err != nil {
		h.fail(w, r, "toggle admin failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(updated))
}

// HandleStats handles GET /admin/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx, authmw.GetSession(ctx))
	if err != nil {
		h.fail(w, r, "admin stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsResponse(stats))
}

// HandleAudit handles GET /admin/audit?limit=.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxAuditLimit {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "limit must be between 1 and %d", maxAuditLimit))
			return
		}
		limit = n
	}
	events, err := h.service.RecentAudit(ctx, authmw.GetSession(ctx), limit)
	if err != nil {
		h.fail(w, r, "read audit events failed", err)
		return
	}
	resp := &AuditListResponse{Events: make([]*AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toAuditEventResponse(e))
	}
	resp.Total = len(resp.Events)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
