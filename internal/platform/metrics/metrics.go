// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AccountsRegistered  prometheus.Counter
	Logins              *prometheus.CounterVec
	RecordsMutated      *prometheus.CounterVec
	PermissionDenied    *prometheus.CounterVec
	DuplicateNationalID *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccountsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "floodrelief_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "floodrelief_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		RecordsMutated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "floodrelief_records_mutated_total",
			Help: "Record creations, updates and deletions by kind",
		}, []string{"kind", "op"}),
		PermissionDenied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "floodrelief_permission_denied_total",
			Help: "Mutations rejected by the ownership policy, by kind",
		}, []string{"kind"}),
		DuplicateNationalID: f.NewCounterVec(prometheus.CounterOpts{
			Name: "floodrelief_duplicate_national_id_total",
			Help: "Creations rejected because the national id was already used, by kind",
		}, []string{"kind"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "floodrelief_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementAccountsRegistered() {
	m.AccountsRegistered.Inc()
}

func (m *Metrics) IncrementLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRecordMutation(kind, op string) {
	m.RecordsMutated.WithLabelValues(kind, op).Inc()
}

func (m *Metrics) IncrementPermissionDenied(kind string) {
	m.PermissionDenied.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementDuplicateNationalID(kind string) {
	m.DuplicateNationalID.WithLabelValues(kind).Inc()
}

// Middleware records request latency labelled by the matched chi route
// pattern, so path ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
