// Package service implements account registration, login and the identity
// session lifecycle.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"floodrelief/internal/auth/models"
	"floodrelief/internal/auth/password"
	"floodrelief/internal/auth/store/account"
	"floodrelief/internal/platform/metrics"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/audit"
	"floodrelief/pkg/requestcontext"
)

// AccountStore is the credential store plus its transaction boundary.
type AccountStore interface {
	account.Store
	RunInTx(ctx context.Context, fn func(store account.Store) error) error
}

type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteByAccount(ctx context.Context, accountID id.AccountID) error
}

type TokenIssuer interface {
	IssueSessionToken(sessionID id.SessionID, accountID id.AccountID, ttl time.Duration) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the Credential Store and the Session Store.
type Service struct {
	accounts       AccountStore
	sessions       SessionStore
	tokens         TokenIssuer
	hasher         *password.Hasher
	sessionTTL     time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	// decoy credentials verified for unknown logins so both failure paths
	// cost one KDF computation
	decoySalt string
	decoyHash string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithHasher(h *password.Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// WithSessionTTL bounds session lifetime; zero keeps sessions until logout.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(accounts AccountStore, sessions SessionStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		logger:   slog.Default(),
		tracer:   otel.Tracer("floodrelief/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = password.Default()
	}
	s.decoySalt = "00000000000000000000000000000000"
	s.decoyHash = s.hasher.HashSecret("decoy-secret", s.decoySalt)
	return s
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "auth."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, e audit.Event, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if e.AccountID != 0 {
		attributes = append(attributes, "account_id", e.AccountID.String())
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	e.Action = string(event)
	e.RequestID = requestID
	e.ClientIP = requestcontext.ClientIP(ctx)
	e.Timestamp = requestcontext.Now(ctx)
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func (s *Service) incrementLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLogin(outcome)
	}
}
