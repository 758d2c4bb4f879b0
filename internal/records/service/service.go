// Package service implements the owned-record operations: donations with
// their items, help requests, pet listings and item search. Every operation
// takes the caller's session explicitly.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/photo"
	"floodrelief/internal/platform/metrics"
	"floodrelief/internal/records/models"
	"floodrelief/internal/records/store"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/sentinel"
	"floodrelief/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the record tables.
type Service struct {
	store          store.TxStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	allowAnonymous bool
	thumbnail      func([]byte) ([]byte, error)
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

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithAnonymousSubmissions lets callers without a session create donations,
// help requests and pet listings. Such records have no owner account.
func WithAnonymousSubmissions(allow bool) Option {
	return func(s *Service) {
		s.allowAnonymous = allow
	}
}

// New constructs a record Service.
func New(st store.TxStore, opts ...Option) *Service {
	s := &Service{
		store:     st,
		logger:    slog.Default(),
		tracer:    otel.Tracer("floodrelief/records"),
		thumbnail: photo.Thumbnail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "records."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// requireCreator admits authenticated sessions, and anonymous ones when
// anonymous submissions are enabled.
func (s *Service) requireCreator(session authmodels.Session) error {
	if session.IsAuthenticated() || s.allowAnonymous {
		return nil
	}
	return dErrors.New(dErrors.CodeUnauthorized, "login required")
}

func requireSession(session authmodels.Session) error {
	if !session.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "login required")
	}
	return nil
}

// translateStoreError maps storage sentinels onto domain errors. Domain
// errors raised inside a transaction pass through unchanged.
func translateStoreError(err error, kind models.Kind, action string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", describeKind(kind))
	case errors.Is(err, sentinel.ErrConflict):
		return duplicateNationalID(kind)
	}
	return dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to "+action)
}

func duplicateNationalID(kind models.Kind) error {
	return dErrors.Newf(dErrors.CodeDuplicateNationalID, "a %s already exists for this national id", describeKind(kind))
}

func describeKind(kind models.Kind) string {
	switch kind {
	case models.KindHelpRequest:
		return "help request"
	case models.KindPet:
		return "pet listing"
	}
	return string(kind)
}

// observe records metrics and audit events for the outcome of a mutation.
func (s *Service) observe(ctx context.Context, session authmodels.Session, op string, ref models.Ref, err error) {
	kind := string(ref.Kind)
	if err == nil {
		if s.metrics != nil {
			s.metrics.IncrementRecordMutation(kind, op)
		}
		event := map[string]audit.AuditEvent{
			"create": audit.EventRecordCreated,
			"update": audit.EventRecordUpdated,
			"delete": audit.EventRecordDeleted,
		}[op]
		s.logAudit(ctx, event,
			audit.Event{AccountID: session.AccountID, Subject: ref.String()},
			"kind", kind,
		)
		return
	}
	switch {
	case dErrors.HasCode(err, dErrors.CodePermissionDenied):
		if s.metrics != nil {
			s.metrics.IncrementPermissionDenied(kind)
		}
		s.logAudit(ctx, audit.EventPermissionDenied,
			audit.Event{AccountID: session.AccountID, Subject: ref.String(), Reason: op},
			"kind", kind,
			"op", op,
		)
	case dErrors.HasCode(err, dErrors.CodeDuplicateNationalID):
		if s.metrics != nil {
			s.metrics.IncrementDuplicateNationalID(kind)
		}
	case dErrors.HasCode(err, dErrors.CodeOperationFailed):
		s.logger.ErrorContext(ctx, "record operation failed",
			"kind", kind,
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, e audit.Event, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if e.AccountID != 0 {
		attributes = append(attributes, "account_id", e.AccountID.String())
	}
	args := append(attributes, "event", string(event), "subject", e.Subject, "log_type", "audit")
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
