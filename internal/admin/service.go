// Package admin serves the administration screen: the account list, the admin
// flag toggle, dashboard counts and recent audit events.
package admin

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"floodrelief/internal/admin/types"
	authModels "floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/audit"
)

const statsTimeout = 5 * time.Second

// AccountDirectory lists, counts and promotes accounts. The implementation
// enforces the admin check as well.
type AccountDirectory interface {
	List(ctx context.Context, session authModels.Session) ([]*types.AccountSummary, error)
	Count(ctx context.Context, session authModels.Session) (int, error)
	ToggleAdmin(ctx context.Context, session authModels.Session, accountID id.AccountID) (*types.AccountSummary, error)
}

type RecordCounter interface {
	Counts(ctx context.Context) (types.RecordCounts, error)
}

// AuditLog returns the newest audit events first.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Service struct {
	accounts AccountDirectory
	records  RecordCounter
	auditLog AuditLog
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditLog enables RecentAudit.
func WithAuditLog(log AuditLog) Option {
	return func(s *Service) {
		s.auditLog = log
	}
}

func NewService(accounts AccountDirectory, records RecordCounter, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		records:  records,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireAdmin(session authModels.Session) error {
	if !session.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "login required")
	}
	if !session.IsAdmin {
		return dErrors.New(dErrors.CodePermissionDenied, "administrator access required")
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context, session authModels.Session) ([]*types.AccountSummary, error) {
	return s.accounts.List(ctx, session)
}

func (s *Service) ToggleAdmin(ctx context.Context, session authModels.Session, accountID id.AccountID) (*types.AccountSummary, error) {
	return s.accounts.ToggleAdmin(ctx, session, accountID)
}

// Stats counts accounts and records concurrently. The first failure cancels
// the other count.
func (s *Service) Stats(ctx context.Context, session authModels.Session) (*types.Stats, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	stats := &types.Stats{}

	g.Go(func() error {
		n, err := s.accounts.Count(ctx, session)
		if err != nil {
			return err
		}
		stats.Accounts = n
		return nil
	})
	g.Go(func() error {
		counts, err := s.records.Counts(ctx)
		if err != nil {
			return err
		}
		stats.Records = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to compute admin stats", "error", err)
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to compute stats")
	}
	return stats, nil
}

// RecentAudit returns up to limit audit events, newest first.
func (s *Service) RecentAudit(ctx context.Context, session authModels.Session, limit int) ([]audit.Event, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if s.auditLog == nil {
		return []audit.Event{}, nil
	}
	events, err := s.auditLog.Recent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to read audit events")
	}
	return events, nil
}
