package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodrelief/internal/admin/types"
	authModels "floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
)

type stubAccounts struct {
	count int
	err   error
}

func (s stubAccounts) List(context.Context, authModels.Session) ([]*types.AccountSummary, error) {
	return nil, s.err
}

func (s stubAccounts) Count(context.Context, authModels.Session) (int, error) {
	return s.count, s.err
}

func (s stubAccounts) ToggleAdmin(context.Context, authModels.Session, id.AccountID) (*types.AccountSummary, error) {
	return nil, s.err
}

type stubRecords struct {
	counts types.RecordCounts
	err    error
}

func (s stubRecords) Counts(ctx context.Context) (types.RecordCounts, error) {
	if s.err == nil {
		return s.counts, nil
	}
	return types.RecordCounts{}, s.err
}

// blockingRecords waits for cancellation, proving a failed sibling count
// cancels the shared context.
type blockingRecords struct{}

func (blockingRecords) Counts(ctx context.Context) (types.RecordCounts, error) {
	<-ctx.Done()
	return types.RecordCounts{}, ctx.Err()
}

var adminSession = authModels.Session{ID: id.NewSessionID(), AccountID: 1, IsAdmin: true}

func newTestService(accounts AccountDirectory, records RecordCounter) *Service {
	return NewService(accounts, records, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	t.Run("combines both counts", func(t *testing.T) {
		svc := newTestService(stubAccounts{count: 3}, stubRecords{counts: types.RecordCounts{Donations: 2, Items: 5, HelpRequests: 1, Pets: 4}})
		stats, err := svc.Stats(ctx, adminSession)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Accounts)
		assert.Equal(t, types.RecordCounts{Donations: 2, Items: 5, HelpRequests: 1, Pets: 4}, stats.Records)
	})

	t.Run("requires an admin session", func(t *testing.T) {
		svc := newTestService(stubAccounts{}, stubRecords{})
		_, err := svc.Stats(ctx, authModels.Anonymous)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = svc.Stats(ctx, authModels.Session{ID: id.NewSessionID(), AccountID: 2})
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("storage failure is an operation failure", func(t *testing.T) {
		svc := newTestService(stubAccounts{}, stubRecords{err: errors.New("connection refused")})
		_, err := svc.Stats(ctx, adminSession)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOperationFailed))
	})

	t.Run("domain errors pass through and cancel the other count", func(t *testing.T) {
		denied := dErrors.New(dErrors.CodePermissionDenied, "administrator access required")
		svc := newTestService(stubAccounts{err: denied}, blockingRecords{})
		_, err := svc.Stats(ctx, adminSession)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
}

func TestRecentAuditWithoutLog(t *testing.T) {
	svc := newTestService(stubAccounts{}, stubRecords{})
	events, err := svc.RecentAudit(context.Background(), adminSession, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
