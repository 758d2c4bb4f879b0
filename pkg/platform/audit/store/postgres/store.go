// Package postgres keeps the audit trail in the audit_events table so it
// survives restarts.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "floodrelief/pkg/domain"
	audit "floodrelief/pkg/platform/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const eventColumns = `category, occurred_at, account_id, actor_id, subject, action, reason, request_id, client_ip`

// Append inserts one event. The category is derived from the action when the
// emitter left it empty.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_id, `+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.New(),
		string(category),
		event.Timestamp,
		nullableID(event.AccountID),
		nullableID(event.ActorID),
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
		event.ClientIP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByAccount returns an account's events in arrival order.
func (s *Store) ListByAccount(ctx context.Context, accountID id.AccountID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM audit_events
		WHERE account_id = $1
		ORDER BY seq
	`, int64(accountID))
	if err != nil {
		return nil, fmt.Errorf("list audit events by account: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns up to limit events, newest first. A non-positive limit
// returns everything.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM audit_events ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var out []audit.Event
	for rows.Next() {
		var (
			e                  audit.Event
			category           string
			accountID, actorID sql.NullInt64
		)
		if err := rows.Scan(&category, &e.Timestamp, &accountID, &actorID,
			&e.Subject, &e.Action, &e.Reason, &e.RequestID, &e.ClientIP); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.AccountID = id.AccountID(accountID.Int64)
		e.ActorID = id.AccountID(actorID.Int64)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

func nullableID(v id.AccountID) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
