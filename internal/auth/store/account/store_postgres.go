package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"floodrelief/internal/auth/models"
	"floodrelief/internal/platform/postgres"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL. It is pure I/O; uniqueness
// is enforced by the accounts_login_key and accounts_national_id_key indexes.
type PostgresStore struct {
	db *sql.DB
	q  postgres.DBTX
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

const accountColumns = `id, login, email, contact, secret_hash, salt, national_id, is_admin, created_at`

func (s *PostgresStore) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (login, email, contact, secret_hash, salt, national_id, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var newID int64
	err := s.q.QueryRowContext(ctx, query,
		a.Login, a.Email, a.Contact, a.SecretHash, a.Salt, string(a.NationalID), a.IsAdmin, a.CreatedAt,
	).Scan(&newID)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok {
			if constraint == "accounts_login_key" {
				return sentinel.Conflict("login")
			}
			return sentinel.Conflict("national_id")
		}
		return fmt.Errorf("create account: %w", err)
	}
	a.ID = id.AccountID(newID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, int64(accountID))
}

func (s *PostgresStore) FindByLogin(ctx context.Context, login string) (*models.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE login = $1`, login)
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID id.NationalID) (*models.Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE national_id = $1`, string(nationalID))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetAdmin(ctx context.Context, accountID id.AccountID, isAdmin bool) error {
	res, err := s.q.ExecContext(ctx, `UPDATE accounts SET is_admin = $2 WHERE id = $1`, int64(accountID), isAdmin)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// RunInTx hands fn a store bound to a single transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(store Store) error) error {
	return postgres.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&PostgresStore{db: s.db, q: tx})
	})
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a, err := scanAccount(s.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a          models.Account
		rawID      int64
		nationalID string
	)
	if err := row.Scan(&rawID, &a.Login, &a.Email, &a.Contact, &a.SecretHash, &a.Salt, &nationalID, &a.IsAdmin, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AccountID(rawID)
	a.NationalID = id.NationalID(nationalID)
	return &a, nil
}
