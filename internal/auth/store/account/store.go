// Package account persists accounts in memory or PostgreSQL.
package account

import (
	"context"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
)

// Store is the account persistence contract shared by both backends and by
// the transaction-scoped view handed to RunInTx callbacks.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByLogin(ctx context.Context, login string) (*models.Account, error)
	FindByNationalID(ctx context.Context, nationalID id.NationalID) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	SetAdmin(ctx context.Context, accountID id.AccountID, isAdmin bool) error
	Count(ctx context.Context) (int, error)
}

var (
	_ Store = (*InMemory)(nil)
	_ Store = (*PostgresStore)(nil)
)
