package adapters

import (
	"context"

	"floodrelief/internal/admin/types"
	authModels "floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
)

// AuthAccounts is the part of the auth service the admin module uses.
type AuthAccounts interface {
	ListAccounts(ctx context.Context, session authModels.Session) ([]*authModels.Account, error)
	CountAccounts(ctx context.Context, session authModels.Session) (int, error)
	ToggleAdmin(ctx context.Context, session authModels.Session, accountID id.AccountID) (*authModels.Account, error)
}

// AccountAdapter adapts the auth service to admin's account directory.
type AccountAdapter struct {
	accounts AuthAccounts
}

// NewAccountAdapter creates a new adapter wrapping the auth service.
func NewAccountAdapter(accounts AuthAccounts) *AccountAdapter {
	return &AccountAdapter{accounts: accounts}
}

// List returns every account mapped to admin types.
func (a *AccountAdapter) List(ctx context.Context, session authModels.Session) ([]*types.AccountSummary, error) {
	accounts, err := a.accounts.ListAccounts(ctx, session)
	if err != nil {
		return nil, err
	}
	result := make([]*types.AccountSummary, len(accounts))
	for i, acct := range accounts {
		result[i] = mapAccount(acct)
	}
	return result, nil
}

func (a *AccountAdapter) Count(ctx context.Context, session authModels.Session) (int, error) {
	return a.accounts.CountAccounts(ctx, session)
}

// ToggleAdmin flips the admin flag and returns the updated account.
func (a *AccountAdapter) ToggleAdmin(ctx context.Context, session authModels.Session, accountID id.AccountID) (*types.AccountSummary, error) {
	acct, err := a.accounts.ToggleAdmin(ctx, session, accountID)
	if err != nil {
		return nil, err
	}
	return mapAccount(acct), nil
}

func mapAccount(acct *authModels.Account) *types.AccountSummary {
	return &types.AccountSummary{
		ID:         acct.ID,
		Login:      acct.Login,
		Email:      acct.Email,
		Contact:    acct.Contact,
		NationalID: acct.NationalID,
		IsAdmin:    acct.IsAdmin,
		CreatedAt:  acct.CreatedAt,
	}
}
