package service

import (
	"context"
	"errors"

	"floodrelief/internal/auth/models"
	"floodrelief/internal/auth/store/account"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/sentinel"
)

func requireAdmin(session models.Session) error {
	if !session.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "login required")
	}
	if !session.IsAdmin {
		return dErrors.New(dErrors.CodePermissionDenied, "administrator access required")
	}
	return nil
}

// ListAccounts returns every account ordered by id. Admin only.
func (s *Service) ListAccounts(ctx context.Context, session models.Session) ([]*models.Account, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to list accounts")
	}
	return accounts, nil
}

// CountAccounts returns the number of registered accounts. Admin only.
func (s *Service) CountAccounts(ctx context.Context, session models.Session) (int, error) {
	if err := requireAdmin(session); err != nil {
		return 0, err
	}
	n, err := s.accounts.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to count accounts")
	}
	return n, nil
}

// ToggleAdmin flips the admin flag of accountID. An admin cannot revoke their
// own flag. Sessions of the target account are ended so the change applies
// on their next login.
func (s *Service) ToggleAdmin(ctx context.Context, session models.Session, accountID id.AccountID) (updated *models.Account, err error) {
	ctx, span := s.startSpan(ctx, "ToggleAdmin")
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if accountID == session.AccountID {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "administrators cannot remove their own admin flag")
	}

	err = s.accounts.RunInTx(ctx, func(store account.Store) error {
		target, err := store.FindByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "account not found")
			}
			return dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to load account")
		}
		target.IsAdmin = !target.IsAdmin
		if err := store.SetAdmin(ctx, accountID, target.IsAdmin); err != nil {
			return dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to update account")
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.DeleteByAccount(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "failed to end sessions after admin change",
			"error", err,
			"account_id", accountID.String(),
		)
	}

	event := audit.EventAdminRevoked
	if updated.IsAdmin {
		event = audit.EventAdminGranted
	}
	s.logAudit(ctx, event,
		audit.Event{AccountID: accountID, ActorID: session.AccountID, Subject: "account:" + accountID.String()},
		"actor_id", session.AccountID.String(),
	)
	return updated, nil
}

// BootstrapAdmin describes the administrator created on first start.
type BootstrapAdmin struct {
	Login    string
	Password string
	Email    string
	Contact  string
}

// EnsureBootstrapAdmin registers the administrator account through the normal
// registration flow when no account holds the reserved national id. It is a
// no-op when one already does.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, admin BootstrapAdmin) (*models.Account, error) {
	existing, err := s.accounts.FindByNationalID(ctx, id.AdminNationalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to look up admin account")
	}
	acct, err := s.Register(ctx, models.RegistrationRequest{
		Login:      admin.Login,
		Email:      admin.Email,
		Contact:    admin.Contact,
		Secret:     admin.Password,
		NationalID: id.AdminNationalID.String(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bootstrap administrator created", "login", acct.Login, "account_id", acct.ID.String())
	return acct, nil
}
