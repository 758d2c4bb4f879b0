package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"floodrelief/internal/auth/models"
	"floodrelief/internal/auth/password"
	"floodrelief/internal/auth/store/account"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/email"
	"floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/sentinel"
	"floodrelief/pkg/requestcontext"
)

// MinSecretLength is the shortest accepted secret.
const MinSecretLength = 6

// Register creates an account. Validation runs first, then the uniqueness
// checks and the insert share one transaction so nothing partial persists.
func (s *Service) Register(ctx context.Context, req models.RegistrationRequest) (acct *models.Account, err error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer func() { endSpan(span, err) }()

	acct, err = s.prepareAccount(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.accounts.RunInTx(ctx, func(store account.Store) error {
		if _, err := store.FindByLogin(ctx, acct.Login); err == nil {
			return dErrors.New(dErrors.CodeDuplicateIdentity, "login is already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to check login")
		}
		if _, err := store.FindByNationalID(ctx, acct.NationalID); err == nil {
			return dErrors.New(dErrors.CodeDuplicateNationalID, "national id is already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to check national id")
		}
		if err := store.Create(ctx, acct); err != nil {
			return translateCreateError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventAccountRegistered,
		audit.Event{AccountID: acct.ID, Subject: "account:" + acct.ID.String()},
		"login", acct.Login,
		"national_id", acct.NationalID.Masked(),
		"is_admin", acct.IsAdmin,
	)
	if s.metrics != nil {
		s.metrics.IncrementAccountsRegistered()
	}
	return acct, nil
}

// prepareAccount validates the request and derives the credential hash. The
// KDF runs here so the transaction is not held open while hashing.
func (s *Service) prepareAccount(ctx context.Context, req models.RegistrationRequest) (*models.Account, error) {
	login := strings.TrimSpace(req.Login)
	contact := strings.TrimSpace(req.Contact)
	for _, f := range []struct{ name, value string }{
		{"login", login},
		{"email", req.Email},
		{"contact", contact},
		{"secret", req.Secret},
		{"national_id", req.NationalID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s is required", f.name)
		}
	}
	if len(req.Secret) < MinSecretLength {
		return nil, dErrors.Newf(dErrors.CodeWeakSecret, "secret must be at least %d characters", MinSecretLength)
	}
	nationalID, err := id.ParseNationalID(req.NationalID)
	if err != nil {
		return nil, err
	}
	normalizedEmail, err := email.Normalize(req.Email)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"login", login, models.MaxLoginLength},
		{"email", normalizedEmail, models.MaxEmailLength},
		{"contact", contact, models.MaxContactLength},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s must be at most %d characters", f.name, f.max)
		}
	}

	salt, err := password.GenerateSalt()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to generate salt")
	}
	return &models.Account{
		Login:      login,
		Email:      normalizedEmail,
		Contact:    contact,
		SecretHash: s.hasher.HashSecret(req.Secret, salt),
		Salt:       salt,
		NationalID: nationalID,
		IsAdmin:    nationalID.IsAdmin(),
		CreatedAt:  requestcontext.Now(ctx),
	}, nil
}

// translateCreateError maps a storage-level unique violation onto the same
// duplicate error the pre-insert checks report.
func translateCreateError(err error) error {
	if errors.Is(err, sentinel.ErrConflict) {
		if sentinel.ConflictField(err) == "login" {
			return dErrors.New(dErrors.CodeDuplicateIdentity, "login is already registered")
		}
		return dErrors.New(dErrors.CodeDuplicateNationalID, "national id is already registered")
	}
	return dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to create account")
}
