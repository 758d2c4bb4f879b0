package models

import (
	"time"

	id "floodrelief/pkg/domain"
)

// Widths of the accounts columns, in characters.
const (
	MaxLoginLength   = 50
	MaxEmailLength   = 100
	MaxContactLength = 20
)

// Account is one registered login in the credential store.
//
// Invariants:
//   - Login and NationalID are unique across accounts
//   - SecretHash is derived from the secret and Salt; the secret is never stored
//   - an account registered with the reserved national id starts as admin
//
// Accounts are never deleted; the only mutation is the admin flag.
type Account struct {
	ID         id.AccountID
	Login      string
	Email      string
	Contact    string
	SecretHash string
	Salt       string
	NationalID id.NationalID
	IsAdmin    bool
	CreatedAt  time.Time
}

// RegistrationRequest carries the raw registration input before validation.
type RegistrationRequest struct {
	Login      string
	Email      string
	Contact    string
	Secret     string
	NationalID string
}
