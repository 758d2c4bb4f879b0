// Package policy decides who may change an owned record.
package policy

import (
	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
)

// CanMutate reports whether session may update or delete record.
// This is pure domain logic - no I/O, no side effects.
// Rule priority (first match wins):
//  1. Admin sessions may mutate anything
//  2. Matching owner national id
//  3. Matching owner account id
//  4. Otherwise denied; anonymous sessions and records without an owning
//     account always land here
func CanMutate(record models.Record, session authmodels.Session) bool {
	if !session.IsAuthenticated() {
		return false
	}

	// Rule 1: admin
	if session.IsAdmin {
		return true
	}

	owner := record.Owner()

	// Rule 2: national id linkage
	if !owner.NationalID.IsZero() && owner.NationalID == session.NationalID {
		return true
	}

	// Rule 3: account linkage
	if owner.AccountID != nil && *owner.AccountID == session.AccountID {
		return true
	}

	return false
}

// Authorize is CanMutate as an error naming the record.
func Authorize(record models.Record, session authmodels.Session) error {
	if CanMutate(record, session) {
		return nil
	}
	return dErrors.Newf(dErrors.CodePermissionDenied, "you may not change %s", models.Describe(record))
}

// CanCreateFor reports whether session may file a record under nationalID.
// Non-admins may only file for their own national id. Anonymous callers are
// decided by configuration, not here.
func CanCreateFor(session authmodels.Session, nationalID id.NationalID) bool {
	if !session.IsAuthenticated() {
		return false
	}
	return session.IsAdmin || session.NationalID == nationalID
}

// AuthorizeCreate is CanCreateFor as an error.
func AuthorizeCreate(session authmodels.Session, kind models.Kind, nationalID id.NationalID) error {
	if CanCreateFor(session, nationalID) {
		return nil
	}
	return dErrors.Newf(dErrors.CodePermissionDenied,
		"national id %s does not match your account; only administrators may file a %s for someone else",
		nationalID.Masked(), kind)
}
