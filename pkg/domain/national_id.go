package domain

import (
	"strings"

	dErrors "floodrelief/pkg/domain-errors"
)

// NationalIDLength is the digit count of a canonical CPF.
const NationalIDLength = 11

// AdminNationalID is the reserved CPF that marks an account as administrator
// at registration time.
const AdminNationalID NationalID = "00000000001"

// NationalID is a CPF in canonical form: exactly eleven ASCII digits.
type NationalID string

// ParseNationalID strips every non-digit character (dots, dashes, spaces) and
// requires exactly eleven digits to remain.
func ParseNationalID(raw string) (NationalID, error) {
	if len(raw) > 32 {
		return "", dErrors.New(dErrors.CodeInvalidNationalID, "national_id must have 11 digits")
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != NationalIDLength {
		return "", dErrors.New(dErrors.CodeInvalidNationalID, "national_id must have 11 digits")
	}
	return NationalID(digits), nil
}

func (n NationalID) String() string { return string(n) }

// IsZero reports whether no national id is set.
func (n NationalID) IsZero() bool { return n == "" }

// IsAdmin reports whether n is the reserved administrator CPF.
func (n NationalID) IsAdmin() bool { return n == AdminNationalID }

// Masked keeps only the last four digits, for logs.
func (n NationalID) Masked() string {
	if len(n) != NationalIDLength {
		return ""
	}
	return "*******" + string(n[7:])
}
