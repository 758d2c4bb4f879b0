// Package types holds the admin views of accounts and records, decoupled from
// the auth and records models.
package types

import (
	"time"

	id "floodrelief/pkg/domain"
)

// AccountSummary is an account as the admin screen shows it. It never carries
// credential material.
type AccountSummary struct {
	ID         id.AccountID
	Login      string
	Email      string
	Contact    string
	NationalID id.NationalID
	IsAdmin    bool
	CreatedAt  time.Time
}

// RecordCounts is the number of stored records per table.
type RecordCounts struct {
	Donations    int
	Items        int
	HelpRequests int
	Pets         int
}

// Stats is the dashboard summary.
type Stats struct {
	Accounts int
	Records  RecordCounts
}
