// Package store persists owned records in memory or PostgreSQL.
package store

import (
	"context"
	"time"

	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

// ErrNotFound is returned for unknown or deleted records.
var ErrNotFound = sentinel.ErrNotFound

// Store is the record persistence contract shared by both backends and by the
// transaction-scoped view handed to RunInTx callbacks. Create methods assign
// ids (items included); Update methods replace the stored record and, for
// donations, its whole item set. A unique national id collision surfaces as
// sentinel.Conflict("national_id").
type Store interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	UpdateDonation(ctx context.Context, d *models.Donation) error
	FindDonation(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	ListDonations(ctx context.Context) ([]*models.Donation, error)
	DeleteDonation(ctx context.Context, donationID id.DonationID) error
	FindItem(ctx context.Context, itemID id.ItemID) (*models.Item, error)

	CreateHelpRequest(ctx context.Context, h *models.HelpRequest) error
	UpdateHelpRequest(ctx context.Context, h *models.HelpRequest) error
	FindHelpRequest(ctx context.Context, requestID id.HelpRequestID) (*models.HelpRequest, error)
	ListHelpRequests(ctx context.Context) ([]*models.HelpRequest, error)
	DeleteHelpRequest(ctx context.Context, requestID id.HelpRequestID) error

	CreatePet(ctx context.Context, p *models.PetListing) error
	UpdatePet(ctx context.Context, p *models.PetListing) error
	FindPet(ctx context.Context, petID id.PetID) (*models.PetListing, error)
	ListPets(ctx context.Context) ([]*models.PetListing, error)
	DeletePet(ctx context.Context, petID id.PetID) error

	// IsNationalIDTaken reports whether a record of kind already uses
	// nationalID. Donations and help requests are separate namespaces; pets
	// never collide.
	IsNationalIDTaken(ctx context.Context, nationalID id.NationalID, kind models.Kind) (bool, error)

	// SearchItems matches query case-insensitively against item name and
	// description and filters by the donation's availability relative to
	// today. Results are ordered by lower-cased item name, then item id.
	SearchItems(ctx context.Context, query string, availability models.Availability, today time.Time) ([]models.ItemMatch, error)

	Counts(ctx context.Context) (models.Counts, error)
}

// TxStore is a Store with a transaction boundary.
type TxStore interface {
	Store
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

var (
	_ TxStore = (*InMemory)(nil)
	_ TxStore = (*PostgresStore)(nil)
)
