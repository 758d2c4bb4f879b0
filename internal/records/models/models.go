// Package models defines the owned records: donations with their items, help
// requests and pet listings.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
)

// Kind names one owned record type.
type Kind string

const (
	KindDonation    Kind = "donation"
	KindHelpRequest Kind = "help_request"
	KindPet         Kind = "pet"
)

// ParseKind accepts the three record kinds.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(raw)); k {
	case KindDonation, KindHelpRequest, KindPet:
		return k, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown record kind %q", raw)
}

// Widths of the record columns, in characters. Names cover people, items and
// pets; MaxPhoneLength covers phone, whatsapp and the pet contact.
const (
	MaxNameLength     = 100
	MaxPhoneLength    = 20
	MaxStreetLength   = 200
	MaxNumberLength   = 10
	MaxDistrictLength = 100
	MaxCityLength     = 100
	MaxSpeciesLength  = 50
	MaxBreedLength    = 50
	MaxLocationLength = 200
)

// Owner is the linkage the ownership policy reads. Pet listings carry no
// national id. Anonymous submissions carry neither field, so only
// administrators may change them.
type Owner struct {
	AccountID  *id.AccountID
	NationalID id.NationalID
}

// ownedBy links nationalID only when an account owns the record.
func ownedBy(accountID *id.AccountID, nationalID id.NationalID) Owner {
	if accountID == nil {
		return Owner{}
	}
	return Owner{AccountID: accountID, NationalID: nationalID}
}

// Record is the closed set of owned records. Only this package implements it.
type Record interface {
	Kind() Kind
	Key() int64
	Owner() Owner
	isRecord()
}

var (
	_ Record = (*Donation)(nil)
	_ Record = (*HelpRequest)(nil)
	_ Record = (*PetListing)(nil)
)

// Ref addresses one record of any kind.
type Ref struct {
	Kind Kind
	ID   int64
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}

// Describe names a record for user-facing messages.
func Describe(r Record) string {
	return fmt.Sprintf("%s %d", strings.ReplaceAll(string(r.Kind()), "_", " "), r.Key())
}

// Address is a Brazilian postal address.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	PostalCode string `json:"postal_code"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Donation is one donor's offer and the items it contains. At most one
// donation exists per national id.
type Donation struct {
	ID             id.DonationID
	OwnerAccountID *id.AccountID
	NationalID     id.NationalID
	Name           string
	Phone          string
	WhatsApp       string
	Address        Address
	CanDeliver     bool
	AvailableUntil time.Time
	CreatedAt      time.Time
	Items          []Item
}

func (d *Donation) Kind() Kind   { return KindDonation }
func (d *Donation) Key() int64   { return int64(d.ID) }
func (d *Donation) Owner() Owner { return ownedBy(d.OwnerAccountID, d.NationalID) }
func (d *Donation) isRecord()    {}

// AvailableOn reports whether the donation can still be collected on day.
// Only the calendar date of AvailableUntil counts.
func (d *Donation) AvailableOn(day time.Time) bool {
	return !dateOf(d.AvailableUntil).Before(dateOf(day))
}

// Clone returns a deep copy, items and photos included.
func (d *Donation) Clone() *Donation {
	out := *d
	out.OwnerAccountID = cloneAccountID(d.OwnerAccountID)
	out.Items = make([]Item, len(d.Items))
	for i, item := range d.Items {
		out.Items[i] = item.Clone()
	}
	return &out
}

// Item is one donated good. Items live and die with their donation.
type Item struct {
	ID          id.ItemID
	DonationID  id.DonationID
	Name        string
	Quantity    int
	Description string
	Photo       []byte
	CreatedAt   time.Time
}

func (i Item) Clone() Item {
	if i.Photo != nil {
		i.Photo = append([]byte(nil), i.Photo...)
	}
	return i
}

// HelpRequest is one household asking for help. At most one request exists
// per national id.
type HelpRequest struct {
	ID             id.HelpRequestID
	OwnerAccountID *id.AccountID
	NationalID     id.NationalID
	Name           string
	Phone          string
	WhatsApp       string
	Address        Address
	HouseholdSize  int
	CanPickUp      bool
	Notes          string
	CreatedAt      time.Time
}

func (h *HelpRequest) Kind() Kind   { return KindHelpRequest }
func (h *HelpRequest) Key() int64   { return int64(h.ID) }
func (h *HelpRequest) Owner() Owner { return ownedBy(h.OwnerAccountID, h.NationalID) }
func (h *HelpRequest) isRecord()    {}

func (h *HelpRequest) Clone() *HelpRequest {
	out := *h
	out.OwnerAccountID = cloneAccountID(h.OwnerAccountID)
	return &out
}

// PetStatus is the situation of a listed pet.
type PetStatus string

const (
	PetLost     PetStatus = "lost"
	PetFound    PetStatus = "found"
	PetAdoption PetStatus = "adoption"
)

func ParsePetStatus(raw string) (PetStatus, error) {
	switch s := PetStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case PetLost, PetFound, PetAdoption:
		return s, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of lost, found, adoption")
}

// PetListing is a lost, found or adoptable pet. Listings are linked to an
// account only; they carry no national id.
type PetListing struct {
	ID             id.PetID
	OwnerAccountID *id.AccountID
	Name           string
	Species        string
	Breed          string
	Description    string
	Status         PetStatus
	Location       string
	Contact        string
	Photo          []byte
	CreatedAt      time.Time
}

func (p *PetListing) Kind() Kind   { return KindPet }
func (p *PetListing) Key() int64   { return int64(p.ID) }
func (p *PetListing) Owner() Owner { return Owner{AccountID: p.OwnerAccountID} }
func (p *PetListing) isRecord()    {}

func (p *PetListing) Clone() *PetListing {
	out := *p
	out.OwnerAccountID = cloneAccountID(p.OwnerAccountID)
	if p.Photo != nil {
		out.Photo = append([]byte(nil), p.Photo...)
	}
	return &out
}

// Availability filters item search by the donation's availability date.
type Availability string

const (
	AvailabilityAll       Availability = "all"
	AvailabilityAvailable Availability = "available"
	AvailabilityExpired   Availability = "expired"
)

// ParseAvailability treats an empty value as all.
func ParseAvailability(raw string) (Availability, error) {
	switch a := Availability(strings.ToLower(strings.TrimSpace(raw))); a {
	case "":
		return AvailabilityAll, nil
	case AvailabilityAll, AvailabilityAvailable, AvailabilityExpired:
		return a, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "availability must be one of all, available, expired")
}

// ItemMatch is one search hit: the item and the donation offering it. The
// donation's Items slice is left empty.
type ItemMatch struct {
	Item     Item
	Donation Donation
}

// Counts is the number of stored records per table.
type Counts struct {
	Donations    int
	Items        int
	HelpRequests int
	Pets         int
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cloneAccountID(a *id.AccountID) *id.AccountID {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}
