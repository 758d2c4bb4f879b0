package store

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

// InMemory keeps records for the lifetime of the process. Transactions run
// against a private copy of the tables that replaces the live copy only when
// the callback succeeds, so a failed transaction leaves no trace. Stored
// records are never modified in place; every write stores a fresh clone.
type InMemory struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *tables
}

// NewInMemory constructs an empty record store.
func NewInMemory() *InMemory {
	return &InMemory{st: newTables()}
}

// RunInTx serializes fn against other writers and commits its changes only
// when it returns nil.
func (s *InMemory) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(work); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func (s *InMemory) write(ctx context.Context, fn func(store Store) error) error {
	return s.RunInTx(ctx, fn)
}

func (s *InMemory) read() *tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

func (s *InMemory) CreateDonation(ctx context.Context, d *models.Donation) error {
	return s.write(ctx, func(tx Store) error { return tx.CreateDonation(ctx, d) })
}

func (s *InMemory) UpdateDonation(ctx context.Context, d *models.Donation) error {
	return s.write(ctx, func(tx Store) error { return tx.UpdateDonation(ctx, d) })
}

func (s *InMemory) DeleteDonation(ctx context.Context, donationID id.DonationID) error {
	return s.write(ctx, func(tx Store) error { return tx.DeleteDonation(ctx, donationID) })
}

func (s *InMemory) CreateHelpRequest(ctx context.Context, h *models.HelpRequest) error {
	return s.write(ctx, func(tx Store) error { return tx.CreateHelpRequest(ctx, h) })
}

func (s *InMemory) UpdateHelpRequest(ctx context.Context, h *models.HelpRequest) error {
	return s.write(ctx, func(tx Store) error { return tx.UpdateHelpRequest(ctx, h) })
}

func (s *InMemory) DeleteHelpRequest(ctx context.Context, requestID id.HelpRequestID) error {
	return s.write(ctx, func(tx Store) error { return tx.DeleteHelpRequest(ctx, requestID) })
}

func (s *InMemory) CreatePet(ctx context.Context, p *models.PetListing) error {
	return s.write(ctx, func(tx Store) error { return tx.CreatePet(ctx, p) })
}

func (s *InMemory) UpdatePet(ctx context.Context, p *models.PetListing) error {
	return s.write(ctx, func(tx Store) error { return tx.UpdatePet(ctx, p) })
}

func (s *InMemory) DeletePet(ctx context.Context, petID id.PetID) error {
	return s.write(ctx, func(tx Store) error { return tx.DeletePet(ctx, petID) })
}

// The live tables are only ever swapped, never written, so readers may use
// the snapshot after releasing the lock.

func (s *InMemory) FindDonation(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	return s.read().FindDonation(ctx, donationID)
}

func (s *InMemory) ListDonations(ctx context.Context) ([]*models.Donation, error) {
	return s.read().ListDonations(ctx)
}

func (s *InMemory) FindItem(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	return s.read().FindItem(ctx, itemID)
}

func (s *InMemory) FindHelpRequest(ctx context.Context, requestID id.HelpRequestID) (*models.HelpRequest, error) {
	return s.read().FindHelpRequest(ctx, requestID)
}

func (s *InMemory) ListHelpRequests(ctx context.Context) ([]*models.HelpRequest, error) {
	return s.read().ListHelpRequests(ctx)
}

func (s *InMemory) FindPet(ctx context.Context, petID id.PetID) (*models.PetListing, error) {
	return s.read().FindPet(ctx, petID)
}

func (s *InMemory) ListPets(ctx context.Context) ([]*models.PetListing, error) {
	return s.read().ListPets(ctx)
}

func (s *InMemory) IsNationalIDTaken(ctx context.Context, nationalID id.NationalID, kind models.Kind) (bool, error) {
	return s.read().IsNationalIDTaken(ctx, nationalID, kind)
}

func (s *InMemory) SearchItems(ctx context.Context, query string, availability models.Availability, today time.Time) ([]models.ItemMatch, error) {
	return s.read().SearchItems(ctx, query, availability, today)
}

func (s *InMemory) Counts(ctx context.Context) (models.Counts, error) {
	return s.read().Counts(ctx)
}

// tables is one version of the in-memory database. A tables value handed to
// a transaction is owned by that transaction alone and needs no locking.
type tables struct {
	nextDonation int64
	nextItem     int64
	nextHelp     int64
	nextPet      int64

	donations  map[id.DonationID]*models.Donation
	itemOwner  map[id.ItemID]id.DonationID
	donationBy map[id.NationalID]id.DonationID
	helps      map[id.HelpRequestID]*models.HelpRequest
	helpBy     map[id.NationalID]id.HelpRequestID
	pets       map[id.PetID]*models.PetListing
}

func newTables() *tables {
	return &tables{
		donations:  make(map[id.DonationID]*models.Donation),
		itemOwner:  make(map[id.ItemID]id.DonationID),
		donationBy: make(map[id.NationalID]id.DonationID),
		helps:      make(map[id.HelpRequestID]*models.HelpRequest),
		helpBy:     make(map[id.NationalID]id.HelpRequestID),
		pets:       make(map[id.PetID]*models.PetListing),
	}
}

// clone copies the indexes; record values are shared because they are
// immutable once stored.
func (t *tables) clone() *tables {
	out := *t
	out.donations = maps.Clone(t.donations)
	out.itemOwner = maps.Clone(t.itemOwner)
	out.donationBy = maps.Clone(t.donationBy)
	out.helps = maps.Clone(t.helps)
	out.helpBy = maps.Clone(t.helpBy)
	out.pets = maps.Clone(t.pets)
	return &out
}

func (t *tables) assignItems(d *models.Donation) {
	for i := range d.Items {
		t.nextItem++
		d.Items[i].ID = id.ItemID(t.nextItem)
		d.Items[i].DonationID = d.ID
		if d.Items[i].CreatedAt.IsZero() {
			d.Items[i].CreatedAt = d.CreatedAt
		}
		t.itemOwner[d.Items[i].ID] = d.ID
	}
}

func (t *tables) CreateDonation(_ context.Context, d *models.Donation) error {
	if _, taken := t.donationBy[d.NationalID]; taken {
		return sentinel.Conflict("national_id")
	}
	t.nextDonation++
	d.ID = id.DonationID(t.nextDonation)
	t.assignItems(d)
	t.donations[d.ID] = d.Clone()
	t.donationBy[d.NationalID] = d.ID
	return nil
}

func (t *tables) UpdateDonation(_ context.Context, d *models.Donation) error {
	prev, ok := t.donations[d.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := t.donationBy[d.NationalID]; taken && owner != d.ID {
		return sentinel.Conflict("national_id")
	}
	for _, item := range prev.Items {
		delete(t.itemOwner, item.ID)
	}
	delete(t.donationBy, prev.NationalID)
	t.assignItems(d)
	t.donations[d.ID] = d.Clone()
	t.donationBy[d.NationalID] = d.ID
	return nil
}

func (t *tables) FindDonation(_ context.Context, donationID id.DonationID) (*models.Donation, error) {
	d, ok := t.donations[donationID]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (t *tables) ListDonations(_ context.Context) ([]*models.Donation, error) {
	out := make([]*models.Donation, 0, len(t.donations))
	for _, d := range t.donations {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteDonation drops the donation together with its items.
func (t *tables) DeleteDonation(_ context.Context, donationID id.DonationID) error {
	d, ok := t.donations[donationID]
	if !ok {
		return ErrNotFound
	}
	for _, item := range d.Items {
		delete(t.itemOwner, item.ID)
	}
	delete(t.donationBy, d.NationalID)
	delete(t.donations, donationID)
	return nil
}

func (t *tables) FindItem(_ context.Context, itemID id.ItemID) (*models.Item, error) {
	donationID, ok := t.itemOwner[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, item := range t.donations[donationID].Items {
		if item.ID == itemID {
			out := item.Clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (t *tables) CreateHelpRequest(_ context.Context, h *models.HelpRequest) error {
	if _, taken := t.helpBy[h.NationalID]; taken {
		return sentinel.Conflict("national_id")
	}
	t.nextHelp++
	h.ID = id.HelpRequestID(t.nextHelp)
	t.helps[h.ID] = h.Clone()
	t.helpBy[h.NationalID] = h.ID
	return nil
}

func (t *tables) UpdateHelpRequest(_ context.Context, h *models.HelpRequest) error {
	prev, ok := t.helps[h.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := t.helpBy[h.NationalID]; taken && owner != h.ID {
		return sentinel.Conflict("national_id")
	}
	delete(t.helpBy, prev.NationalID)
	t.helps[h.ID] = h.Clone()
	t.helpBy[h.NationalID] = h.ID
	return nil
}

func (t *tables) FindHelpRequest(_ context.Context, requestID id.HelpRequestID) (*models.HelpRequest, error) {
	h, ok := t.helps[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return h.Clone(), nil
}

func (t *tables) ListHelpRequests(_ context.Context) ([]*models.HelpRequest, error) {
	out := make([]*models.HelpRequest, 0, len(t.helps))
	for _, h := range t.helps {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeleteHelpRequest(_ context.Context, requestID id.HelpRequestID) error {
	h, ok := t.helps[requestID]
	if !ok {
		return ErrNotFound
	}
	delete(t.helpBy, h.NationalID)
	delete(t.helps, requestID)
	return nil
}

func (t *tables) CreatePet(_ context.Context, p *models.PetListing) error {
	t.nextPet++
	p.ID = id.PetID(t.nextPet)
	t.pets[p.ID] = p.Clone()
	return nil
}

func (t *tables) UpdatePet(_ context.Context, p *models.PetListing) error {
	if _, ok := t.pets[p.ID]; !ok {
		return ErrNotFound
	}
	t.pets[p.ID] = p.Clone()
	return nil
}

func (t *tables) FindPet(_ context.Context, petID id.PetID) (*models.PetListing, error) {
	p, ok := t.pets[petID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (t *tables) ListPets(_ context.Context) ([]*models.PetListing, error) {
	out := make([]*models.PetListing, 0, len(t.pets))
	for _, p := range t.pets {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) DeletePet(_ context.Context, petID id.PetID) error {
	if _, ok := t.pets[petID]; !ok {
		return ErrNotFound
	}
	delete(t.pets, petID)
	return nil
}

func (t *tables) IsNationalIDTaken(_ context.Context, nationalID id.NationalID, kind models.Kind) (bool, error) {
	switch kind {
	case models.KindDonation:
		_, taken := t.donationBy[nationalID]
		return taken, nil
	case models.KindHelpRequest:
		_, taken := t.helpBy[nationalID]
		return taken, nil
	}
	return false, nil
}

func (t *tables) SearchItems(_ context.Context, query string, availability models.Availability, today time.Time) ([]models.ItemMatch, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.ItemMatch, 0)
	for _, d := range t.donations {
		available := d.AvailableOn(today)
		if (availability == models.AvailabilityAvailable && !available) ||
			(availability == models.AvailabilityExpired && available) {
			continue
		}
		parent := *d
		parent.Items = nil
		parent.OwnerAccountID = d.Clone().OwnerAccountID
		for _, item := range d.Items {
			if needle != "" &&
				!strings.Contains(strings.ToLower(item.Name), needle) &&
				!strings.Contains(strings.ToLower(item.Description), needle) {
				continue
			}
			out = append(out, models.ItemMatch{Item: item.Clone(), Donation: parent})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Item.Name), strings.ToLower(out[j].Item.Name)
		if a != b {
			return a < b
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out, nil
}

func (t *tables) Counts(_ context.Context) (models.Counts, error) {
	return models.Counts{
		Donations:    len(t.donations),
		Items:        len(t.itemOwner),
		HelpRequests: len(t.helps),
		Pets:         len(t.pets),
	}, nil
}
