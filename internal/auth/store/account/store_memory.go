package account

import (
	"context"
	"sort"
	"sync"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

// ErrNotFound is returned when an account does not exist.
var ErrNotFound = sentinel.ErrNotFound

// InMemory is a thread-safe account store keyed by sequence id with unique
// indexes on login and national id.
type InMemory struct {
	mu           sync.RWMutex
	txMu         sync.Mutex
	nextID       id.AccountID
	byID         map[id.AccountID]*models.Account
	byLogin      map[string]id.AccountID
	byNationalID map[id.NationalID]id.AccountID
}

// NewInMemory constructs an empty account store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:         make(map[id.AccountID]*models.Account),
		byLogin:      make(map[string]id.AccountID),
		byNationalID: make(map[id.NationalID]id.AccountID),
	}
}

// Create inserts the account and assigns its id.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byLogin[account.Login]; taken {
		return sentinel.Conflict("login")
	}
	if _, taken := s.byNationalID[account.NationalID]; taken {
		return sentinel.Conflict("national_id")
	}
	s.nextID++
	account.ID = s.nextID
	stored := *account
	s.byID[stored.ID] = &stored
	s.byLogin[stored.Login] = stored.ID
	s.byNationalID[stored.NationalID] = stored.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byID[accountID]; ok {
		out := *a
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByLogin(_ context.Context, login string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if accountID, ok := s.byLogin[login]; ok {
		out := *s.byID[accountID]
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByNationalID(_ context.Context, nationalID id.NationalID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if accountID, ok := s.byNationalID[nationalID]; ok {
		out := *s.byID[accountID]
		return &out, nil
	}
	return nil, ErrNotFound
}

// List returns all accounts ordered by id.
func (s *InMemory) List(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(s.byID))
	for _, a := range s.byID {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) SetAdmin(_ context.Context, accountID id.AccountID, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return ErrNotFound
	}
	a.IsAdmin = isAdmin
	return nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// RunInTx serializes fn against other transactions. Account writes are single
// inserts or flag flips, so the store's own unique indexes give the atomicity.
func (s *InMemory) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}
