package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

type InMemoryAccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryAccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAccountStoreSuite))
}

func newAccount(login string, nationalID id.NationalID) *models.Account {
	return &models.Account{
		Login:      login,
		Email:      login + "@example.com",
		Contact:    "51999990000",
		SecretHash: "hash",
		Salt:       "salt",
		NationalID: nationalID,
		CreatedAt:  time.Now(),
	}
}

func (s *InMemoryAccountStoreSuite) TestCreateAndLookups() {
	s.Run("assigns sequential ids", func() {
		first := newAccount("maria", "12345678901")
		second := newAccount("joao", "98765432100")
		s.Require().NoError(s.store.Create(s.ctx, first))
		s.Require().NoError(s.store.Create(s.ctx, second))
		s.Equal(id.AccountID(1), first.ID)
		s.Equal(id.AccountID(2), second.ID)
	})

	s.Run("finds by login, id and national id", func() {
		byLogin, err := s.store.FindByLogin(s.ctx, "maria")
		s.Require().NoError(err)
		byID, err := s.store.FindByID(s.ctx, byLogin.ID)
		s.Require().NoError(err)
		byNID, err := s.store.FindByNationalID(s.ctx, "12345678901")
		s.Require().NoError(err)
		s.Equal(byLogin, byID)
		s.Equal(byLogin, byNID)
	})

	s.Run("returns ErrNotFound for unknown login", func() {
		_, err := s.store.FindByLogin(s.ctx, "nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned accounts are copies", func() {
		a, err := s.store.FindByLogin(s.ctx, "maria")
		s.Require().NoError(err)
		a.IsAdmin = true
		again, err := s.store.FindByLogin(s.ctx, "maria")
		s.Require().NoError(err)
		s.False(again.IsAdmin)
	})
}

func (s *InMemoryAccountStoreSuite) TestUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, newAccount("maria", "12345678901")))

	s.Run("rejects duplicate login", func() {
		err := s.store.Create(s.ctx, newAccount("maria", "11111111111"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		s.Equal("login", sentinel.ConflictField(err))
	})

	s.Run("rejects duplicate national id", func() {
		err := s.store.Create(s.ctx, newAccount("other", "12345678901"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		s.Equal("national_id", sentinel.ConflictField(err))
	})

	s.Run("failed inserts leave the store unchanged", func() {
		n, err := s.store.Count(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, n)
	})
}

func (s *InMemoryAccountStoreSuite) TestSetAdmin() {
	a := newAccount("maria", "12345678901")
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.Require().NoError(s.store.SetAdmin(s.ctx, a.ID, true))
	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(found.IsAdmin)

	s.Require().ErrorIs(s.store.SetAdmin(s.ctx, 999, true), sentinel.ErrNotFound)
}

func (s *InMemoryAccountStoreSuite) TestRunInTx() {
	s.Run("propagates callback errors", func() {
		boom := errors.New("boom")
		err := s.store.RunInTx(s.ctx, func(Store) error { return boom })
		s.Require().ErrorIs(err, boom)
	})

	s.Run("rejects cancelled contexts", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		err := s.store.RunInTx(ctx, func(Store) error { return nil })
		s.Require().Error(err)
	})
}
