//go:build integration

package account_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"floodrelief/internal/auth/models"
	"floodrelief/internal/auth/store/account"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
	"floodrelief/pkg/testutil/containers"
)

type PostgresAccountStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.PostgresStore
}

func TestPostgresAccountStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAccountStoreSuite))
}

func (s *PostgresAccountStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = account.NewPostgres(s.postgres.DB)
}

func (s *PostgresAccountStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func newAccount(login string, nationalID id.NationalID) *models.Account {
	return &models.Account{
		Login:      login,
		Email:      login + "@example.com",
		Contact:    "51999990000",
		SecretHash: "hash",
		Salt:       "salt",
		NationalID: nationalID,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresAccountStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	a := newAccount("maria", "12345678901")
	s.Require().NoError(s.store.Create(ctx, a))
	s.NotZero(a.ID)

	found, err := s.store.FindByNationalID(ctx, "12345678901")
	s.Require().NoError(err)
	s.Equal(a.Login, found.Login)
	s.Equal(a.CreatedAt, found.CreatedAt.UTC())

	s.Require().NoError(s.store.SetAdmin(ctx, a.ID, true))
	found, err = s.store.FindByLogin(ctx, "maria")
	s.Require().NoError(err)
	s.True(found.IsAdmin)

	s.Require().ErrorIs(s.store.SetAdmin(ctx, 999, true), sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, 999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresAccountStoreSuite) TestUniqueConstraints() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newAccount("maria", "12345678901")))

	err := s.store.Create(ctx, newAccount("maria", "11111111111"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
	s.Equal("login", sentinel.ConflictField(err))

	err = s.store.Create(ctx, newAccount("joao", "12345678901"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
	s.Equal("national_id", sentinel.ConflictField(err))

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

// TestConcurrentRegistration races registrations for one national id; the
// unique index admits exactly one.
func (s *PostgresAccountStoreSuite) TestConcurrentRegistration() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newAccount(fmt.Sprintf("user%d", i), "12345678901"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresAccountStoreSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.store.RunInTx(ctx, func(tx account.Store) error {
		if err := tx.Create(ctx, newAccount("maria", "12345678901")); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
