//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	audit "floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/audit/store/postgres"
	"floodrelief/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	ctx      context.Context
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx))
}

var at = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func (s *AuditStoreSuite) TestAppendAndList() {
	events := []audit.Event{
		{Timestamp: at, AccountID: 1, Action: string(audit.EventLoginSucceeded), RequestID: "r1", ClientIP: "10.0.0.1"},
		{Timestamp: at.Add(time.Second), AccountID: 2, Action: string(audit.EventPermissionDenied), Subject: "donation:7", Reason: "not owner"},
		{Timestamp: at.Add(2 * time.Second), AccountID: 1, ActorID: 3, Action: string(audit.EventRecordDeleted), Subject: "donation:4"},
		{Timestamp: at.Add(3 * time.Second), Action: string(audit.EventAuthFailed), Reason: "unknown login"},
	}
	for _, e := range events {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	s.Run("recent is newest first and limited", func() {
		recent, err := s.store.ListRecent(s.ctx, 2)
		s.Require().NoError(err)
		s.Require().Len(recent, 2)
		s.Equal(string(audit.EventAuthFailed), recent[0].Action)
		s.Equal(string(audit.EventRecordDeleted), recent[1].Action)
	})

	s.Run("category is derived from the action", func() {
		recent, err := s.store.ListRecent(s.ctx, 0)
		s.Require().NoError(err)
		s.Require().Len(recent, 4)
		s.Equal(audit.CategorySecurity, recent[0].Category)
		s.Equal(audit.CategoryCompliance, recent[1].Category)
		s.Equal(audit.CategoryOperations, recent[3].Category)
	})

	s.Run("by account keeps arrival order and round-trips fields", func() {
		mine, err := s.store.ListByAccount(s.ctx, 1)
		s.Require().NoError(err)
		s.Require().Len(mine, 2)
		s.Equal("r1", mine[0].RequestID)
		s.Equal("10.0.0.1", mine[0].ClientIP)
		s.True(at.Equal(mine[0].Timestamp))
		s.EqualValues(3, mine[1].ActorID)
		s.Equal("donation:4", mine[1].Subject)
	})

	s.Run("anonymous events have no account", func() {
		recent, err := s.store.ListRecent(s.ctx, 1)
		s.Require().NoError(err)
		s.Zero(recent[0].AccountID)
	})
}
