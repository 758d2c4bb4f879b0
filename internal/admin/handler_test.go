package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"floodrelief/internal/admin/adapters"
	authmodels "floodrelief/internal/auth/models"
	authservice "floodrelief/internal/auth/service"
	"floodrelief/internal/auth/store/account"
	"floodrelief/internal/auth/store/session"
	jwttoken "floodrelief/internal/jwt_token"
	recordservice "floodrelief/internal/records/service"
	"floodrelief/internal/records/store"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/audit/publisher"
	auditmemory "floodrelief/pkg/platform/audit/store/memory"
	authmw "floodrelief/pkg/platform/middleware/auth"
	"floodrelief/pkg/testutil"
)

// HandlerSuite drives the admin routes through the real auth and records
// services.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	bare   http.Handler
	auth   *authservice.Service

	adminToken string
	adminID    int64
	mariaToken string
	mariaID    int64
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tokens := jwttoken.NewJWTService("test-key", "floodrelief-test")
	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	s.auth = authservice.New(account.NewInMemory(), session.NewInMemory(), tokens,
		authservice.WithLogger(logger),
		authservice.WithAuditPublisher(pub),
	)
	records := recordservice.New(store.NewInMemory(), recordservice.WithLogger(logger))

	svc := NewService(
		adapters.NewAccountAdapter(s.auth),
		adapters.NewRecordsAdapter(records),
		WithLogger(logger),
		WithAuditLog(pub),
	)

	r := chi.NewRouter()
	r.Use(authmw.Authenticate(jwttoken.NewJWTServiceAdapter(tokens), s.auth, logger))
	NewHandler(svc, logger).Register(r)
	s.router = r

	bare := chi.NewRouter()
	NewHandler(svc, logger).Register(bare)
	s.bare = bare

	s.adminID, s.adminToken = s.register("admin", "000.000.000-01")
	s.mariaID, s.mariaToken = s.register("maria", "123.456.789-01")
}

func (s *HandlerSuite) register(login, nationalID string) (int64, string) {
	ctx := s.T().Context()
	acct, err := s.auth.Register(ctx, authmodels.RegistrationRequest{
		Login:      login,
		Email:      login + "@example.com",
		Contact:    "51999990000",
		Secret:     "senha123",
		NationalID: nationalID,
	})
	s.Require().NoError(err)
	res, err := s.auth.Login(ctx, login, "senha123")
	s.Require().NoError(err)
	return int64(acct.ID), res.Token
}

func (s *HandlerSuite) do(method, path, token string) *httptest.ResponseRecorder {
	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, nil), token)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestAccessControl() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/accounts", "").Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/accounts", s.mariaToken).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/stats", s.mariaToken).Code)
}

func (s *HandlerSuite) TestInjectedSessions() {
	s.Run("non-admin session", func() {
		req := testutil.WithSession(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/stats", nil),
			authmodels.Session{ID: id.NewSessionID(), AccountID: id.AccountID(s.mariaID)})
		rec := testutil.DoRequest(s.bare, req)
		testutil.AssertStatusAndError(s.T(), rec, http.StatusForbidden, "permission_denied")
	})

	s.Run("admin session", func() {
		req := testutil.WithSession(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/stats", nil),
			authmodels.Session{ID: id.NewSessionID(), AccountID: id.AccountID(s.adminID), IsAdmin: true})
		rec := testutil.DoRequest(s.bare, req)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *HandlerSuite) TestListAccounts() {
	rec := s.do(http.MethodGet, "/admin/accounts", s.adminToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "secret_hash")

	var resp AccountsListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().Equal(2, resp.Total)
	s.True(resp.Accounts[0].IsAdmin)
	s.Equal("maria", resp.Accounts[1].Login)
}

func (s *HandlerSuite) TestToggleAdmin() {
	path := fmt.Sprintf("/admin/accounts/%d/toggle-admin", s.mariaID)

	rec := s.do(http.MethodPost, path, s.adminToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp AccountResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.True(resp.IsAdmin)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/stats", s.mariaToken).Code,
		"promotion ends the promoted account's sessions")

	s.Equal(http.StatusForbidden, s.do(http.MethodPost, fmt.Sprintf("/admin/accounts/%d/toggle-admin", s.adminID), s.adminToken).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/admin/accounts/999/toggle-admin", s.adminToken).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/admin/accounts/x/toggle-admin", s.adminToken).Code)
}

func (s *HandlerSuite) TestStats() {
	rec := s.do(http.MethodGet, "/admin/stats", s.adminToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp StatsResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal(StatsResponse{Accounts: 2}, resp)
}

func (s *HandlerSuite) TestAudit() {
	rec := s.do(http.MethodGet, "/admin/audit?limit=3", s.adminToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp AuditListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().Equal(3, resp.Total)
	s.Equal("login_succeeded", resp.Events[0].Action)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/admin/audit?limit=0", s.adminToken).Code)
}
