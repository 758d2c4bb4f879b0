package handler

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	authmodels "floodrelief/internal/auth/models"
	authservice "floodrelief/internal/auth/service"
	"floodrelief/internal/auth/store/account"
	"floodrelief/internal/auth/store/session"
	jwttoken "floodrelief/internal/jwt_token"
	"floodrelief/internal/records/models"
	"floodrelief/internal/records/service"
	"floodrelief/internal/records/store"
	authmw "floodrelief/pkg/platform/middleware/auth"
	"floodrelief/pkg/testutil"
)

// HandlerSuite drives the record routes through the real auth and records
// services backed by in-memory stores.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	store  *store.InMemory

	maria string
	joao  string
	admin string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tokens := jwttoken.NewJWTService("test-key", "floodrelief-test")
	auth := authservice.New(account.NewInMemory(), session.NewInMemory(), tokens, authservice.WithLogger(logger))
	s.store = store.NewInMemory()
	records := service.New(s.store, service.WithLogger(logger))

	r := chi.NewRouter()
	r.Use(authmw.Authenticate(jwttoken.NewJWTServiceAdapter(tokens), auth, logger))
	New(records, logger).Register(r)
	s.router = r

	s.maria = s.register(auth, "maria", "123.456.789-01")
	s.joao = s.register(auth, "joao", "987.654.321-00")
	s.admin = s.register(auth, "admin", "000.000.000-01")
}

func (s *HandlerSuite) register(auth *authservice.Service, login, nationalID string) string {
	ctx := s.T().Context()
	_, err := auth.Register(ctx, authmodels.RegistrationRequest{
		Login:      login,
		Email:      login + "@example.com",
		Contact:    "51999990000",
		Secret:     "senha123",
		NationalID: nationalID,
	})
	s.Require().NoError(err)
	res, err := auth.Login(ctx, login, "senha123")
	s.Require().NoError(err)
	return res.Token
}

func (s *HandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), token)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	return testutil.ErrorCode(s.T(), rec)
}

func decode[T any](s *HandlerSuite, rec *httptest.ResponseRecorder) T {
	return *testutil.UnmarshalResponse[T](s.T(), rec)
}

func pngBytes(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)))
	return buf.Bytes()
}

func donationBody(nationalID string, items ...ItemRequest) DonationRequest {
	return DonationRequest{
		NationalID:     nationalID,
		Name:           "Maria Souza",
		Phone:          "51999990000",
		WhatsApp:       "51999990000",
		Address:        addressBody(),
		CanDeliver:     true,
		AvailableUntil: time.Now().AddDate(0, 0, 7).Format(dateLayout),
		Items:          items,
	}
}

func addressBody() models.Address {
	return models.Address{
		Street:     "Rua dos Andradas",
		Number:     "1001",
		PostalCode: "90020-007",
		District:   "Centro Histórico",
		City:       "Porto Alegre",
		State:      "RS",
	}
}

func (s *HandlerSuite) TestDonationLifecycle() {
	var created DonationResponse

	s.Run("create for another national id is forbidden", func() {
		rec := s.do(http.MethodPost, "/donations", donationBody("98765432100", ItemRequest{Name: "Cobertor", Quantity: 2}), s.maria)
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("permission_denied", s.errorCode(rec))
	})

	s.Run("create for own national id", func() {
		rec := s.do(http.MethodPost, "/donations", donationBody("123.456.789-01",
			ItemRequest{Name: "Cobertor", Quantity: 2, Photo: pngBytes(64, 64)},
			ItemRequest{Name: "Arroz", Quantity: 5},
		), s.maria)
		s.Require().Equal(http.StatusCreated, rec.Code)
		created = decode[DonationResponse](s, rec)
		s.Equal("12345678901", created.NationalID)
		s.Require().Len(created.Items, 2)
		s.Equal(fmt.Sprintf("/items/%d/photo", created.Items[0].ID), created.Items[0].PhotoURL)
		s.Empty(created.Items[1].PhotoURL)
	})

	s.Run("second donation for the same national id conflicts", func() {
		rec := s.do(http.MethodPost, "/donations", donationBody("12345678901", ItemRequest{Name: "Feijão", Quantity: 1}), s.admin)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("duplicate_national_id", s.errorCode(rec))
	})

	s.Run("item photo is served as jpeg without a session", func() {
		rec := s.do(http.MethodGet, created.Items[0].PhotoURL, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("image/jpeg", rec.Header().Get("Content-Type"))
		_, format, err := image.DecodeConfig(rec.Body)
		s.Require().NoError(err)
		s.Equal("jpeg", format)
	})

	path := fmt.Sprintf("/donations/%d", created.ID)

	s.Run("reads need a session", func() {
		s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/donations", nil, "").Code)
		rec := s.do(http.MethodGet, path, nil, s.joao)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(created.ID, decode[DonationResponse](s, rec).ID)
	})

	s.Run("other accounts cannot update or delete", func() {
		rec := s.do(http.MethodPut, path, donationBody("12345678901", ItemRequest{Name: "Colchão", Quantity: 1}), s.joao)
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal(http.StatusForbidden, s.do(http.MethodDelete, path, nil, s.joao).Code)
	})

	s.Run("owner replaces the items", func() {
		rec := s.do(http.MethodPut, path, donationBody("12345678901", ItemRequest{Name: "Colchão", Quantity: 1}), s.maria)
		s.Require().Equal(http.StatusOK, rec.Code)
		updated := decode[DonationResponse](s, rec)
		s.Require().Len(updated.Items, 1)
		s.Equal("Colchão", updated.Items[0].Name)
	})

	s.Run("list shows the donation", func() {
		rec := s.do(http.MethodGet, "/donations", nil, s.admin)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(1, decode[DonationsResponse](s, rec).Total)
	})

	s.Run("owner deletes it with its items", func() {
		s.Equal(http.StatusNoContent, s.do(http.MethodDelete, path, nil, s.maria).Code)
		s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, nil, s.maria).Code)
		s.Equal(http.StatusNotFound, s.do(http.MethodGet, created.Items[0].PhotoURL, nil, "").Code)
		counts, err := s.store.Counts(s.T().Context())
		s.Require().NoError(err)
		s.Zero(counts.Items)
	})
}

func (s *HandlerSuite) TestDonationRequestErrors() {
	s.Run("anonymous create is unauthorized", func() {
		rec := s.do(http.MethodPost, "/donations", donationBody("12345678901", ItemRequest{Name: "Cobertor", Quantity: 1}), "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("bad date", func() {
		body := donationBody("12345678901", ItemRequest{Name: "Cobertor", Quantity: 1})
		body.AvailableUntil = "31/05/2024"
		rec := s.do(http.MethodPost, "/donations", body, s.maria)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", s.errorCode(rec))
	})

	s.Run("no items", func() {
		rec := s.do(http.MethodPost, "/donations", donationBody("12345678901"), s.maria)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", s.errorCode(rec))
	})

	s.Run("item name wider than its column", func() {
		item := ItemRequest{Name: strings.Repeat("c", models.MaxNameLength+1), Quantity: 1}
		rec := s.do(http.MethodPost, "/donations", donationBody("12345678901", item), s.maria)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", s.errorCode(rec))
	})

	s.Run("invalid national id", func() {
		rec := s.do(http.MethodPost, "/donations", donationBody("123", ItemRequest{Name: "Cobertor", Quantity: 1}), s.maria)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_national_id", s.errorCode(rec))
	})

	s.Run("non-numeric id", func() {
		rec := s.do(http.MethodGet, "/donations/abc", nil, s.maria)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", s.errorCode(rec))
	})

	s.Run("missing donation", func() {
		s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/donations/42", nil, s.admin).Code)
	})
}

func (s *HandlerSuite) TestHelpRequests() {
	body := HelpRequestRequest{
		NationalID:    "12345678901",
		Name:          "Maria Souza",
		Phone:         "51999990000",
		WhatsApp:      "51999990000",
		Address:       addressBody(),
		HouseholdSize: 3,
	}
	rec := s.do(http.MethodPost, "/help-requests", body, s.maria)
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := decode[HelpRequestResponse](s, rec)
	s.Equal(3, created.HouseholdSize)

	rec = s.do(http.MethodPost, "/help-requests", body, s.admin)
	s.Equal(http.StatusConflict, rec.Code)

	path := fmt.Sprintf("/help-requests/%d", created.ID)
	body.HouseholdSize = 5
	rec = s.do(http.MethodPut, path, body, s.maria)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(5, decode[HelpRequestResponse](s, rec).HouseholdSize)

	rec = s.do(http.MethodGet, "/help-requests", nil, s.joao)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, decode[HelpRequestsResponse](s, rec).Total)

	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, path, nil, s.joao).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, path, nil, s.admin).Code)
}

func (s *HandlerSuite) TestPets() {
	body := PetRequest{
		Species:     "Gato",
		Description: "Frajola, castrado",
		Status:      "found",
		Location:    "Canoas",
		Contact:     "51999990000",
		Photo:       pngBytes(1600, 800),
	}
	rec := s.do(http.MethodPost, "/pets", body, s.joao)
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := decode[PetResponse](s, rec)
	s.Equal("found", created.Status)
	s.Require().NotEmpty(created.PhotoURL)

	rec = s.do(http.MethodGet, created.PhotoURL, nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	cfg, _, err := image.DecodeConfig(rec.Body)
	s.Require().NoError(err)
	s.Equal(800, cfg.Width)
	s.Equal(400, cfg.Height)

	path := fmt.Sprintf("/pets/%d", created.ID)
	body.Photo = nil
	body.Status = "adoption"
	rec = s.do(http.MethodPut, path, body, s.joao)
	s.Require().Equal(http.StatusOK, rec.Code)
	updated := decode[PetResponse](s, rec)
	s.Equal("adoption", updated.Status)
	s.Equal(created.PhotoURL, updated.PhotoURL)

	body.Status = "sleeping"
	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, path, body, s.joao).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, path, nil, s.maria).Code)

	rec = s.do(http.MethodGet, "/pets", nil, s.maria)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, decode[PetsResponse](s, rec).Total)
}

func (s *HandlerSuite) TestSearchItems() {
	rec := s.do(http.MethodPost, "/donations", donationBody("12345678901",
		ItemRequest{Name: "Cobertor", Quantity: 2, Description: "casal"},
		ItemRequest{Name: "Arroz", Quantity: 5},
	), s.maria)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("public and ordered by name", func() {
		rec := s.do(http.MethodGet, "/items/search", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		resp := decode[SearchResponse](s, rec)
		s.Require().Equal(2, resp.Total)
		s.Equal("Arroz", resp.Items[0].Item.Name)
		s.Equal("Porto Alegre", resp.Items[0].City)
	})

	s.Run("matches descriptions case-insensitively", func() {
		rec := s.do(http.MethodGet, "/items/search?q=CASAL&availability=available", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		resp := decode[SearchResponse](s, rec)
		s.Require().Equal(1, resp.Total)
		s.Equal("Cobertor", resp.Items[0].Item.Name)
	})

	s.Run("never exposes the donor national id", func() {
		rec := s.do(http.MethodGet, "/items/search", nil, "")
		s.NotContains(rec.Body.String(), "12345678901")
	})

	s.Run("unknown availability", func() {
		rec := s.do(http.MethodGet, "/items/search?availability=soon", nil, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
