// Package handler exposes donations, help requests, pet listings and the item
// search over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/records/models"
	"floodrelief/internal/records/service"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/httputil"
	authmw "floodrelief/pkg/platform/middleware/auth"
	"floodrelief/pkg/requestcontext"
)

// Service defines the record operations the handler calls.
type Service interface {
	CreateDonation(ctx context.Context, session authmodels.Session, in service.DonationInput) (*models.Donation, error)
	UpdateDonation(ctx context.Context, session authmodels.Session, donationID id.DonationID, in service.DonationInput) (*models.Donation, error)
	GetDonation(ctx context.Context, session authmodels.Session, donationID id.DonationID) (*models.Donation, error)
	ListDonations(ctx context.Context, session authmodels.Session) ([]*models.Donation, error)

	CreateHelpRequest(ctx context.Context, session authmodels.Session, in service.HelpRequestInput) (*models.HelpRequest, error)
	UpdateHelpRequest(ctx context.Context, session authmodels.Session, requestID id.HelpRequestID, in service.HelpRequestInput) (*models.HelpRequest, error)
	GetHelpRequest(ctx context.Context, session authmodels.Session, requestID id.HelpRequestID) (*models.HelpRequest, error)
	ListHelpRequests(ctx context.Context, session authmodels.Session) ([]*models.HelpRequest, error)

	CreatePet(ctx context.Context, session authmodels.Session, in service.PetInput) (*models.PetListing, error)
	UpdatePet(ctx context.Context, session authmodels.Session, petID id.PetID, in service.PetInput) (*models.PetListing, error)
	GetPet(ctx context.Context, session authmodels.Session, petID id.PetID) (*models.PetListing, error)
	ListPets(ctx context.Context, session authmodels.Session) ([]*models.PetListing, error)

	DeleteRecord(ctx context.Context, session authmodels.Session, ref models.Ref) error
	SearchItems(ctx context.Context, query string, availability models.Availability) ([]models.ItemMatch, error)
	ItemPhoto(ctx context.Context, itemID id.ItemID) ([]byte, error)
	PetPhoto(ctx context.Context, petID id.PetID) ([]byte, error)
}

// Handler wires record endpoints to the records service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a records handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the record endpoints. The session comes from
// authmw.Authenticate; the service decides which operations need one.
func (h *Handler) Register(r chi.Router) {
	r.Route("/donations", func(r chi.Router) {
		r.Post("/", h.HandleCreateDonation)
		r.Get("/", h.HandleListDonations)
		r.Get("/{id}", h.HandleGetDonation)
		r.Put("/{id}", h.HandleUpdateDonation)
		r.Delete("/{id}", h.handleDelete(models.KindDonation))
	})
	r.Route("/help-requests", func(r chi.Router) {
		r.Post("/", h.HandleCreateHelpRequest)
		r.Get("/", h.HandleListHelpRequests)
		r.Get("/{id}", h.HandleGetHelpRequest)
		r.Put("/{id}", h.HandleUpdateHelpRequest)
		r.Delete("/{id}", h.handleDelete(models.KindHelpRequest))
	})
	r.Route("/pets", func(r chi.Router) {
		r.Post("/", h.HandleCreatePet)
		r.Get("/", h.HandleListPets)
		r.Get("/{id}", h.HandleGetPet)
		r.Put("/{id}", h.HandleUpdatePet)
		r.Delete("/{id}", h.handleDelete(models.KindPet))
		r.Get("/{id}/photo", h.HandlePetPhoto)
	})
	r.Get("/items/search", h.HandleSearchItems)
	r.Get("/items/{id}/photo", h.HandleItemPhoto)
}

// HandleCreateDonation handles POST /donations.
func (h *Handler) HandleCreateDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DonationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	d, err := h.service.CreateDonation(ctx, authmw.GetSession(ctx), req.ToInput())
	if err != nil {
		h.fail(w, r, "create donation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDonationResponse(d))
}

// HandleUpdateDonation handles PUT /donations/{id}.
func (h *Handler) HandleUpdateDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DonationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	d, err := h.service.UpdateDonation(ctx, authmw.GetSession(ctx), id.DonationID(key), req.ToInput())
	if err != nil {
		h.fail(w, r, "update donation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d))
}

// HandleGetDonation handles GET /donations/{id}.
func (h *Handler) HandleGetDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDonation(ctx, authmw.GetSession(ctx), id.DonationID(key))
	if err != nil {
		h.fail(w, r, "get donation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d))
}

// HandleListDonations handles GET /donations.
func (h *Handler) HandleListDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListDonations(ctx, authmw.GetSession(ctx))
	if err != nil {
		h.fail(w, r, "list donations failed", err)
		return
	}
	resp := DonationsResponse{Donations: make([]DonationResponse, 0, len(list))}
	for _, d := range list {
		resp.Donations = append(resp.Donations, toDonationResponse(d))
	}
	resp.Total = len(resp.Donations)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreateHelpRequest handles POST /help-requests.
func (h *Handler) HandleCreateHelpRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[HelpRequestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	hr, err := h.service.CreateHelpRequest(ctx, authmw.GetSession(ctx), req.ToInput())
	if err != nil {
		h.fail(w, r, "create help request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toHelpRequestResponse(hr))
}

// HandleUpdateHelpRequest handles PUT /help-requests/{id}.
func (h *Handler) HandleUpdateHelpRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[HelpRequestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	hr, err := h.service.UpdateHelpRequest(ctx, authmw.GetSession(ctx), id.HelpRequestID(key), req.ToInput())
	if err != nil {
		h.fail(w, r, "update help request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHelpRequestResponse(hr))
}

// HandleGetHelpRequest handles GET /help-requests/{id}.
func (h *Handler) HandleGetHelpRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	hr, err := h.service.GetHelpRequest(ctx, authmw.GetSession(ctx), id.HelpRequestID(key))
	if err != nil {
		h.fail(w, r, "get help request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHelpRequestResponse(hr))
}

// HandleListHelpRequests handles GET /help-requests.
func (h *Handler) HandleListHelpRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListHelpRequests(ctx, authmw.GetSession(ctx))
	if err != nil {
		h.fail(w, r, "list help requests failed", err)
		return
	}
	resp := HelpRequestsResponse{HelpRequests: make([]HelpRequestResponse, 0, len(list))}
	for _, hr := range list {
		resp.HelpRequests = append(resp.HelpRequests, toHelpRequestResponse(hr))
	}
	resp.Total = len(resp.HelpRequests)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreatePet handles POST /pets.
func (h *Handler) HandleCreatePet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.CreatePet(ctx, authmw.GetSession(ctx), req.ToInput())
	if err != nil {
		h.fail(w, r, "create pet listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPetResponse(p))
}

// HandleUpdatePet handles PUT /pets/{id}.
func (h *Handler) HandleUpdatePet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.UpdatePet(ctx, authmw.GetSession(ctx), id.PetID(key), req.ToInput())
	if err != nil {
		h.fail(w, r, "update pet listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPetResponse(p))
}

// HandleGetPet handles GET /pets/{id}.
func (h *Handler) HandleGetPet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPet(ctx, authmw.GetSession(ctx), id.PetID(key))
	if err != nil {
		h.fail(w, r, "get pet listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPetResponse(p))
}

// HandleListPets handles GET /pets.
func (h *Handler) HandleListPets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListPets(ctx, authmw.GetSession(ctx))
	if err != nil {
		h.fail(w, r, "list pet listings failed", err)
		return
	}
	resp := PetsResponse{Pets: make([]PetResponse, 0, len(list))}
	for _, p := range list {
		resp.Pets = append(resp.Pets, toPetResponse(p))
	}
	resp.Total = len(resp.Pets)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleDelete serves DELETE /{kind}/{id} for every record kind.
func (h *Handler) handleDelete(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key, ok := h.pathKey(w, r)
		if !ok {
			return
		}
		if err := h.service.DeleteRecord(ctx, authmw.GetSession(ctx), models.Ref{Kind: kind, ID: key}); err != nil {
			h.fail(w, r, "delete record failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSearchItems handles GET /items/search?q=&availability=.
func (h *Handler) HandleSearchItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	availability, err := models.ParseAvailability(r.URL.Query().Get("availability"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	matches, err := h.service.SearchItems(ctx, r.URL.Query().Get("q"), availability)
	if err != nil {
		h.fail(w, r, "item search failed", err)
		return
	}
	resp := SearchResponse{Items: make([]ItemMatchResponse, 0, len(matches))}
	for _, m := range matches {
		resp.Items = append(resp.Items, toItemMatchResponse(m))
	}
	resp.Total = len(resp.Items)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleItemPhoto handles GET /items/{id}/photo.
func (h *Handler) HandleItemPhoto(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	data, err := h.service.ItemPhoto(r.Context(), id.ItemID(key))
	h.writePhoto(w, r, data, err)
}

// HandlePetPhoto handles GET /pets/{id}/photo.
func (h *Handler) HandlePetPhoto(w http.ResponseWriter, r *http.Request) {
	key, ok := h.pathKey(w, r)
	if !ok {
		return
	}
	data, err := h.service.PetPhoto(r.Context(), id.PetID(key))
	h.writePhoto(w, r, data, err)
}

func (h *Handler) writePhoto(w http.ResponseWriter, r *http.Request, data []byte, err error) {
	if err != nil {
		h.fail(w, r, "load photo failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) pathKey(w http.ResponseWriter, r *http.Request) (int64, bool) {
	key, err := id.ParseKey(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return key, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	)
	httputil.WriteError(w, err)
}
