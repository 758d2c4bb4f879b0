package handler

import (
	"fmt"
	"time"

	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
)

// Photos are served from their own endpoints; responses carry the URL only.

type ItemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type DonationResponse struct {
	ID             int64          `json:"id"`
	OwnerAccountID *int64         `json:"owner_account_id"`
	NationalID     string         `json:"national_id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	WhatsApp       string         `json:"whatsapp"`
	Address        models.Address `json:"address"`
	CanDeliver     bool           `json:"can_deliver"`
	AvailableUntil string         `json:"available_until"`
	CreatedAt      time.Time      `json:"created_at"`
	Items          []ItemResponse `json:"items"`
}

type DonationsResponse struct {
	Donations []DonationResponse `json:"donations"`
	Total     int                `json:"total"`
}

type HelpRequestResponse struct {
	ID             int64          `json:"id"`
	OwnerAccountID *int64         `json:"owner_account_id"`
	NationalID     string         `json:"national_id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	WhatsApp       string         `json:"whatsapp"`
	Address        models.Address `json:"address"`
	HouseholdSize  int            `json:"household_size"`
	CanPickUp      bool           `json:"can_pick_up"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type HelpRequestsResponse struct {
	HelpRequests []HelpRequestResponse `json:"help_requests"`
	Total        int                   `json:"total"`
}

type PetResponse struct {
	ID             int64     `json:"id"`
	OwnerAccountID *int64    `json:"owner_account_id"`
	Name           string    `json:"name,omitempty"`
	Species        string    `json:"species"`
	Breed          string    `json:"breed,omitempty"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
	Contact        string    `json:"contact"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type PetsResponse struct {
	Pets  []PetResponse `json:"pets"`
	Total int           `json:"total"`
}

// ItemMatchResponse is a public search hit. It names the donor and how to
// reach them but never the donor's national id.
type ItemMatchResponse struct {
	Item           ItemResponse `json:"item"`
	DonationID     int64        `json:"donation_id"`
	DonorName      string       `json:"donor_name"`
	WhatsApp       string       `json:"whatsapp"`
	District       string       `json:"district"`
	City           string       `json:"city"`
	State          string       `json:"state"`
	CanDeliver     bool         `json:"can_deliver"`
	AvailableUntil string       `json:"available_until"`
}

type SearchResponse struct {
	Items []ItemMatchResponse `json:"items"`
	Total int                 `json:"total"`
}

func ownerID(a *id.AccountID) *int64 {
	if a == nil {
		return nil
	}
	v := int64(*a)
	return &v
}

func toItemResponse(it models.Item) ItemResponse {
	resp := ItemResponse{
		ID:          int64(it.ID),
		Name:        it.Name,
		Quantity:    it.Quantity,
		Description: it.Description,
		CreatedAt:   it.CreatedAt,
	}
	if len(it.Photo) > 0 {
		resp.PhotoURL = fmt.Sprintf("/items/%d/photo", it.ID)
	}
	return resp
}

func toDonationResponse(d *models.Donation) DonationResponse {
	resp := DonationResponse{
		ID:             int64(d.ID),
		OwnerAccountID: ownerID(d.OwnerAccountID),
		NationalID:     d.NationalID.String(),
		Name:           d.Name,
		Phone:          d.Phone,
		WhatsApp:       d.WhatsApp,
		Address:        d.Address,
		CanDeliver:     d.CanDeliver,
		AvailableUntil: d.AvailableUntil.Format(dateLayout),
		CreatedAt:      d.CreatedAt,
		Items:          make([]ItemResponse, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	return resp
}

func toHelpRequestResponse(h *models.HelpRequest) HelpRequestResponse {
	return HelpRequestResponse{
		ID:             int64(h.ID),
		OwnerAccountID: ownerID(h.OwnerAccountID),
		NationalID:     h.NationalID.String(),
		Name:           h.Name,
		Phone:          h.Phone,
		WhatsApp:       h.WhatsApp,
		Address:        h.Address,
		HouseholdSize:  h.HouseholdSize,
		CanPickUp:      h.CanPickUp,
		Notes:          h.Notes,
		CreatedAt:      h.CreatedAt,
	}
}

func toPetResponse(p *models.PetListing) PetResponse {
	resp := PetResponse{
		ID:             int64(p.ID),
		OwnerAccountID: ownerID(p.OwnerAccountID),
		Name:           p.Name,
		Species:        p.Species,
		Breed:          p.Breed,
		Description:    p.Description,
		Status:         string(p.Status),
		Location:       p.Location,
		Contact:        p.Contact,
		CreatedAt:      p.CreatedAt,
	}
	if len(p.Photo) > 0 {
		resp.PhotoURL = fmt.Sprintf("/pets/%d/photo", p.ID)
	}
	return resp
}

func toItemMatchResponse(m models.ItemMatch) ItemMatchResponse {
	return ItemMatchResponse{
		Item:           toItemResponse(m.Item),
		DonationID:     int64(m.Donation.ID),
		DonorName:      m.Donation.Name,
		WhatsApp:       m.Donation.WhatsApp,
		District:       m.Donation.Address.District,
		City:           m.Donation.Address.City,
		State:          m.Donation.Address.State,
		CanDeliver:     m.Donation.CanDeliver,
		AvailableUntil: m.Donation.AvailableUntil.Format(dateLayout),
	}
}
