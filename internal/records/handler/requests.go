package handler

import (
	"strings"
	"time"
	"unicode/utf8"

	"floodrelief/internal/records/models"
	"floodrelief/internal/records/service"
	dErrors "floodrelief/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// maxItems bounds the item list of a single donation.
const maxItems = 100

type limit struct {
	name  string
	value string
	max   int
}

// checkLimits counts characters after trimming, as the service stores them.
func checkLimits(limits ...limit) error {
	for _, l := range limits {
		if utf8.RuneCountInString(strings.TrimSpace(l.value)) > l.max {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be at most %d characters", l.name, l.max)
		}
	}
	return nil
}

func addressLimits(a models.Address) []limit {
	return []limit{
		{"address.street", a.Street, models.MaxStreetLength},
		{"address.number", a.Number, models.MaxNumberLength},
		{"address.postal_code", a.PostalCode, 16},
		{"address.district", a.District, models.MaxDistrictLength},
		{"address.city", a.City, models.MaxCityLength},
		{"address.state", a.State, 8},
	}
}

// ItemRequest is one item of a donation. Photo is base64 in JSON.
type ItemRequest struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	Photo       []byte `json:"photo,omitempty"`
}

// DonationRequest is the body of POST /donations and PUT /donations/{id}.
// Field rules live in the service; Validate only bounds sizes and parses the
// date.
type DonationRequest struct {
	NationalID     string         `json:"national_id"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone"`
	WhatsApp       string         `json:"whatsapp"`
	Address        models.Address `json:"address"`
	CanDeliver     bool           `json:"can_deliver"`
	AvailableUntil string         `json:"available_until"`
	Items          []ItemRequest  `json:"items"`

	availableUntil time.Time
}

func (r *DonationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	limits := []limit{
		{"national_id", r.NationalID, 32},
		{"name", r.Name, models.MaxNameLength},
		{"phone", r.Phone, models.MaxPhoneLength},
		{"whatsapp", r.WhatsApp, models.MaxPhoneLength},
	}
	if err := checkLimits(append(limits, addressLimits(r.Address)...)...); err != nil {
		return err
	}
	if len(r.Items) > maxItems {
		return dErrors.Newf(dErrors.CodeValidation, "a donation holds at most %d items", maxItems)
	}
	for _, it := range r.Items {
		if err := checkLimits(limit{"item name", it.Name, models.MaxNameLength}, limit{"item description", it.Description, 2000}); err != nil {
			return err
		}
	}
	if r.AvailableUntil != "" {
		t, err := time.Parse(dateLayout, r.AvailableUntil)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "available_until must be a date like 2024-05-31")
		}
		r.availableUntil = t
	}
	return nil
}

func (r *DonationRequest) ToInput() service.DonationInput {
	in := service.DonationInput{
		NationalID:     r.NationalID,
		Name:           r.Name,
		Phone:          r.Phone,
		WhatsApp:       r.WhatsApp,
		Address:        r.Address,
		CanDeliver:     r.CanDeliver,
		AvailableUntil: r.availableUntil,
		Items:          make([]service.ItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, service.ItemInput{
			Name:        it.Name,
			Quantity:    it.Quantity,
			Description: it.Description,
			Photo:       it.Photo,
		})
	}
	return in
}

// HelpRequestRequest is the body of POST /help-requests and
// PUT /help-requests/{id}.
type HelpRequestRequest struct {
	NationalID    string         `json:"national_id"`
	Name          string         `json:"name"`
	Phone         string         `json:"phone"`
	WhatsApp      string         `json:"whatsapp"`
	Address       models.Address `json:"address"`
	HouseholdSize int            `json:"household_size"`
	CanPickUp     bool           `json:"can_pick_up"`
	Notes         string         `json:"notes"`
}

func (r *HelpRequestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	limits := []limit{
		{"national_id", r.NationalID, 32},
		{"name", r.Name, models.MaxNameLength},
		{"phone", r.Phone, models.MaxPhoneLength},
		{"whatsapp", r.WhatsApp, models.MaxPhoneLength},
		{"notes", r.Notes, 4000},
	}
	return checkLimits(append(limits, addressLimits(r.Address)...)...)
}

func (r *HelpRequestRequest) ToInput() service.HelpRequestInput {
	return service.HelpRequestInput{
		NationalID:    r.NationalID,
		Name:          r.Name,
		Phone:         r.Phone,
		WhatsApp:      r.WhatsApp,
		Address:       r.Address,
		HouseholdSize: r.HouseholdSize,
		CanPickUp:     r.CanPickUp,
		Notes:         r.Notes,
	}
}

// PetRequest is the body of POST /pets and PUT /pets/{id}. On update an
// omitted photo keeps the stored one.
type PetRequest struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Breed       string `json:"breed"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	Contact     string `json:"contact"`
	Photo       []byte `json:"photo,omitempty"`
}

func (r *PetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return checkLimits(
		limit{"name", r.Name, models.MaxNameLength},
		limit{"species", r.Species, models.MaxSpeciesLength},
		limit{"breed", r.Breed, models.MaxBreedLength},
		limit{"description", r.Description, 2000},
		limit{"status", r.Status, 16},
		limit{"location", r.Location, models.MaxLocationLength},
		limit{"contact", r.Contact, models.MaxPhoneLength},
	)
}

func (r *PetRequest) ToInput() service.PetInput {
	return service.PetInput{
		Name:        r.Name,
		Species:     r.Species,
		Breed:       r.Breed,
		Description: r.Description,
		Status:      r.Status,
		Location:    r.Location,
		Contact:     r.Contact,
		Photo:       r.Photo,
	}
}
