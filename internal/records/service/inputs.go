package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"floodrelief/internal/photo"
	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
)

// ItemInput is one donated good as submitted. Photo holds the raw uploaded
// image bytes; it is normalized to a bounded JPEG before storage.
type ItemInput struct {
	Name        string
	Quantity    int
	Description string
	Photo       []byte
}

// DonationInput is the submitted donor form.
type DonationInput struct {
	NationalID     string
	Name           string
	Phone          string
	WhatsApp       string
	Address        models.Address
	CanDeliver     bool
	AvailableUntil time.Time
	Items          []ItemInput
}

// HelpRequestInput is the submitted help request form.
type HelpRequestInput struct {
	NationalID    string
	Name          string
	Phone         string
	WhatsApp      string
	Address       models.Address
	HouseholdSize int
	CanPickUp     bool
	Notes         string
}

// PetInput is the submitted pet form. On update an empty Photo keeps the
// stored one.
type PetInput struct {
	Name        string
	Species     string
	Breed       string
	Description string
	Status      string
	Location    string
	Contact     string
	Photo       []byte
}

type field struct {
	name  string
	value *string
}

// requireFields trims every field in place and reports the first empty one.
func requireFields(fields ...field) error {
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return dErrors.Newf(dErrors.CodeValidation, "%s is required", f.name)
		}
	}
	return nil
}

type bounded struct {
	name  string
	value string
	max   int
}

// checkWidths reports the first value longer than its column allows.
func checkWidths(fields ...bounded) error {
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be at most %d characters", f.name, f.max)
		}
	}
	return nil
}

func contactWidths(name, phone, whatsapp string) error {
	return checkWidths(
		bounded{"name", name, models.MaxNameLength},
		bounded{"phone", phone, models.MaxPhoneLength},
		bounded{"whatsapp", whatsapp, models.MaxPhoneLength},
	)
}

func normalizeAddress(a *models.Address) error {
	if err := requireFields(
		field{"address.street", &a.Street},
		field{"address.number", &a.Number},
		field{"address.postal_code", &a.PostalCode},
		field{"address.district", &a.District},
		field{"address.city", &a.City},
		field{"address.state", &a.State},
	); err != nil {
		return err
	}
	if err := checkWidths(
		bounded{"address.street", a.Street, models.MaxStreetLength},
		bounded{"address.number", a.Number, models.MaxNumberLength},
		bounded{"address.district", a.District, models.MaxDistrictLength},
		bounded{"address.city", a.City, models.MaxCityLength},
	); err != nil {
		return err
	}
	postal := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, a.PostalCode)
	if len(postal) != 8 {
		return dErrors.New(dErrors.CodeValidation, "address.postal_code must have 8 digits")
	}
	a.PostalCode = postal

	state := strings.ToUpper(a.State)
	if len(state) != 2 || !unicode.IsLetter(rune(state[0])) || !unicode.IsLetter(rune(state[1])) {
		return dErrors.New(dErrors.CodeValidation, "address.state must be a two-letter code")
	}
	a.State = state
	return nil
}

func parseNationalID(raw string) (id.NationalID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "national_id is required")
	}
	return id.ParseNationalID(raw)
}

// validate checks every donation field except the national id, which the
// caller parses first so the ownership check can run before anything else.
func (in *DonationInput) validate() error {
	if err := requireFields(
		field{"name", &in.Name},
		field{"phone", &in.Phone},
		field{"whatsapp", &in.WhatsApp},
	); err != nil {
		return err
	}
	if err := contactWidths(in.Name, in.Phone, in.WhatsApp); err != nil {
		return err
	}
	if err := normalizeAddress(&in.Address); err != nil {
		return err
	}
	if in.AvailableUntil.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "available_until is required")
	}
	if len(in.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one item is required")
	}
	for i := range in.Items {
		item := &in.Items[i]
		name := fmt.Sprintf("items[%d].name", i)
		if err := requireFields(field{name, &item.Name}); err != nil {
			return err
		}
		if err := checkWidths(bounded{name, item.Name, models.MaxNameLength}); err != nil {
			return err
		}
		if item.Quantity < 1 {
			return dErrors.Newf(dErrors.CodeValidation, "items[%d].quantity must be at least 1", i)
		}
		item.Description = strings.TrimSpace(item.Description)
	}
	return nil
}

func (in *HelpRequestInput) validate() error {
	if err := requireFields(
		field{"name", &in.Name},
		field{"phone", &in.Phone},
		field{"whatsapp", &in.WhatsApp},
	); err != nil {
		return err
	}
	if err := contactWidths(in.Name, in.Phone, in.WhatsApp); err != nil {
		return err
	}
	if err := normalizeAddress(&in.Address); err != nil {
		return err
	}
	if in.HouseholdSize < 1 {
		return dErrors.New(dErrors.CodeValidation, "household_size must be at least 1")
	}
	in.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (in *PetInput) validate() (models.PetStatus, error) {
	if err := requireFields(
		field{"species", &in.Species},
		field{"description", &in.Description},
		field{"status", &in.Status},
		field{"location", &in.Location},
		field{"contact", &in.Contact},
	); err != nil {
		return "", err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Breed = strings.TrimSpace(in.Breed)
	if err := checkWidths(
		bounded{"name", in.Name, models.MaxNameLength},
		bounded{"species", in.Species, models.MaxSpeciesLength},
		bounded{"breed", in.Breed, models.MaxBreedLength},
		bounded{"location", in.Location, models.MaxLocationLength},
		bounded{"contact", in.Contact, models.MaxPhoneLength},
	); err != nil {
		return "", err
	}
	return models.ParsePetStatus(in.Status)
}

// processPhoto normalizes an uploaded photo. No data means no photo.
func (s *Service) processPhoto(name string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out, err := s.thumbnail(data)
	if err != nil {
		if errors.Is(err, photo.ErrUndecodable) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s: %v", name, err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to process "+name)
	}
	return out, nil
}

func (s *Service) buildItems(in []ItemInput) ([]models.Item, error) {
	items := make([]models.Item, 0, len(in))
	for i, it := range in {
		photoBytes, err := s.processPhoto(fmt.Sprintf("items[%d].photo", i), it.Photo)
		if err != nil {
			return nil, err
		}
		items = append(items, models.Item{
			Name:        it.Name,
			Quantity:    it.Quantity,
			Description: it.Description,
			Photo:       photoBytes,
		})
	}
	return items, nil
}
