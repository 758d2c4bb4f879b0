package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodrelief/internal/records/models"
	dErrors "floodrelief/pkg/domain-errors"
)

func TestRequestLimitsFollowColumns(t *testing.T) {
	wide := func(n int) string { return strings.Repeat("ç", n) }

	donation := map[string]struct {
		set func(r *DonationRequest, v string)
		max int
	}{
		"name":             {func(r *DonationRequest, v string) { r.Name = v }, models.MaxNameLength},
		"phone":            {func(r *DonationRequest, v string) { r.Phone = v }, models.MaxPhoneLength},
		"whatsapp":         {func(r *DonationRequest, v string) { r.WhatsApp = v }, models.MaxPhoneLength},
		"address.street":   {func(r *DonationRequest, v string) { r.Address.Street = v }, models.MaxStreetLength},
		"address.number":   {func(r *DonationRequest, v string) { r.Address.Number = v }, models.MaxNumberLength},
		"address.district": {func(r *DonationRequest, v string) { r.Address.District = v }, models.MaxDistrictLength},
		"address.city":     {func(r *DonationRequest, v string) { r.Address.City = v }, models.MaxCityLength},
		"item name":        {func(r *DonationRequest, v string) { r.Items[0].Name = v }, models.MaxNameLength},
	}
	for field, tc := range donation {
		t.Run("donation "+field, func(t *testing.T) {
			r := donationBody("12345678901", ItemRequest{Name: "Cobertor", Quantity: 1})
			tc.set(&r, " "+wide(tc.max)+" ")
			require.NoError(t, r.Validate())

			r = donationBody("12345678901", ItemRequest{Name: "Cobertor", Quantity: 1})
			tc.set(&r, wide(tc.max+1))
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), field)
		})
	}

	t.Run("help request name", func(t *testing.T) {
		r := HelpRequestRequest{Name: wide(models.MaxNameLength), Address: addressBody()}
		require.NoError(t, r.Validate())
		r.Name = wide(models.MaxNameLength + 1)
		assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation))
	})

	pet := map[string]struct {
		set func(r *PetRequest, v string)
		max int
	}{
		"name":     {func(r *PetRequest, v string) { r.Name = v }, models.MaxNameLength},
		"species":  {func(r *PetRequest, v string) { r.Species = v }, models.MaxSpeciesLength},
		"breed":    {func(r *PetRequest, v string) { r.Breed = v }, models.MaxBreedLength},
		"location": {func(r *PetRequest, v string) { r.Location = v }, models.MaxLocationLength},
		"contact":  {func(r *PetRequest, v string) { r.Contact = v }, models.MaxPhoneLength},
	}
	for field, tc := range pet {
		t.Run("pet "+field, func(t *testing.T) {
			var r PetRequest
			tc.set(&r, wide(tc.max))
			require.NoError(t, r.Validate())
			tc.set(&r, wide(tc.max+1))
			err := r.Validate()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), field)
		})
	}
}
