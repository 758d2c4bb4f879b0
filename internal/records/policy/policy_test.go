package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
)

func accountID(v int64) *id.AccountID {
	a := id.AccountID(v)
	return &a
}

func session(accountID int64, nationalID id.NationalID, admin bool) authmodels.Session {
	return authmodels.Session{
		ID:         id.NewSessionID(),
		AccountID:  id.AccountID(accountID),
		NationalID: nationalID,
		IsAdmin:    admin,
	}
}

func TestCanMutate(t *testing.T) {
	maria := session(1, "12345678901", false)
	joao := session(2, "98765432100", false)
	admin := session(3, id.AdminNationalID, true)

	records := map[string]models.Record{
		"donation":     &models.Donation{ID: 10, OwnerAccountID: accountID(1), NationalID: "12345678901"},
		"help request": &models.HelpRequest{ID: 11, OwnerAccountID: accountID(1), NationalID: "12345678901"},
		"pet":          &models.PetListing{ID: 12, OwnerAccountID: accountID(1)},
	}

	for name, record := range records {
		t.Run(name, func(t *testing.T) {
			assert.True(t, CanMutate(record, maria), "owner")
			assert.True(t, CanMutate(record, admin), "admin")
			assert.False(t, CanMutate(record, joao), "other account")
			assert.False(t, CanMutate(record, authmodels.Anonymous), "anonymous")
		})
	}
}

func TestCanMutate_Linkage(t *testing.T) {
	maria := session(1, "12345678901", false)

	t.Run("national id grants access to account-owned records", func(t *testing.T) {
		d := &models.Donation{ID: 1, OwnerAccountID: accountID(7), NationalID: "12345678901"}
		assert.True(t, CanMutate(d, maria))
	})

	t.Run("anonymous submissions are admin only even when the national id matches", func(t *testing.T) {
		d := &models.Donation{ID: 1, NationalID: "12345678901"}
		h := &models.HelpRequest{ID: 2, NationalID: "12345678901"}
		assert.False(t, CanMutate(d, maria))
		assert.False(t, CanMutate(h, maria))
		assert.True(t, CanMutate(d, session(9, id.AdminNationalID, true)))
		assert.True(t, CanMutate(h, session(9, id.AdminNationalID, true)))
		assert.Equal(t, models.Owner{}, d.Owner())
	})

	t.Run("account id alone grants access", func(t *testing.T) {
		h := &models.HelpRequest{ID: 1, OwnerAccountID: accountID(1), NationalID: "11111111111"}
		assert.True(t, CanMutate(h, maria))
	})

	t.Run("unowned record is admin only", func(t *testing.T) {
		p := &models.PetListing{ID: 1}
		assert.False(t, CanMutate(p, maria))
		assert.True(t, CanMutate(p, session(9, id.AdminNationalID, true)))
	})

	t.Run("empty national ids never match", func(t *testing.T) {
		p := &models.PetListing{ID: 1}
		assert.False(t, CanMutate(p, session(5, "", false)))
	})
}

func TestAuthorize(t *testing.T) {
	h := &models.HelpRequest{ID: 7, OwnerAccountID: accountID(1), NationalID: "12345678901"}
	err := Authorize(h, session(2, "98765432100", false))
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	assert.Contains(t, err.Error(), "help request 7")

	assert.NoError(t, Authorize(h, session(1, "12345678901", false)))
}

func TestAuthorizeCreate(t *testing.T) {
	maria := session(1, "12345678901", false)

	assert.NoError(t, AuthorizeCreate(maria, models.KindDonation, "12345678901"))
	assert.NoError(t, AuthorizeCreate(session(3, id.AdminNationalID, true), models.KindDonation, "98765432100"))

	err := AuthorizeCreate(maria, models.KindDonation, "98765432100")
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	assert.NotContains(t, err.Error(), "98765432100")

	assert.False(t, CanCreateFor(authmodels.Anonymous, "12345678901"))
}
