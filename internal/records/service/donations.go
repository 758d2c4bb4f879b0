package service

import (
	"context"

	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/records/models"
	"floodrelief/internal/records/policy"
	"floodrelief/internal/records/store"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/requestcontext"
)

// CreateDonation files a donation with its items. Non-admin sessions may only
// file under their own national id; the check runs before anything is
// written. The uniqueness guard and the inserts share one transaction.
func (s *Service) CreateDonation(ctx context.Context, session authmodels.Session, in DonationInput) (created *models.Donation, err error) {
	ctx, span := s.startSpan(ctx, "CreateDonation")
	ref := models.Ref{Kind: models.KindDonation}
	defer func() {
		if created != nil {
			ref.ID = created.Key()
		}
		s.observe(ctx, session, "create", ref, err)
		endSpan(span, err)
	}()

	if err := s.requireCreator(session); err != nil {
		return nil, err
	}
	nationalID, err := parseNationalID(in.NationalID)
	if err != nil {
		return nil, err
	}
	if session.IsAuthenticated() {
		if err := policy.AuthorizeCreate(session, models.KindDonation, nationalID); err != nil {
			return nil, err
		}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	items, err := s.buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	d := &models.Donation{
		OwnerAccountID: ownerOf(session),
		NationalID:     nationalID,
		Name:           in.Name,
		Phone:          in.Phone,
		WhatsApp:       in.WhatsApp,
		Address:        in.Address,
		CanDeliver:     in.CanDeliver,
		AvailableUntil: in.AvailableUntil,
		CreatedAt:      requestcontext.Now(ctx),
		Items:          items,
	}
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		if err := guardNationalID(ctx, tx, nationalID, models.KindDonation); err != nil {
			return err
		}
		return tx.CreateDonation(ctx, d)
	})
	if err != nil {
		return nil, translateStoreError(err, models.KindDonation, "create donation")
	}
	return d, nil
}

// UpdateDonation replaces the donation's fields and its whole item set.
// Moving a donation to another national id is reserved to administrators.
func (s *Service) UpdateDonation(ctx context.Context, session authmodels.Session, donationID id.DonationID, in DonationInput) (updated *models.Donation, err error) {
	ctx, span := s.startSpan(ctx, "UpdateDonation")
	ref := models.Ref{Kind: models.KindDonation, ID: int64(donationID)}
	defer func() {
		s.observe(ctx, session, "update", ref, err)
		endSpan(span, err)
	}()

	if err := requireSession(session); err != nil {
		return nil, err
	}
	nationalID, err := parseNationalID(in.NationalID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	items, err := s.buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		current, err := tx.FindDonation(ctx, donationID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(current, session); err != nil {
			return err
		}
		if nationalID != current.NationalID {
			if err := requireAdminForMove(session); err != nil {
				return err
			}
			if err := guardNationalID(ctx, tx, nationalID, models.KindDonation); err != nil {
				return err
			}
		}
		next := &models.Donation{
			ID:             current.ID,
			OwnerAccountID: current.OwnerAccountID,
			NationalID:     nationalID,
			Name:           in.Name,
			Phone:          in.Phone,
			WhatsApp:       in.WhatsApp,
			Address:        in.Address,
			CanDeliver:     in.CanDeliver,
			AvailableUntil: in.AvailableUntil,
			CreatedAt:      current.CreatedAt,
			Items:          items,
		}
		if err := tx.UpdateDonation(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, models.KindDonation, "update donation")
	}
	return updated, nil
}

// GetDonation returns one donation with its items.
func (s *Service) GetDonation(ctx context.Context, session authmodels.Session, donationID id.DonationID) (*models.Donation, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	d, err := s.store.FindDonation(ctx, donationID)
	if err != nil {
		return nil, translateStoreError(err, models.KindDonation, "load donation")
	}
	return d, nil
}

// ListDonations returns every donation with its items, ordered by id.
func (s *Service) ListDonations(ctx context.Context, session authmodels.Session) ([]*models.Donation, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	out, err := s.store.ListDonations(ctx)
	if err != nil {
		return nil, translateStoreError(err, models.KindDonation, "list donations")
	}
	return out, nil
}

// guardNationalID runs the uniqueness check inside the creating transaction,
// immediately before the write. The storage constraint still catches a
// concurrent writer that commits in between.
func guardNationalID(ctx context.Context, tx store.Store, nationalID id.NationalID, kind models.Kind) error {
	taken, err := tx.IsNationalIDTaken(ctx, nationalID, kind)
	if err != nil {
		return err
	}
	if taken {
		return duplicateNationalID(kind)
	}
	return nil
}

func requireAdminForMove(session authmodels.Session) error {
	if session.IsAdmin {
		return nil
	}
	return dErrors.New(dErrors.CodePermissionDenied, "only administrators may change the national id of a record")
}

// ownerOf links new records to the session account; anonymous records have
// no owner account.
func ownerOf(session authmodels.Session) *id.AccountID {
	if !session.IsAuthenticated() {
		return nil
	}
	accountID := session.AccountID
	return &accountID
}
