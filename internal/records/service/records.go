package service

import (
	"context"
	"errors"

	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/records/models"
	"floodrelief/internal/records/policy"
	"floodrelief/internal/records/store"
	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
	"floodrelief/pkg/platform/sentinel"
	"floodrelief/pkg/requestcontext"
)

// DeleteRecord removes one owned record after the ownership check. Deleting a
// donation removes its items in the same transaction.
func (s *Service) DeleteRecord(ctx context.Context, session authmodels.Session, ref models.Ref) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteRecord")
	defer func() {
		s.observe(ctx, session, "delete", ref, err)
		endSpan(span, err)
	}()

	if err := requireSession(session); err != nil {
		return err
	}

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		record, err := findRecord(ctx, tx, ref)
		if err != nil {
			return err
		}
		if err := policy.Authorize(record, session); err != nil {
			return err
		}
		switch ref.Kind {
		case models.KindDonation:
			return tx.DeleteDonation(ctx, id.DonationID(ref.ID))
		case models.KindHelpRequest:
			return tx.DeleteHelpRequest(ctx, id.HelpRequestID(ref.ID))
		default:
			return tx.DeletePet(ctx, id.PetID(ref.ID))
		}
	})
	return translateStoreError(err, ref.Kind, "delete "+describeKind(ref.Kind))
}

func findRecord(ctx context.Context, tx store.Store, ref models.Ref) (models.Record, error) {
	switch ref.Kind {
	case models.KindDonation:
		return tx.FindDonation(ctx, id.DonationID(ref.ID))
	case models.KindHelpRequest:
		return tx.FindHelpRequest(ctx, id.HelpRequestID(ref.ID))
	case models.KindPet:
		return tx.FindPet(ctx, id.PetID(ref.ID))
	}
	return nil, dErrors.Newf(dErrors.CodeValidation, "unknown record kind %q", ref.Kind)
}

// SearchItems finds donated items whose name or description contains query,
// ordered by item name. It needs no session.
func (s *Service) SearchItems(ctx context.Context, query string, availability models.Availability) (matches []models.ItemMatch, err error) {
	ctx, span := s.startSpan(ctx, "SearchItems")
	defer func() { endSpan(span, err) }()

	if availability == "" {
		availability = models.AvailabilityAll
	}
	matches, err = s.store.SearchItems(ctx, query, availability, requestcontext.Now(ctx))
	if err != nil {
		return nil, translateStoreError(err, models.KindDonation, "search items")
	}
	return matches, nil
}

// ItemPhoto returns the stored JPEG of an item.
func (s *Service) ItemPhoto(ctx context.Context, itemID id.ItemID) ([]byte, error) {
	item, err := s.store.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to load item")
	}
	if len(item.Photo) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "item has no photo")
	}
	return item.Photo, nil
}

// PetPhoto returns the stored JPEG of a pet listing.
func (s *Service) PetPhoto(ctx context.Context, petID id.PetID) ([]byte, error) {
	p, err := s.store.FindPet(ctx, petID)
	if err != nil {
		return nil, translateStoreError(err, models.KindPet, "load pet listing")
	}
	if len(p.Photo) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "pet listing has no photo")
	}
	return p.Photo, nil
}

// Counts returns the number of stored records per table.
func (s *Service) Counts(ctx context.Context) (models.Counts, error) {
	c, err := s.store.Counts(ctx)
	if err != nil {
		return models.Counts{}, dErrors.Wrap(err, dErrors.CodeOperationFailed, "failed to count records")
	}
	return c, nil
}
