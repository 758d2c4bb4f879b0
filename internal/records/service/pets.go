package service

import (
	"context"

	authmodels "floodrelief/internal/auth/models"
	"floodrelief/internal/records/models"
	"floodrelief/internal/records/policy"
	"floodrelief/internal/records/store"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/requestcontext"
)

// CreatePet lists a lost, found or adoptable pet. Listings carry no national
// id; the owner is the session account.
func (s *Service) CreatePet(ctx context.Context, session authmodels.Session, in PetInput) (created *models.PetListing, err error) {
	ctx, span := s.startSpan(ctx, "CreatePet")
	ref := models.Ref{Kind: models.KindPet}
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
	status, err := in.validate()
	if err != nil {
		return nil, err
	}
	photoBytes, err := s.processPhoto("photo", in.Photo)
	if err != nil {
		return nil, err
	}

	p := &models.PetListing{
		OwnerAccountID: ownerOf(session),
		Name:           in.Name,
		Species:        in.Species,
		Breed:          in.Breed,
		Description:    in.Description,
		Status:         status,
		Location:       in.Location,
		Contact:        in.Contact,
		Photo:          photoBytes,
		CreatedAt:      requestcontext.Now(ctx),
	}
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		return tx.CreatePet(ctx, p)
	})
	if err != nil {
		return nil, translateStoreError(err, models.KindPet, "create pet listing")
	}
	return p, nil
}

// UpdatePet replaces the listing's fields. An empty photo keeps the stored one.
func (s *Service) UpdatePet(ctx context.Context, session authmodels.Session, petID id.PetID, in PetInput) (updated *models.PetListing, err error) {
	ctx, span := s.startSpan(ctx, "UpdatePet")
	ref := models.Ref{Kind: models.KindPet, ID: int64(petID)}
	defer func() {
		s.observe(ctx, session, "update", ref, err)
		endSpan(span, err)
	}()

	if err := requireSession(session); err != nil {
		return nil, err
	}
	status, err := in.validate()
	if err != nil {
		return nil, err
	}
	photoBytes, err := s.processPhoto("photo", in.Photo)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		current, err := tx.FindPet(ctx, petID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(current, session); err != nil {
			return err
		}
		next := &models.PetListing{
			ID:             current.ID,
			OwnerAccountID: current.OwnerAccountID,
			Name:           in.Name,
			Species:        in.Species,
			Breed:          in.Breed,
			Description:    in.Description,
			Status:         status,
			Location:       in.Location,
			Contact:        in.Contact,
			Photo:          current.Photo,
			CreatedAt:      current.CreatedAt,
		}
		if photoBytes != nil {
			next.Photo = photoBytes
		}
		if err := tx.UpdatePet(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, models.KindPet, "update pet listing")
	}
	return updated, nil
}

func (s *Service) GetPet(ctx context.Context, session authmodels.Session, petID id.PetID) (*models.PetListing, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	p, err := s.store.FindPet(ctx, petID)
	if err != nil {
		return nil, translateStoreError(err, models.KindPet, "load pet listing")
	}
	return p, nil
}

func (s *Service) ListPets(ctx context.Context, session authmodels.Session) ([]*models.PetListing, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	out, err := s.store.ListPets(ctx)
	if err != nil {
		return nil, translateStoreError(err, models.KindPet, "list pet listings")
	}
	return out, nil
}
