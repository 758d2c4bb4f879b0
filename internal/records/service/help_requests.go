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

// CreateHelpRequest files a help request under the same rules as donations,
// against the help request namespace.
func (s *Service) CreateHelpRequest(ctx context.Context, session authmodels.Session, in HelpRequestInput) (created *models.HelpRequest, err error) {
	ctx, span := s.startSpan(ctx, "CreateHelpRequest")
	ref := models.Ref{Kind: models.KindHelpRequest}
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
		if err := policy.AuthorizeCreate(session, models.KindHelpRequest, nationalID); err != nil {
			return nil, err
		}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	h := &models.HelpRequest{
		OwnerAccountID: ownerOf(session),
		NationalID:     nationalID,
		Name:           in.Name,
		Phone:          in.Phone,
		WhatsApp:       in.WhatsApp,
		Address:        in.Address,
		HouseholdSize:  in.HouseholdSize,
		CanPickUp:      in.CanPickUp,
		Notes:          in.Notes,
		CreatedAt:      requestcontext.Now(ctx),
	}
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		if err := guardNationalID(ctx, tx, nationalID, models.KindHelpRequest); err != nil {
			return err
		}
		return tx.CreateHelpRequest(ctx, h)
	})
	if err != nil {
		return nil, translateStoreError(err, models.KindHelpRequest, "create help request")
	}
	return h, nil
}

// UpdateHelpRequest replaces the request's fields.
func (s *Service) UpdateHelpRequest(ctx context.Context, session authmodels.Session, requestID id.HelpRequestID, in HelpRequestInput) (updated *models.HelpRequest, err error) {
	ctx, span := s.startSpan(ctx, "UpdateHelpRequest")
	ref := models.Ref{Kind: models.KindHelpRequest, ID: int64(requestID)}
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

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		current, err := tx.FindHelpRequest(ctx, requestID)
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
			if err := guardNationalID(ctx, tx, nationalID, models.KindHelpRequest); err != nil {
				return err
			}
		}
		next := &models.HelpRequest{
			ID:             current.ID,
			OwnerAccountID: current.OwnerAccountID,
			NationalID:     nationalID,
			Name:           in.Name,
			Phone:          in.Phone,
			WhatsApp:       in.WhatsApp,
			Address:        in.Address,
			HouseholdSize:  in.HouseholdSize,
			CanPickUp:      in.CanPickUp,
			Notes:          in.Notes,
			CreatedAt:      current.CreatedAt,
		}
		if err := tx.UpdateHelpRequest(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, models.KindHelpRequest, "update help request")
	}
	return updated, nil
}

func (s *Service) GetHelpRequest(ctx context.Context, session authmodels.Session, requestID id.HelpRequestID) (*models.HelpRequest, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	h, err := s.store.FindHelpRequest(ctx, requestID)
	if err != nil {
		return nil, translateStoreError(err, models.KindHelpRequest, "load help request")
	}
	return h, nil
}

func (s *Service) ListHelpRequests(ctx context.Context, session authmodels.Session) ([]*models.HelpRequest, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	out, err := s.store.ListHelpRequests(ctx)
	if err != nil {
		return nil, translateStoreError(err, models.KindHelpRequest, "list help requests")
	}
	return out, nil
}
