package service

import (
	"context"
	"errors"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/store"
)

// DirectoryService backs the internal, trusted-network endpoints: by-email
// lookup and the full identity listing.
type DirectoryService struct {
	Store store.Store
}

// GetByEmail resolves an identity by its email.
func (s *DirectoryService) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	identity, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrIdentityNotFound
		}
		return domain.Identity{}, err
	}
	return identity, nil
}

// GetBySubjectID resolves the identity behind a verified session token.
func (s *DirectoryService) GetBySubjectID(ctx context.Context, subjectID string) (domain.Identity, error) {
	identity, err := s.Store.Identities().GetIdentityBySubjectID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrIdentityNotFound
		}
		return domain.Identity{}, err
	}
	return identity, nil
}

// List returns identities filtered by the synthetic flag. Asking for
// neither real nor synthetic accounts is a caller error.
func (s *DirectoryService) List(ctx context.Context, includeReal, includeSynthetic bool) ([]domain.Identity, error) {
	if !includeReal && !includeSynthetic {
		return nil, ErrIdentityNotFound
	}

	identities, err := s.Store.Identities().ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	if includeReal && includeSynthetic {
		return identities, nil
	}

	out := identities[:0]
	for _, id := range identities {
		if id.Synthetic == includeSynthetic {
			out = append(out, id)
		}
	}
	return out, nil
}
