package service

import (
	"context"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/pkg/idx"
)

// IntegrationService records which downstream data sources an identity has
// connected.
type IntegrationService struct {
	Store store.Store
}

// EnsureConnected records (identity, source) if absent. Safe to call on
// every successful use of an integration, not just the first.
func (s *IntegrationService) EnsureConnected(ctx context.Context, identityID, source string) error {
	return s.Store.Integrations().RecordIntegration(ctx, domain.Integration{
		ID:         idx.New().String(),
		IdentityID: identityID,
		Source:     source,
	})
}

// List returns the integrations an identity has connected, oldest first.
func (s *IntegrationService) List(ctx context.Context, identityID string) ([]domain.Integration, error) {
	return s.Store.Integrations().ListIntegrationsByIdentity(ctx, identityID)
}
