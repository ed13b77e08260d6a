package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/provider/google"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/pkg/idx"
	"github.com/openfit/healthsync/pkg/slogx"
)

// IdentityProvider is the outbound surface of the identity provider the
// login and token services depend on. *google.Client satisfies it; tests
// substitute fakes.
type IdentityProvider interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (google.Profile, error)
	ExchangeCode(ctx context.Context, code string) (*google.TokenGrant, error)
	FetchEnrichment(ctx context.Context, accessToken string) (google.Enrichment, error)
	Introspect(ctx context.Context, accessToken string) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
}

// LoginService handles the two login entry flows: a bare ID-token assertion
// and a full authorization-code exchange.
type LoginService struct {
	Provider IdentityProvider
	Store    store.Store
	Sessions *SessionService
}

// LoginWithAssertion verifies a provider-issued ID token, upserts the
// identity and mints a session token pair.
func (s *LoginService) LoginWithAssertion(ctx context.Context, rawIDToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	profile, err := s.Provider.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		switch {
		case errors.Is(err, google.ErrUnavailable):
			return nil, ErrUpstreamUnavailable
		default:
			l.Info("id token verification failed", slog.String("reason", err.Error()))
			return nil, ErrInvalidCredentials
		}
	}

	var identity domain.Identity
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		identity, err = upsertIdentity(ctx, tx, profile, google.Enrichment{})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("assertion login", slog.String("identity_id", identity.ID))
	return s.Sessions.IssuePair(identity)
}

// LoginWithCode redeems an authorization code, enriches the profile
// (best-effort), persists identity, provider tokens and the fitness
// integration record in a single transaction, then mints a session pair.
// Tokens are only issued once every write has landed; a mid-flow failure
// leaves no session behind and the caller simply retries the full exchange.
func (s *LoginService) LoginWithCode(ctx context.Context, code string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	grant, err := s.Provider.ExchangeCode(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, google.ErrUnavailable):
			return nil, ErrUpstreamUnavailable
		case errors.Is(err, google.ErrMalformed):
			l.Error("provider broke its token response contract", slog.String("reason", err.Error()))
			return nil, ErrMalformedUpstream
		default:
			l.Info("code exchange rejected", slog.String("reason", err.Error()))
			return nil, ErrCodeExchangeRejected
		}
	}

	// Enrichment is best-effort: a People API hiccup must not abort a login.
	enrichment, err := s.Provider.FetchEnrichment(ctx, grant.AccessToken)
	if err != nil {
		l.Warn("profile enrichment failed", slog.String("reason", err.Error()))
		enrichment = google.Enrichment{}
	}

	var identity domain.Identity
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		identity, err = upsertIdentity(ctx, tx, grant.Profile, enrichment)
		if err != nil {
			return err
		}

		// A successful exchange proves the refresh token works again.
		if identity.NeedsReauth {
			if err := tx.Identities().MarkNeedsReauth(ctx, identity.ID, false); err != nil {
				return err
			}
			identity.NeedsReauth = false
		}

		if err := tx.ProviderTokens().UpsertProviderTokens(ctx, domain.ProviderTokens{
			ID:           idx.New().String(),
			IdentityID:   identity.ID,
			AccessToken:  grant.AccessToken,
			RefreshToken: grant.RefreshToken,
			ExpiresAt:    grant.ExpiresAt,
		}); err != nil {
			return err
		}

		return tx.Integrations().RecordIntegration(ctx, domain.Integration{
			ID:         idx.New().String(),
			IdentityID: identity.ID,
			Source:     domain.IntegrationSourceFitness,
		})
	})
	if err != nil {
		return nil, err
	}

	l.Info("code login", slog.String("identity_id", identity.ID))
	return s.Sessions.IssuePair(identity)
}

// upsertIdentity resolves a verified profile to exactly one identity row.
// A unique-constraint violation on insert means another request created the
// row between our lookup and the insert; we treat that as the lookup having
// succeeded and fall through to the update path.
func upsertIdentity(ctx context.Context, tx store.Tx, profile google.Profile, enrichment google.Enrichment) (domain.Identity, error) {
	existing, err := tx.Identities().GetIdentityBySubjectID(ctx, profile.SubjectID)
	switch {
	case err == nil:
		return updateIdentityProfile(ctx, tx, existing, profile, enrichment)

	case errors.Is(err, store.ErrNotFound):
		fresh := domain.Identity{
			ID:          idx.New().String(),
			SubjectID:   profile.SubjectID,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
			Gender:      enrichment.Gender,
			BirthDate:   enrichment.BirthDate,
		}
		err = tx.Identities().CreateIdentity(ctx, fresh)
		if err == nil {
			return tx.Identities().GetIdentityBySubjectID(ctx, profile.SubjectID)
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return domain.Identity{}, err
		}
		// lost the first-login race; converge on the winner's row
		winner, err := tx.Identities().GetIdentityBySubjectID(ctx, profile.SubjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// the conflict was the email column: a different subject
				// already owns this address
				return domain.Identity{}, fmt.Errorf("identity upsert: email taken by another subject: %w", store.ErrAlreadyExists)
			}
			return domain.Identity{}, err
		}
		return updateIdentityProfile(ctx, tx, winner, profile, enrichment)

	default:
		return domain.Identity{}, err
	}
}

// updateIdentityProfile writes back provider-asserted fields only when at
// least one diverges from the stored row. Enrichment fields never clear a
// stored value.
func updateIdentityProfile(ctx context.Context, tx store.Tx, current domain.Identity, profile google.Profile, enrichment google.Enrichment) (domain.Identity, error) {
	next := current
	next.Email = profile.Email
	next.DisplayName = profile.DisplayName
	next.AvatarURL = profile.AvatarURL
	if enrichment.Gender != "" {
		next.Gender = enrichment.Gender
	}
	if enrichment.BirthDate != nil {
		next.BirthDate = enrichment.BirthDate
	}

	if identityProfilesEqual(current, next) {
		return current, nil
	}

	if err := tx.Identities().UpdateProfile(ctx, current.SubjectID, next); err != nil {
		return domain.Identity{}, err
	}
	return next, nil
}

func identityProfilesEqual(a, b domain.Identity) bool {
	if a.Email != b.Email || a.DisplayName != b.DisplayName || a.AvatarURL != b.AvatarURL || a.Gender != b.Gender {
		return false
	}
	switch {
	case a.BirthDate == nil && b.BirthDate == nil:
		return true
	case a.BirthDate == nil || b.BirthDate == nil:
		return false
	default:
		return a.BirthDate.Equal(*b.BirthDate)
	}
}
