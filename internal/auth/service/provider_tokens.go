package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/provider/google"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

// ProviderTokenService guards the per-identity Google token pair and hands
// out access tokens that are guaranteed live at the moment of return.
type ProviderTokenService struct {
	Provider IdentityProvider
	Store    store.Store

	// group collapses concurrent refreshes of the same identity into one
	// upstream call. Google rotates refresh tokens, so a duplicate refresh
	// grant can strand the losing caller.
	group singleflight.Group
}

type freshToken struct {
	accessToken string
	expiresAt   time.Time
}

// FreshAccessToken returns the stored access token if the provider still
// considers it live, otherwise refreshes it, persists the replacement and
// returns that. Identities flagged NeedsReauth fail immediately; only a
// fresh code-exchange login clears the flag.
func (s *ProviderTokenService) FreshAccessToken(ctx context.Context, identity domain.Identity) (string, time.Time, error) {
	l := slogx.FromContext(ctx)

	if identity.NeedsReauth {
		return "", time.Time{}, ErrReauthRequired
	}

	tokens, err := s.Store.ProviderTokens().GetProviderTokensByIdentity(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", time.Time{}, ErrTokensNotConnected
		}
		return "", time.Time{}, err
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return "", time.Time{}, ErrTokensNotConnected
	}

	// Fresh readers bypass the refresh lock entirely.
	live, err := s.Provider.Introspect(ctx, tokens.AccessToken)
	if err != nil {
		return "", time.Time{}, ErrUpstreamUnavailable
	}
	if live {
		return tokens.AccessToken, tokens.ExpiresAt, nil
	}

	v, err, shared := s.group.Do(identity.ID, func() (any, error) {
		return s.refresh(ctx, identity, tokens.RefreshToken)
	})
	if err != nil {
		return "", time.Time{}, err
	}
	if shared {
		l.Debug("provider token refresh coalesced", slog.String("identity_id", identity.ID))
	}

	ft := v.(freshToken)
	return ft.accessToken, ft.expiresAt, nil
}

// refresh runs inside the single-flight group: exactly one caller per
// identity executes it, everyone else shares the result.
func (s *ProviderTokenService) refresh(ctx context.Context, identity domain.Identity, refreshToken string) (freshToken, error) {
	l := slogx.FromContext(ctx)

	accessToken, expiresAt, err := s.Provider.Refresh(ctx, refreshToken)
	switch {
	case err == nil:
	case errors.Is(err, google.ErrRejected):
		// Dead refresh token. Flag the identity; nothing short of a new
		// code-exchange login will recover it.
		l.Info("provider refresh token rejected", slog.String("identity_id", identity.ID))
		if markErr := s.Store.Identities().MarkNeedsReauth(ctx, identity.ID, true); markErr != nil {
			l.Error("failed to flag identity for reauth", slog.String("identity_id", identity.ID), slog.String("error", markErr.Error()))
		}
		return freshToken{}, ErrReauthRequired
	default:
		return freshToken{}, ErrUpstreamUnavailable
	}

	if accessToken == "" {
		l.Error("provider refresh response missing access token", slog.String("identity_id", identity.ID))
		return freshToken{}, ErrMalformedUpstream
	}

	if err := s.Store.ProviderTokens().UpdateAccessToken(ctx, identity.ID, accessToken, expiresAt); err != nil {
		return freshToken{}, err
	}

	l.Info("provider access token refreshed", slog.String("identity_id", identity.ID))
	return freshToken{accessToken: accessToken, expiresAt: expiresAt}, nil
}
