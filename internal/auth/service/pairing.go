package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/internal/auth/ticket"
	"github.com/openfit/healthsync/pkg/cryptox"
	"github.com/openfit/healthsync/pkg/idx"
	"github.com/openfit/healthsync/pkg/slogx"
)

// PairingService runs the QR handshake: a logged-in user mints a one-time
// code, a second device claims it and walks away with a full session.
type PairingService struct {
	Tickets  ticket.Store
	Store    store.Store
	Sessions *SessionService

	// BaseURL is the public root of this service, embedded in pairing and
	// follow-up URLs handed to the claiming device.
	BaseURL string

	// ClaimPath is the path the claiming device hits with the code.
	ClaimPath string

	// TTL bounds how long an unclaimed code stays valid.
	TTL time.Duration
}

// Issued describes a freshly minted pairing code.
type Issued struct {
	Code       string
	PairingURL string
	ExpiresIn  time.Duration
}

func (s *PairingService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.DefaultPairingTTL
}

// Issue mints an unguessable one-time code bound to the given email and
// returns the URL to render as a QR image.
func (s *PairingService) Issue(ctx context.Context, email string) (Issued, error) {
	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return Issued{}, err
	}

	if err := s.Tickets.Put(ctx, domain.PairingTicket{
		Code:      code,
		Email:     email,
		ExpiresAt: time.Now().Add(s.ttl()),
	}); err != nil {
		return Issued{}, err
	}

	slogx.FromContext(ctx).Info("pairing code issued")

	return Issued{
		Code:       code,
		PairingURL: s.BaseURL + s.ClaimPath + "?code=" + url.QueryEscape(code),
		ExpiresIn:  s.ttl(),
	}, nil
}

// Claim consumes a pairing code. The cache-side claim is atomic, so of two
// concurrent claimants exactly one gets the session; the other sees
// ErrPairingCodeInvalid, same as an expired or never-issued code. A
// successful claim also records the health integration for the identity.
func (s *PairingService) Claim(ctx context.Context, code string) (domain.Identity, *domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	email, err := s.Tickets.Claim(ctx, code)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			return domain.Identity{}, nil, ErrPairingCodeInvalid
		}
		return domain.Identity{}, nil, err
	}

	identity, err := s.Store.Identities().GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// ticket pointed at an email with no backing row; the code is
			// burned either way
			l.Warn("pairing ticket mapped to unknown identity")
			return domain.Identity{}, nil, ErrIdentityNotFound
		}
		return domain.Identity{}, nil, err
	}

	if err := s.Store.Integrations().RecordIntegration(ctx, domain.Integration{
		ID:         idx.New().String(),
		IdentityID: identity.ID,
		Source:     domain.IntegrationSourceHealth,
	}); err != nil {
		return domain.Identity{}, nil, err
	}

	pair, err := s.Sessions.IssuePair(identity)
	if err != nil {
		return domain.Identity{}, nil, err
	}

	l.Info("pairing code claimed", slog.String("identity_id", identity.ID))
	return identity, pair, nil
}
