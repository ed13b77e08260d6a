package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/pkg/jwtx"
	"github.com/openfit/healthsync/pkg/slogx"
)

// SessionService mints and validates the platform's own session tokens.
// Access and refresh tokens carry the same identity claims and differ only
// in TTL.
type SessionService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *SessionService) claimsFor(id domain.Identity, ttl time.Duration, now time.Time) jwtx.SessionClaims {
	return jwtx.NewSessionClaims(
		id.SubjectID, id.Email, id.DisplayName, id.AvatarURL,
		id.Synthetic, s.Issuer, ttl, now,
	)
}

// IssuePair mints a fresh access/refresh token pair for an identity.
func (s *SessionService) IssuePair(id domain.Identity) (*domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Signer.Sign(s.claimsFor(id, s.AccessTTL, now))
	if err != nil {
		return nil, err
	}
	refresh, err := s.Signer.Sign(s.claimsFor(id, s.RefreshTTL, now))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.AccessTTL / time.Second,
	}, nil
}

// Refresh validates a refresh token and mints a new access token carrying
// the same identity claims. The refresh token itself is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Verifier.Verify(refreshToken)
	if err != nil {
		// the distinction matters for the log line only
		if errors.Is(err, jwtx.ErrExpired) {
			l.Info("refresh token expired")
		} else {
			l.Info("refresh token rejected", slog.String("reason", err.Error()))
		}
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	access, err := s.Signer.Sign(jwtx.NewSessionClaims(
		claims.SubjectID, claims.Email, claims.DisplayName, claims.AvatarURL,
		claims.Synthetic, s.Issuer, s.AccessTTL, now,
	))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   s.AccessTTL / time.Second,
	}, nil
}

// VerifyAccess validates an access token and returns its claims. All
// verification failures collapse into ErrInvalidCredentials.
func (s *SessionService) VerifyAccess(ctx context.Context, token string) (jwtx.SessionClaims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Info("access token rejected", slog.String("reason", err.Error()))
		return jwtx.SessionClaims{}, ErrInvalidCredentials
	}
	return claims, nil
}
