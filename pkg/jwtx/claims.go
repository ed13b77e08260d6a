package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. These are intentionally long-lived: session tokens in
// this system back device pairings and background collectors, not browser
// sessions. Override per-service via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 8 * 24 * time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// SessionClaims are the identity claims embedded in the platform's own
// session tokens. Access and refresh tokens carry the same claim set and
// differ only in TTL. The JSON keys match the wire payload consumed by the
// other platform services, so changes here must stay additive.
type SessionClaims struct {
	jwt.RegisteredClaims

	// SubjectID is the stable provider-issued subject identifier.
	SubjectID string `json:"google_sub"`

	// Email of the authenticated user.
	Email string `json:"email"`

	// DisplayName as supplied by the identity provider.
	DisplayName string `json:"name,omitempty"`

	// AvatarURL of the user's profile picture.
	AvatarURL string `json:"picture,omitempty"`

	// Synthetic marks accounts created for testing; internal listings can
	// filter on it.
	Synthetic bool `json:"test_user,omitempty"`
}

// NewSessionClaims builds a claim set expiring at now + ttl.
func NewSessionClaims(
	subjectID, email, displayName, avatarURL string,
	synthetic bool,
	issuer string,
	ttl time.Duration,
	now time.Time,
) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SubjectID:   subjectID,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Synthetic:   synthetic,
	}
}

// ExpiresIn reports the remaining lifetime of the claims relative to now.
func (c SessionClaims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
