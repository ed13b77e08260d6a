package domain

import "time"

// TokenPair is what the login and refresh operations return: a session
// access token and, for full logins, a refresh token.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	TokenType    string        `json:"token_type"` // always "bearer"
	ExpiresIn    time.Duration `json:"expires_in"` // seconds until expiry
}

// ProviderTokens models the stored Google token pair for one identity.
type ProviderTokens struct {
	ID           string
	IdentityID   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // upstream-reported expiry, advisory only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
