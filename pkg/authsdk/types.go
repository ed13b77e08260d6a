package authsdk

import "time"

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the HS256-signed session token
	AccessToken string `json:"access_token"`

	// RefreshToken is the HS256-signed refresh token. Empty on refresh
	// responses, which rotate only the access token.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expires_in"`
}

// PairingClaimResponse is the payload delivered to the device that claims a
// QR pairing code. PostHere and RefreshTokenURL tell a freshly paired device
// where to send authenticated requests without it knowing the deployment
// topology in advance.
type PairingClaimResponse struct {
	// PostHere is the base URL for authenticated API calls
	PostHere string `json:"post_here"`

	// AccessToken is a full session token for the paired identity
	AccessToken string `json:"access_token"`

	// RefreshToken accompanies the access token
	RefreshToken string `json:"refresh_token"`

	// RefreshTokenURL is the absolute URL of the refresh endpoint
	RefreshTokenURL string `json:"refresh_token_url"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`

	// Email identifies the account the device just paired with
	Email string `json:"email"`
}

// PairingCodeResponse is returned when an authenticated user requests a new
// pairing code.
type PairingCodeResponse struct {
	// Code is the one-time pairing code to render as a QR
	Code string `json:"code"`

	// PairingURL embeds the code; this is what the QR image encodes
	PairingURL string `json:"pairing_url"`

	// ExpiresIn is the code lifetime in seconds
	ExpiresIn int64 `json:"expires_in"`
}

// MeResponse describes the authenticated user's own identity.
type MeResponse struct {
	// Email of the user
	Email string `json:"email"`

	// DisplayName as asserted by the identity provider
	DisplayName string `json:"display_name,omitempty"`

	// AvatarURL of the profile picture
	AvatarURL string `json:"avatar_url,omitempty"`

	// Gender from profile enrichment, if connected
	Gender string `json:"gender,omitempty"`

	// BirthDate from profile enrichment, if connected
	BirthDate string `json:"birth_date,omitempty"`

	// Synthetic marks accounts created for testing
	Synthetic bool `json:"test_user"`

	// NeedsProviderReauth is true when the fitness connection must be
	// re-authorized through a full login
	NeedsProviderReauth bool `json:"needs_provider_reauth"`
}

// ProviderTokenResponse carries a guaranteed-fresh provider access token to
// an internal caller.
type ProviderTokenResponse struct {
	// AccessToken is the provider (Google Fitness) access token
	AccessToken string `json:"access_token"`

	// ExpiresAt is when the token stops being usable
	ExpiresAt time.Time `json:"expires_at"`
}

// IntegrationsResponse lists a user's connected integrations.
type IntegrationsResponse struct {
	Integrations []IntegrationResponse `json:"integrations"`
}

// IntegrationResponse describes one connected integration for a user.
type IntegrationResponse struct {
	// Source names the integration, e.g. "google_fitness_api"
	Source string `json:"source"`

	// ConnectedAt is when the integration record was first created
	ConnectedAt time.Time `json:"connected_at"`
}

// DirectoryIdentity is one entry in the internal identity listing. The URL
// fields are convenience links to the per-identity internal endpoints.
type DirectoryIdentity struct {
	// Email is the identity's provider-asserted email
	Email string `json:"email"`

	// DisplayName is the human-readable name, if known
	DisplayName string `json:"display_name,omitempty"`

	// Synthetic marks accounts created for testing
	Synthetic bool `json:"test_user"`

	// ProviderTokenURL fetches a fresh provider token for this identity
	ProviderTokenURL string `json:"provider_token_url"`

	// SessionTokenURL mints a session token for this identity
	SessionTokenURL string `json:"session_token_url"`
}

// DirectoryResponse is the internal identity listing.
type DirectoryResponse struct {
	Identities []DirectoryIdentity `json:"identities"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status"`

	// Uptime of the process, human readable
	Uptime string `json:"uptime"`

	// Version is the build version
	Version string `json:"version"`

	// Checks reports each dependency individually (readyz only)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds per-dependency readiness results.
type HealthChecks struct {
	// Database is "ok" or the failure message
	Database string `json:"database"`

	// Cache is "ok" or the failure message
	Cache string `json:"cache"`
}
