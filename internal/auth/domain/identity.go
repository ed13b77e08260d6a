package domain

import "time"

// Identity is a user account keyed by the provider's stable subject
// identifier. Profile fields are overwritten on every successful login with
// whatever the provider currently asserts.
type Identity struct {
	ID          string
	SubjectID   string // Google "sub" claim, stable across email changes
	Email       string
	DisplayName string
	AvatarURL   string
	Gender      string
	BirthDate   *time.Time // nullable, provider may withhold it
	Synthetic   bool       // account created for testing
	NeedsReauth bool       // provider refresh token is dead, full login required
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Integration is an idempotent record that a user has connected an external
// data source. Uniqueness is (IdentityID, Source).
type Integration struct {
	ID         string
	IdentityID string
	Source     string // e.g. IntegrationSourceFitness
	CreatedAt  time.Time
}

// Integration sources recognised by the subsystem.
const (
	// IntegrationSourceFitness is recorded when a user logs in through the
	// authorization-code flow, which grants fitness scopes.
	IntegrationSourceFitness = "google_fitness_api"

	// IntegrationSourceHealth is recorded when a device claims a QR pairing
	// code.
	IntegrationSourceHealth = "google_health_api"
)
