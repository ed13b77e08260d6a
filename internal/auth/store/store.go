package store

import (
	"context"
	"errors"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and a Tx wrapper for multi-step operations that must
// land atomically (e.g. login upsert plus integration record).
type Store interface {
	Identities() Identities
	ProviderTokens() ProviderTokens
	Integrations() Integrations

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	// GetIdentityByID returns an identity by id.
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityBySubjectID looks up by the provider's stable subject id.
	// This is the lookup every login starts with.
	GetIdentityBySubjectID(ctx context.Context, subjectID string) (domain.Identity, error)

	// GetIdentityByEmail serves the internal by-email endpoints.
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)

	// CreateIdentity inserts a new identity (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the subject id or email is already
	// taken, so a racing login can fall back to an update.
	CreateIdentity(ctx context.Context, id domain.Identity) error

	// UpdateProfile overwrites the provider-asserted profile fields and
	// bumps updated_at. Keyed by subject id, not row id, so a login that
	// lost the insert race can update the winner's row. Returns
	// ErrAlreadyExists when the new email belongs to another identity.
	UpdateProfile(ctx context.Context, subjectID string, id domain.Identity) error

	// MarkNeedsReauth flips the reauth flag. Set when a provider refresh
	// is hard-rejected, cleared by a fresh code-exchange login.
	MarkNeedsReauth(ctx context.Context, identityID string, needsReauth bool) error

	// ListIdentities returns all identities ordered by creation date.
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
}

type ProviderTokens interface {
	// GetProviderTokensByIdentity returns the stored Google token pair.
	GetProviderTokensByIdentity(ctx context.Context, identityID string) (domain.ProviderTokens, error)

	// UpsertProviderTokens stores or replaces the token pair for an
	// identity. One row per identity. Empty AccessToken or RefreshToken
	// fields keep the stored value, so the two halves can be written
	// independently.
	UpsertProviderTokens(ctx context.Context, t domain.ProviderTokens) error

	// UpdateAccessToken replaces only the access token and expiry after a
	// successful refresh.
	UpdateAccessToken(ctx context.Context, identityID, accessToken string, expiresAt time.Time) error
}

type Integrations interface {
	// RecordIntegration inserts an integration record if it does not exist
	// yet. Recording the same (identity, source) twice is a no-op.
	RecordIntegration(ctx context.Context, in domain.Integration) error

	// ListIntegrationsByIdentity returns the integrations an identity has
	// connected, oldest first.
	ListIntegrationsByIdentity(ctx context.Context, identityID string) ([]domain.Integration, error)
}
