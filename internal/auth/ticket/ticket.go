// Package ticket stores one-time pairing codes. Tickets are deliberately
// kept out of the relational store: they are short-lived, self-expiring and
// must be claimable exactly once even across service replicas.
package ticket

import (
	"context"
	"errors"

	"github.com/openfit/healthsync/internal/auth/domain"
)

// ErrNotFound covers unknown, expired and already-claimed codes alike.
// Callers must not be able to tell these cases apart.
var ErrNotFound = errors.New("ticket: not found")

// Store holds pairing tickets keyed by their code.
type Store interface {
	// Put stores a ticket that self-expires at its ExpiresAt.
	Put(ctx context.Context, t domain.PairingTicket) error

	// Claim atomically fetches and deletes the ticket, returning its
	// bound email. At most one concurrent caller succeeds; all others
	// get ErrNotFound.
	Claim(ctx context.Context, code string) (email string, err error)

	// Ping verifies the backing cache is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
