package ticket

import (
	"context"
	"sync"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
)

// MemoryStore is an in-process Store for tests and single-instance dev
// runs. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now is swappable in tests
	now func() time.Time
}

type memoryEntry struct {
	email     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, t domain.PairingTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[t.Code] = memoryEntry{email: t.Email, expiresAt: t.ExpiresAt}
	return nil
}

func (s *MemoryStore) Claim(ctx context.Context, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[code]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, code)
	if s.now().After(e.expiresAt) {
		return "", ErrNotFound
	}
	return e.email, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
