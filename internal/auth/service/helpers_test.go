package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/openfit/healthsync/internal/auth/provider/google"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/internal/auth/store/drivers/sqlite"
	"github.com/openfit/healthsync/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestSessions() *SessionService {
	hs := jwtx.NewHS256([]byte("test-secret"), "healthsync-test")
	return &SessionService{
		Signer:     hs,
		Verifier:   hs,
		Issuer:     "healthsync-test",
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
}

// fakeProvider is a scriptable IdentityProvider. Zero-value methods fail, so
// each test wires only the calls it expects.
type fakeProvider struct {
	mu sync.Mutex

	verifyFn     func(raw string) (google.Profile, error)
	exchangeFn   func(code string) (*google.TokenGrant, error)
	enrichFn     func(accessToken string) (google.Enrichment, error)
	introspectFn func(accessToken string) (bool, error)
	refreshFn    func(refreshToken string) (string, time.Time, error)

	introspectCalls int
	refreshCalls    int
}

func (f *fakeProvider) VerifyIDToken(_ context.Context, raw string) (google.Profile, error) {
	if f.verifyFn == nil {
		return google.Profile{}, google.ErrRejected
	}
	return f.verifyFn(raw)
}

func (f *fakeProvider) ExchangeCode(_ context.Context, code string) (*google.TokenGrant, error) {
	if f.exchangeFn == nil {
		return nil, google.ErrRejected
	}
	return f.exchangeFn(code)
}

func (f *fakeProvider) FetchEnrichment(_ context.Context, accessToken string) (google.Enrichment, error) {
	if f.enrichFn == nil {
		return google.Enrichment{}, nil
	}
	return f.enrichFn(accessToken)
}

func (f *fakeProvider) Introspect(_ context.Context, accessToken string) (bool, error) {
	f.mu.Lock()
	f.introspectCalls++
	f.mu.Unlock()
	if f.introspectFn == nil {
		return false, nil
	}
	return f.introspectFn(accessToken)
}

func (f *fakeProvider) Refresh(_ context.Context, refreshToken string) (string, time.Time, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	if f.refreshFn == nil {
		return "", time.Time{}, google.ErrRejected
	}
	return f.refreshFn(refreshToken)
}

func (f *fakeProvider) refreshCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}
