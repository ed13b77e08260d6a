package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/provider/google"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func seedConnectedIdentity(t *testing.T, st store.Store) domain.Identity {
	t.Helper()
	ctx := context.Background()

	identity := domain.Identity{
		ID:        "id-1",
		SubjectID: "google-sub-1",
		Email:     "alice@example.com",
	}
	require.NoError(t, st.Identities().CreateIdentity(ctx, identity))
	require.NoError(t, st.ProviderTokens().UpsertProviderTokens(ctx, domain.ProviderTokens{
		ID:           "pt-1",
		IdentityID:   identity.ID,
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	return identity
}

func TestFreshAccessToken_LiveTokenSkipsRefresh(t *testing.T) {
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)

	provider := &fakeProvider{
		introspectFn: func(token string) (bool, error) {
			require.Equal(t, "stored-access", token)
			return true, nil
		},
	}
	svc := &ProviderTokenService{Provider: provider, Store: st}

	token, _, err := svc.FreshAccessToken(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, "stored-access", token)
	require.Zero(t, provider.refreshCallCount(), "a live token must not trigger a refresh grant")
}

func TestFreshAccessToken_StaleTokenRefreshesAndPersists(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)

	wantExpiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	provider := &fakeProvider{
		introspectFn: func(string) (bool, error) { return false, nil },
		refreshFn: func(refreshToken string) (string, time.Time, error) {
			require.Equal(t, "stored-refresh", refreshToken)
			return "new-access", wantExpiry, nil
		},
	}
	svc := &ProviderTokenService{Provider: provider, Store: st}

	token, _, err := svc.FreshAccessToken(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, "new-access", token)

	stored, err := st.ProviderTokens().GetProviderTokensByIdentity(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, "new-access", stored.AccessToken)
	require.Equal(t, "stored-refresh", stored.RefreshToken, "refresh token must survive an access-only update")
}

func TestFreshAccessToken_RefreshRejectedFlagsReauth(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)

	provider := &fakeProvider{
		introspectFn: func(string) (bool, error) { return false, nil },
		refreshFn: func(string) (string, time.Time, error) {
			return "", time.Time{}, google.ErrRejected
		},
	}
	svc := &ProviderTokenService{Provider: provider, Store: st}

	_, _, err := svc.FreshAccessToken(ctx, identity)
	require.ErrorIs(t, err, ErrReauthRequired)

	flagged, err := st.Identities().GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	require.True(t, flagged.NeedsReauth, "a hard refresh rejection must flag the identity")

	// flagged identities short-circuit without touching the provider
	before := provider.refreshCallCount()
	_, _, err = svc.FreshAccessToken(ctx, flagged)
	require.ErrorIs(t, err, ErrReauthRequired)
	require.Equal(t, before, provider.refreshCallCount())
}

func TestFreshAccessToken_IntrospectionOutage(t *testing.T) {
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)

	provider := &fakeProvider{
		introspectFn: func(string) (bool, error) { return false, google.ErrUnavailable },
	}
	svc := &ProviderTokenService{Provider: provider, Store: st}

	_, _, err := svc.FreshAccessToken(context.Background(), identity)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFreshAccessToken_MalformedRefreshResponse(t *testing.T) {
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)

	provider := &fakeProvider{
		introspectFn: func(string) (bool, error) { return false, nil },
		refreshFn: func(string) (string, time.Time, error) {
			// refresh "succeeded" but the payload carried no access token
			return "", time.Now().Add(time.Hour), nil
		},
	}
	svc := &ProviderTokenService{Provider: provider, Store: st}

	_, _, err := svc.FreshAccessToken(context.Background(), identity)
	require.ErrorIs(t, err, ErrMalformedUpstream)
}

func TestFreshAccessToken_NeverConnected(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	identity := domain.Identity{ID: "id-2", SubjectID: "google-sub-2", Email: "bob@example.com"}
	require.NoError(t, st.Identities().CreateIdentity(ctx, identity))

	svc := &ProviderTokenService{Provider: &fakeProvider{}, Store: st}

	_, _, err := svc.FreshAccessToken(ctx, identity)
	require.ErrorIs(t, err, ErrTokensNotConnected)
}

func TestFreshAccessToken_ConcurrentRefreshCoalesces(t *testing.T) {
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)

	release := make(chan struct{})
	provider := &fakeProvider{
		introspectFn: func(string) (bool, error) { return false, nil },
		refreshFn: func(string) (string, time.Time, error) {
			<-release // hold every caller inside one in-flight refresh
			return "coalesced-access", time.Now().Add(time.Hour), nil
		},
	}
	svc := &ProviderTokenService{Provider: provider, Store: st}

	const callers = 8

	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = svc.FreshAccessToken(context.Background(), identity)
		}(i)
	}

	// let every goroutine reach the introspection miss before releasing
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "coalesced-access", results[i])
	}
	require.Equal(t, 1, provider.refreshCallCount(), "concurrent callers must share one refresh grant")
}
