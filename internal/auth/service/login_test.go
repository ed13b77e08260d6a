package service

import (
	"context"
	"testing"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/provider/google"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func testProfile() google.Profile {
	return google.Profile{
		SubjectID:   "google-sub-1",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		AvatarURL:   "https://img.example.com/a.png",
	}
}

func TestLoginWithAssertion_CreatesIdentity(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	provider := &fakeProvider{
		verifyFn: func(string) (google.Profile, error) { return testProfile(), nil },
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	pair, err := svc.LoginWithAssertion(ctx, "raw-id-token")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	identity, err := st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", identity.Email)
	require.Equal(t, "Alice", identity.DisplayName)
	require.False(t, identity.NeedsReauth)
}

func TestLoginWithAssertion_SecondLoginUpdatesProfile(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	profile := testProfile()
	provider := &fakeProvider{
		verifyFn: func(string) (google.Profile, error) { return profile, nil },
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	_, err := svc.LoginWithAssertion(ctx, "tok")
	require.NoError(t, err)

	first, err := st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)

	profile.DisplayName = "Alice Renamed"
	profile.Email = "alice.renamed@example.com"

	_, err = svc.LoginWithAssertion(ctx, "tok")
	require.NoError(t, err)

	second, err := st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "relogin must not create a second row")
	require.Equal(t, "Alice Renamed", second.DisplayName)
	require.Equal(t, "alice.renamed@example.com", second.Email)
}

func TestLoginWithAssertion_EmailOwnedByOtherSubject(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	profile := testProfile()
	provider := &fakeProvider{
		verifyFn: func(string) (google.Profile, error) { return profile, nil },
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	_, err := svc.LoginWithAssertion(ctx, "tok")
	require.NoError(t, err)

	// a different subject asserting the same email must not shadow the
	// first identity
	profile.SubjectID = "google-sub-2"
	_, err = svc.LoginWithAssertion(ctx, "tok-2")
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	identity, err := st.Identities().GetIdentityByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "google-sub-1", identity.SubjectID)

	_, err = st.Identities().GetIdentityBySubjectID(ctx, "google-sub-2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoginWithAssertion_BadAssertion(t *testing.T) {
	st := newTestStore(t)
	svc := &LoginService{Provider: &fakeProvider{}, Store: st, Sessions: newTestSessions()}

	_, err := svc.LoginWithAssertion(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	ids, listErr := st.Identities().ListIdentities(context.Background())
	require.NoError(t, listErr)
	require.Empty(t, ids, "failed verification must not create identities")
}

func TestLoginWithAssertion_ProviderDown(t *testing.T) {
	provider := &fakeProvider{
		verifyFn: func(string) (google.Profile, error) { return google.Profile{}, google.ErrUnavailable },
	}
	svc := &LoginService{Provider: provider, Store: newTestStore(t), Sessions: newTestSessions()}

	_, err := svc.LoginWithAssertion(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestLoginWithCode_StoresTokensAndIntegration(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	birth := time.Date(1994, 6, 21, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		exchangeFn: func(code string) (*google.TokenGrant, error) {
			require.Equal(t, "auth-code-1", code)
			return &google.TokenGrant{
				Profile:      testProfile(),
				AccessToken:  "g-access-1",
				RefreshToken: "g-refresh-1",
				ExpiresAt:    time.Now().Add(time.Hour),
			}, nil
		},
		enrichFn: func(token string) (google.Enrichment, error) {
			require.Equal(t, "g-access-1", token)
			return google.Enrichment{Gender: "female", BirthDate: &birth}, nil
		},
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	pair, err := svc.LoginWithCode(ctx, "auth-code-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	identity, err := st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, "female", identity.Gender)
	require.NotNil(t, identity.BirthDate)

	tokens, err := st.ProviderTokens().GetProviderTokensByIdentity(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, "g-access-1", tokens.AccessToken)
	require.Equal(t, "g-refresh-1", tokens.RefreshToken)

	integrations, err := st.Integrations().ListIntegrationsByIdentity(ctx, identity.ID)
	require.NoError(t, err)
	require.Len(t, integrations, 1)
	require.Equal(t, domain.IntegrationSourceFitness, integrations[0].Source)
}

func TestLoginWithCode_EnrichmentFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	provider := &fakeProvider{
		exchangeFn: func(string) (*google.TokenGrant, error) {
			return &google.TokenGrant{Profile: testProfile(), AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		enrichFn: func(string) (google.Enrichment, error) {
			return google.Enrichment{}, google.ErrUnavailable
		},
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	_, err := svc.LoginWithCode(ctx, "code")
	require.NoError(t, err)

	identity, err := st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)
	require.Empty(t, identity.Gender)
}

func TestLoginWithCode_RepeatLoginIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	provider := &fakeProvider{
		exchangeFn: func(string) (*google.TokenGrant, error) {
			return &google.TokenGrant{Profile: testProfile(), AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	_, err := svc.LoginWithCode(ctx, "code-1")
	require.NoError(t, err)
	_, err = svc.LoginWithCode(ctx, "code-2")
	require.NoError(t, err)

	ids, err := st.Identities().ListIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	integrations, err := st.Integrations().ListIntegrationsByIdentity(ctx, ids[0].ID)
	require.NoError(t, err)
	require.Len(t, integrations, 1, "integration record must stay unique per source")
}

func TestLoginWithCode_ClearsReauthFlag(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	provider := &fakeProvider{
		exchangeFn: func(string) (*google.TokenGrant, error) {
			return &google.TokenGrant{Profile: testProfile(), AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	svc := &LoginService{Provider: provider, Store: st, Sessions: newTestSessions()}

	_, err := svc.LoginWithCode(ctx, "code-1")
	require.NoError(t, err)

	identity, err := st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)
	require.NoError(t, st.Identities().MarkNeedsReauth(ctx, identity.ID, true))

	_, err = svc.LoginWithCode(ctx, "code-2")
	require.NoError(t, err)

	identity, err = st.Identities().GetIdentityBySubjectID(ctx, "google-sub-1")
	require.NoError(t, err)
	require.False(t, identity.NeedsReauth, "a fresh code exchange must clear the reauth flag")
}

func TestLoginWithCode_ExchangeRejected(t *testing.T) {
	provider := &fakeProvider{
		exchangeFn: func(string) (*google.TokenGrant, error) { return nil, google.ErrRejected },
	}
	svc := &LoginService{Provider: provider, Store: newTestStore(t), Sessions: newTestSessions()}

	_, err := svc.LoginWithCode(context.Background(), "bad-code")
	require.ErrorIs(t, err, ErrCodeExchangeRejected)
}

func TestLoginWithCode_MalformedResponse(t *testing.T) {
	provider := &fakeProvider{
		exchangeFn: func(string) (*google.TokenGrant, error) { return nil, google.ErrMalformed },
	}
	svc := &LoginService{Provider: provider, Store: newTestStore(t), Sessions: newTestSessions()}

	_, err := svc.LoginWithCode(context.Background(), "code")
	require.ErrorIs(t, err, ErrMalformedUpstream)
}

func TestUpsertIdentity_InsertRaceFallsBackToUpdate(t *testing.T) {
	// Simulates losing the first-login race: the row appears between our
	// lookup and the insert, so CreateIdentity hits the unique constraint.
	ctx := context.Background()
	st := newTestStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		racing := domain.Identity{
			ID:        "winner-id",
			SubjectID: "google-sub-1",
			Email:     "old@example.com",
		}
		if err := tx.Identities().CreateIdentity(ctx, racing); err != nil {
			return err
		}

		// Duplicate insert must surface as ErrAlreadyExists, the signal
		// upsertIdentity converges on.
		dup := racing
		dup.ID = "loser-id"
		require.ErrorIs(t, tx.Identities().CreateIdentity(ctx, dup), store.ErrAlreadyExists)

		got, err := upsertIdentity(ctx, tx, testProfile(), google.Enrichment{})
		require.NoError(t, err)
		require.Equal(t, "winner-id", got.ID)
		require.Equal(t, "alice@example.com", got.Email)
		return nil
	})
	require.NoError(t, err)

	ids, err := st.Identities().ListIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}
