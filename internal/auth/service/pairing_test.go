package service

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/store"
	"github.com/openfit/healthsync/internal/auth/ticket"
	"github.com/stretchr/testify/require"
)

func newPairingService(t *testing.T, st store.Store) *PairingService {
	t.Helper()
	return &PairingService{
		Tickets:   ticket.NewMemoryStore(),
		Store:     st,
		Sessions:  newTestSessions(),
		BaseURL:   "https://auth.example.com",
		ClaimPath: "/v1/qr/claim",
	}
}

func TestPairing_IssueAndClaim(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)
	svc := newPairingService(t, st)

	issued, err := svc.Issue(ctx, identity.Email)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Code)
	require.True(t, strings.HasPrefix(issued.PairingURL, "https://auth.example.com/v1/qr/claim?code="))

	u, err := url.Parse(issued.PairingURL)
	require.NoError(t, err)
	require.Equal(t, issued.Code, u.Query().Get("code"))

	claimed, pair, err := svc.Claim(ctx, issued.Code)
	require.NoError(t, err)
	require.Equal(t, identity.ID, claimed.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// the claiming device gets the health integration recorded
	integrations, err := st.Integrations().ListIntegrationsByIdentity(ctx, identity.ID)
	require.NoError(t, err)
	require.Len(t, integrations, 1)
	require.Equal(t, domain.IntegrationSourceHealth, integrations[0].Source)
}

func TestPairing_SecondClaimFails(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	identity := seedConnectedIdentity(t, st)
	svc := newPairingService(t, st)

	issued, err := svc.Issue(ctx, identity.Email)
	require.NoError(t, err)

	_, _, err = svc.Claim(ctx, issued.Code)
	require.NoError(t, err)

	_, _, err = svc.Claim(ctx, issued.Code)
	require.ErrorIs(t, err, ErrPairingCodeInvalid)
}

func TestPairing_UnknownCode(t *testing.T) {
	svc := newPairingService(t, newTestStore(t))

	_, _, err := svc.Claim(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrPairingCodeInvalid)
}

func TestPairing_TicketForUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	svc := newPairingService(t, newTestStore(t))

	issued, err := svc.Issue(ctx, "ghost@example.com")
	require.NoError(t, err)

	_, _, err = svc.Claim(ctx, issued.Code)
	require.ErrorIs(t, err, ErrIdentityNotFound)

	// the code is burned even though the lookup failed
	_, _, err = svc.Claim(ctx, issued.Code)
	require.ErrorIs(t, err, ErrPairingCodeInvalid)
}

func TestPairing_CodesAreUnique(t *testing.T) {
	ctx := context.Background()
	svc := newPairingService(t, newTestStore(t))

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		issued, err := svc.Issue(ctx, "alice@example.com")
		require.NoError(t, err)
		require.False(t, seen[issued.Code])
		seen[issued.Code] = true
	}
}
