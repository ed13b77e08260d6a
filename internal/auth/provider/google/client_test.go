package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntrospect(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr error
	}{
		{name: "live token", status: http.StatusOK, body: `{"expires_in": 3598}`, want: true},
		{name: "live token, quoted expiry", status: http.StatusOK, body: `{"expires_in": "3598"}`, want: true},
		{name: "zero remaining lifetime", status: http.StatusOK, body: `{"expires_in": 0}`, want: false},
		{name: "quoted zero remaining lifetime", status: http.StatusOK, body: `{"expires_in": "0"}`, want: false},
		{name: "no expiry field", status: http.StatusOK, body: `{"azp": "x"}`, want: false},
		{name: "garbage body", status: http.StatusOK, body: `not json`, want: false},
		{name: "expired token", status: http.StatusBadRequest, want: false},
		{name: "revoked token", status: http.StatusUnauthorized, want: false},
		{name: "google down", status: http.StatusServiceUnavailable, wantErr: ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "tok-123", r.URL.Query().Get("access_token"))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClientWithEndpoints(nil, nil, srv.Client(), srv.URL, "")

			ok, err := c.Introspect(context.Background(), "tok-123")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, ok)
		})
	}
}

func TestFetchEnrichment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, "/v1/people/me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"genders": [
				{"value": "unknown", "metadata": {"primary": false}},
				{"value": "female", "metadata": {"primary": true}}
			],
			"birthdays": [
				{"date": {"year": 1994, "month": 6, "day": 21}, "metadata": {"primary": true}}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithEndpoints(nil, nil, srv.Client(), "", srv.URL)

	got, err := c.FetchEnrichment(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Equal(t, "female", got.Gender)
	require.NotNil(t, got.BirthDate)
	require.Equal(t, time.Date(1994, 6, 21, 0, 0, 0, 0, time.UTC), *got.BirthDate)
}

func TestFetchEnrichment_PartialBirthdayGetsDefaults(t *testing.T) {
	// Google omits the year unless the birthday scope includes it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"birthdays": [{"date": {"month": 6, "day": 21}, "metadata": {"primary": true}}]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithEndpoints(nil, nil, srv.Client(), "", srv.URL)

	got, err := c.FetchEnrichment(context.Background(), "tok-123")
	require.NoError(t, err)
	require.NotNil(t, got.BirthDate)
	require.Equal(t, time.Date(2000, 6, 21, 0, 0, 0, 0, time.UTC), *got.BirthDate)
}

func TestFetchEnrichment_EmptyProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClientWithEndpoints(nil, nil, srv.Client(), "", srv.URL)

	got, err := c.FetchEnrichment(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Empty(t, got.Gender)
	require.Nil(t, got.BirthDate)
}

func TestFetchEnrichment_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClientWithEndpoints(nil, nil, srv.Client(), "", srv.URL)

	_, err := c.FetchEnrichment(context.Background(), "tok-123")
	require.ErrorIs(t, err, ErrUnavailable)
}
