package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultPeopleURL    = "https://people.googleapis.com"

	fitnessActivityScope = "https://www.googleapis.com/auth/fitness.activity.read"
	userBirthdayScope    = "https://www.googleapis.com/auth/user.birthday.read"
	userGenderScope      = "https://www.googleapis.com/auth/user.gender.read"
)

// TokenGrant is the outcome of a successful authorization-code exchange: the
// verified identity plus the provider token pair to persist.
type TokenGrant struct {
	Profile      Profile
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Enrichment holds the optional People API profile fields. Missing birth
// date components fall back to 2000-01-01 so downstream consumers always
// get a complete date when Google returns a partial one.
type Enrichment struct {
	Gender    string
	BirthDate *time.Time
}

// Client drives the full OAuth2 surface against Google. Endpoint URLs are
// fields so tests can point it at an httptest server.
type Client struct {
	oauth        *oauth2.Config
	verifier     *Verifier
	httpClient   *http.Client
	tokenInfoURL string
	peopleURL    string
}

// NewClient discovers Google's endpoints and prepares a client requesting
// identity plus fitness and profile-enrichment scopes.
func NewClient(ctx context.Context, clientID, clientSecret, redirectURL string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("init google oidc provider: %w", err)
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes: []string{
				oidc.ScopeOpenID,
				"profile",
				"email",
				fitnessActivityScope,
				userBirthdayScope,
				userGenderScope,
			},
		},
		verifier:     &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})},
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenInfoURL: defaultTokenInfoURL,
		peopleURL:    defaultPeopleURL,
	}, nil
}

// NewClientWithEndpoints wires every URL explicitly. Tests use it with
// httptest servers and a static-key verifier.
func NewClientWithEndpoints(cfg *oauth2.Config, verifier *Verifier, httpClient *http.Client, tokenInfoURL, peopleURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		oauth:        cfg,
		verifier:     verifier,
		httpClient:   httpClient,
		tokenInfoURL: tokenInfoURL,
		peopleURL:    peopleURL,
	}
}

// VerifyIDToken validates a bare ID-token assertion (the lightweight login
// path, no token pair involved).
func (c *Client) VerifyIDToken(ctx context.Context, rawIDToken string) (Profile, error) {
	return c.verifier.Verify(ctx, rawIDToken)
}

// ExchangeCode redeems an authorization code and verifies the bundled ID
// token. Classifies failures so callers can distinguish a bad code
// (ErrRejected) from Google being down (ErrUnavailable).
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, classifyOAuthErr(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: token response missing id_token", ErrMalformed)
	}

	profile, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}

	return &TokenGrant{
		Profile:      profile,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Refresh trades a refresh token for a fresh access token. An invalid_grant
// answer surfaces as ErrRejected, which callers treat as "user must
// re-consent".
func (c *Client) Refresh(ctx context.Context, refreshToken string) (accessToken string, expiresAt time.Time, err error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return "", time.Time{}, classifyOAuthErr(err)
	}
	return token.AccessToken, token.Expiry, nil
}

// Introspect asks Google's tokeninfo endpoint whether an access token is
// still live: a 200 whose expires_in is a positive number. A definitive
// "no" is (false, nil), not an error.
func (c *Client) Introspect(ctx context.Context, accessToken string) (bool, error) {
	u := c.tokenInfoURL + "?" + url.Values{"access_token": {accessToken}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to the body
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// tokeninfo answers 400 for expired or revoked tokens
		return false, nil
	default:
		return false, fmt.Errorf("%w: tokeninfo status %d", ErrUnavailable, resp.StatusCode)
	}

	// expires_in arrives as a number or a quoted string depending on the
	// tokeninfo version. Anything missing or non-positive means stale.
	var info struct {
		ExpiresIn json.RawMessage `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return false, nil
	}
	secs, err := strconv.Atoi(strings.Trim(string(info.ExpiresIn), `"`))
	return err == nil && secs > 0, nil
}

// FetchEnrichment pulls gender and birthday from the People API. Both
// fields are optional on Google's side; absent components get defaults.
func (c *Client) FetchEnrichment(ctx context.Context, accessToken string) (Enrichment, error) {
	u := c.peopleURL + "/v1/people/me?personFields=genders,birthdays"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Enrichment{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Enrichment{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return Enrichment{}, fmt.Errorf("%w: people status %d", ErrUnavailable, resp.StatusCode)
		}
		return Enrichment{}, fmt.Errorf("%w: people status %d", ErrRejected, resp.StatusCode)
	}

	var body struct {
		Genders []struct {
			Value    string `json:"value"`
			Metadata struct {
				Primary bool `json:"primary"`
			} `json:"metadata"`
		} `json:"genders"`
		Birthdays []struct {
			Date struct {
				Year  int `json:"year"`
				Month int `json:"month"`
				Day   int `json:"day"`
			} `json:"date"`
			Metadata struct {
				Primary bool `json:"primary"`
			} `json:"metadata"`
		} `json:"birthdays"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Enrichment{}, fmt.Errorf("%w: decode people response: %v", ErrMalformed, err)
	}

	var out Enrichment

	// Prefer the entry Google marks primary, else the first one.
	for i, g := range body.Genders {
		if g.Metadata.Primary || (out.Gender == "" && i == 0) {
			out.Gender = g.Value
		}
		if g.Metadata.Primary {
			break
		}
	}

	for i, b := range body.Birthdays {
		if !b.Metadata.Primary && i != 0 {
			continue
		}
		year, month, day := b.Date.Year, b.Date.Month, b.Date.Day
		if year == 0 {
			year = 2000
		}
		if month == 0 {
			month = 1
		}
		if day == 0 {
			day = 1
		}
		bd := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		out.BirthDate = &bd
		if b.Metadata.Primary {
			break
		}
	}

	return out, nil
}

// classifyOAuthErr maps oauth2 transport errors onto the provider error
// vocabulary: definitive 4xx answers are rejections, everything else is
// treated as the provider being unavailable.
func classifyOAuthErr(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.Response != nil && rerr.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
