// Package authsdk provides the wire types of the healthsync auth service and
// a small client for its internal, trusted-network endpoints.
package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the auth service's internal endpoints. These endpoints are
// unauthenticated and must only be reachable from inside the deployment.
type Client struct {
	// BaseURL is the root of the auth service, e.g. "http://auth:8080"
	BaseURL string

	// HTTPClient is used for requests. Defaults to a client with a 10s
	// timeout if nil.
	HTTPClient *http.Client
}

// NewClient creates an internal client for the auth service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// doGet performs a GET against path with the given query and decodes the JSON
// response into out. Non-2xx responses are returned as *APIError.
func (c *Client) doGet(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = ErrorCodeServerError
			apiErr.Description = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FreshProviderToken returns a provider access token for the identity with
// the given email, refreshing it upstream first if it is no longer valid.
func (c *Client) FreshProviderToken(ctx context.Context, email string) (*ProviderTokenResponse, error) {
	q := url.Values{"email": {email}}
	var out ProviderTokenResponse
	if err := c.doGet(ctx, "/v1/internal/users/provider-token", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionToken mints a session token pair for the identity with the given
// email without any credential check. Internal use only.
func (c *Client) SessionToken(ctx context.Context, email string) (*TokenResponse, error) {
	q := url.Values{"email": {email}}
	var out TokenResponse
	if err := c.doGet(ctx, "/v1/internal/users/session-token", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListIdentities returns every identity known to the auth service, with
// convenience links to the per-identity internal endpoints.
func (c *Client) ListIdentities(ctx context.Context) (*DirectoryResponse, error) {
	var out DirectoryResponse
	if err := c.doGet(ctx, "/v1/internal/users", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
