package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/pkg/authsdk"
	"github.com/openfit/healthsync/pkg/httpx"
)

// InternalHandler serves the trusted-network endpoints other platform
// services call by email. These carry no authentication; the deployment
// must keep them off the public listener.
type InternalHandler struct {
	Directory      *service.DirectoryService
	ProviderTokens *service.ProviderTokenService
	Sessions       *service.SessionService

	// BaseURL prefixes the convenience URLs in the identity listing.
	BaseURL string
}

// HandleList serves GET /v1/internal/users. The test_users and real_users
// query flags select which account kinds to return; real accounts only by
// default, and asking for neither is rejected.
func (h *InternalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	includeSynthetic := queryFlag(r, "test_users", false)
	includeReal := queryFlag(r, "real_users", true)

	identities, err := h.Directory.List(r.Context(), includeReal, includeSynthetic)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.DirectoryResponse{
		Identities: make([]authsdk.DirectoryIdentity, 0, len(identities)),
	}
	for _, id := range identities {
		q := url.Values{"email": {id.Email}}.Encode()
		resp.Identities = append(resp.Identities, authsdk.DirectoryIdentity{
			Email:            id.Email,
			DisplayName:      id.DisplayName,
			Synthetic:        id.Synthetic,
			ProviderTokenURL: h.BaseURL + "/v1/internal/users/provider-token?" + q,
			SessionTokenURL:  h.BaseURL + "/v1/internal/users/session-token?" + q,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func queryFlag(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// HandleProviderToken serves GET /v1/internal/users/provider-token?email=…
// with a guaranteed-fresh Google access token for that identity.
func (h *InternalHandler) HandleProviderToken(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	identity, err := h.Directory.GetByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	accessToken, expiresAt, err := h.ProviderTokens.FreshAccessToken(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.ProviderTokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	})
}

// HandleSessionToken serves GET /v1/internal/users/session-token?email=…,
// minting a session pair without any credential check.
func (h *InternalHandler) HandleSessionToken(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	identity, err := h.Directory.GetByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.Sessions.IssuePair(identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}
