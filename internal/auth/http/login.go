package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/pkg/authsdk"
	"github.com/openfit/healthsync/pkg/httpx"
)

// LoginHandler serves the two login entry points: a bare Google ID-token
// assertion and a full authorization-code exchange. Both accept JSON bodies
// and answer with a session token pair.
type LoginHandler struct {
	LoginService *service.LoginService
}

// HandleAssertion serves POST /v1/auth/google.
func (h *LoginHandler) HandleAssertion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	body.IDToken = strings.TrimSpace(body.IDToken)
	if body.IDToken == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.LoginService.LoginWithAssertion(r.Context(), body.IDToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// HandleCode serves POST /v1/auth/google/code.
func (h *LoginHandler) HandleCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	body.Code = strings.TrimSpace(body.Code)
	if body.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.LoginService.LoginWithCode(r.Context(), body.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}
