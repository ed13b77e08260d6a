package http

import (
	"bytes"
	"image/png"
	"net/http"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/pkg/authsdk"
	"github.com/openfit/healthsync/pkg/httpx"
	"github.com/openfit/healthsync/pkg/slogx"
)

const qrImageSize = 256

// QRHandler runs the device pairing surface: code issuance, the rendered QR
// image, and the claim endpoint a scanning device calls.
type QRHandler struct {
	Pairing *service.PairingService

	// BaseURL is handed to claiming devices as their API root.
	BaseURL string

	// RefreshPath is the refresh endpoint path, absolute-ized for the
	// claim payload.
	RefreshPath string
}

// HandleIssue serves GET /v1/qr/pairing-code for an authenticated user.
func (h *QRHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrCouldNotAuthenticate.WriteError(w)
		return
	}

	issued, err := h.Pairing.Issue(r.Context(), claims.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.PairingCodeResponse{
		Code:       issued.Code,
		PairingURL: issued.PairingURL,
		ExpiresIn:  int64(issued.ExpiresIn / time.Second),
	})
}

// HandleImage serves GET /v1/qr/image: a fresh pairing code rendered as a
// PNG, ready to scan. Every request mints a new code.
func (h *QRHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrCouldNotAuthenticate.WriteError(w)
		return
	}

	issued, err := h.Pairing.Issue(r.Context(), claims.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	code, err := qr.Encode(issued.PairingURL, qr.M, qr.Auto)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	code, err = barcode.Scale(code, qrImageSize, qrImageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slogx.FromContext(r.Context()).Warn("qr image write aborted")
	}
}

// HandleClaim serves GET /v1/qr/claim?code=...: the scanning device trades
// the one-time code for a full session plus the URLs it needs next.
func (h *QRHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	identity, pair, err := h.Pairing.Claim(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.PairingClaimResponse{
		PostHere:        h.BaseURL,
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		RefreshTokenURL: h.BaseURL + h.RefreshPath,
		TokenType:       pair.TokenType,
		Email:           identity.Email,
	})
}
