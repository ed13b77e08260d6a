package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/pkg/authsdk"
	"github.com/openfit/healthsync/pkg/slogx"
)

// writeServiceError maps service-level errors to the wire error vocabulary.
// Unknown errors become a generic 500 and get logged with their real cause;
// the actual cause never leaves the process.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrCouldNotAuthenticate.WriteError(w)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		authsdk.ErrUpstreamUnavailable.WriteError(w)
	case errors.Is(err, service.ErrCodeExchangeRejected):
		authsdk.ErrCodeExchangeRejected.WriteError(w)
	case errors.Is(err, service.ErrReauthRequired):
		authsdk.ErrReauthRequired.WriteError(w)
	case errors.Is(err, service.ErrPairingCodeInvalid):
		authsdk.ErrPairingCodeInvalid.WriteError(w)
	case errors.Is(err, service.ErrIdentityNotFound):
		authsdk.ErrIdentityNotFound.WriteError(w)
	case errors.Is(err, service.ErrTokensNotConnected):
		authsdk.ErrTokensNotConnected.WriteError(w)
	case errors.Is(err, service.ErrMalformedUpstream):
		slogx.FromContext(r.Context()).Error("upstream contract violation", slog.String("error", err.Error()))
		authsdk.ErrServerError.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.String("error", err.Error()))
		authsdk.ErrServerError.WriteError(w)
	}
}

func tokenResponse(pair *domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn),
	}
}
