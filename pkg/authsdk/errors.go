package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openfit/healthsync/pkg/httpx"
)

// Error codes shared between the auth service and its consumers.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeCouldNotAuthenticate  = "could_not_authenticate"
	ErrorCodeUpstreamUnavailable   = "upstream_unavailable"
	ErrorCodeCodeExchangeRejected  = "code_exchange_rejected"
	ErrorCodeReauthRequired        = "reauth_required"
	ErrorCodePairingCodeInvalid    = "pairing_code_invalid"
	ErrorCodeIdentityNotFound      = "identity_not_found"
	ErrorCodeTokensNotConnected    = "tokens_not_connected"
	ErrorCodeServerError           = "server_error"
)

// APIError is the JSON error body the auth service returns. It implements
// the error interface so the SDK client can surface it directly.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned when the request is missing a required
	// parameter or is otherwise malformed.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrCouldNotAuthenticate covers every identity-assertion and session
	// token failure. Deliberately not more specific: callers must not learn
	// which check rejected the credential.
	ErrCouldNotAuthenticate = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeCouldNotAuthenticate,
		Description: "could not validate credentials",
	}

	// ErrUpstreamUnavailable signals a transient provider failure; clients
	// should back off and retry.
	ErrUpstreamUnavailable = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeUpstreamUnavailable,
		Description: "the identity provider is temporarily unavailable",
	}

	// ErrCodeExchangeRejected is returned when the provider declined the
	// authorization code; retrying with the same code will not help.
	ErrCodeExchangeRejected = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeCodeExchangeRejected,
		Description: "the identity provider rejected the authorization code",
	}

	// ErrReauthRequired is distinct from ErrCouldNotAuthenticate so clients
	// can route the user into the full consent flow rather than a plain
	// re-login.
	ErrReauthRequired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeReauthRequired,
		Description: "the provider connection must be re-authorized",
	}

	// ErrPairingCodeInvalid covers expired, unknown and already-claimed
	// pairing codes alike.
	ErrPairingCodeInvalid = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodePairingCodeInvalid,
		Description: "invalid pairing code",
	}

	// ErrIdentityNotFound is returned by internal lookups for unknown users.
	ErrIdentityNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeIdentityNotFound,
		Description: "identity not found",
	}

	// ErrTokensNotConnected is returned when a user has never connected the
	// fitness integration.
	ErrTokensNotConnected = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeTokensNotConnected,
		Description: "no provider tokens stored for this identity",
	}

	// ErrServerError is the catch-all for internal failures, including a
	// provider violating its own response contract.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)
