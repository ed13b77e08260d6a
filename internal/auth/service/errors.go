package service

import "errors"

var (
	// ErrInvalidCredentials covers bad, forged or expired identity
	// assertions and session tokens. The caller learns nothing about which
	// check failed.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrUpstreamUnavailable is a transient provider failure; safe to retry.
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrCodeExchangeRejected means the provider declined the authorization
	// code; not retryable with the same code.
	ErrCodeExchangeRejected = errors.New("code_exchange_rejected")

	// ErrReauthRequired means the stored provider refresh token is dead and
	// only a fresh code-exchange login can recover.
	ErrReauthRequired = errors.New("reauth_required")

	// ErrMalformedUpstream means the provider violated its own response
	// contract. Treated as a server error and logged loudly.
	ErrMalformedUpstream = errors.New("malformed_upstream_response")

	// ErrPairingCodeInvalid covers expired, unknown and already-claimed
	// pairing codes without distinction.
	ErrPairingCodeInvalid = errors.New("pairing_code_invalid")

	// ErrIdentityNotFound is returned by email-keyed lookups.
	ErrIdentityNotFound = errors.New("identity_not_found")

	// ErrTokensNotConnected means the identity never completed a
	// code-exchange login, so there is no provider token pair to serve.
	ErrTokensNotConnected = errors.New("tokens_not_connected")
)
