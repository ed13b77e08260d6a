// Package google talks to Google's OAuth2 and OpenID Connect surfaces: ID
// token verification, authorization-code exchange, token introspection,
// refresh, and People API profile enrichment.
package google

import "errors"

var (
	// ErrRejected means Google definitively refused the credential (bad
	// code, revoked refresh token). Retrying will not help.
	ErrRejected = errors.New("google: rejected")

	// ErrUnavailable means Google could not be reached or answered with a
	// server error. Transient; callers may retry.
	ErrUnavailable = errors.New("google: unavailable")

	// ErrMalformed means Google answered but the response violated its own
	// contract (missing id_token, undecodable body).
	ErrMalformed = errors.New("google: malformed response")
)
