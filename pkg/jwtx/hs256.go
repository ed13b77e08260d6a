package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
)

// Signer produces signed session tokens.
type Signer interface {
	Sign(SessionClaims) (string, error)
}

// Verifier validates a session token and gives back the claims if it's legit.
type Verifier interface {
	Verify(token string) (SessionClaims, error)
}

// HS256 signs and verifies session tokens with a shared HMAC-SHA256 secret.
// It implements both Signer and Verifier; the auth service is the only party
// that ever handles the secret.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 creates a signer/verifier pair over the shared secret.
func NewHS256(secret []byte, issuer string) *HS256 {
	return &HS256{secret: secret, issuer: issuer}
}

// Sign returns the compact serialization of the claims.
func (h *HS256) Sign(claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

// Verify parses and validates the token string. Expired tokens surface as
// ErrExpired so the caller can log the distinction; every other failure mode
// collapses into ErrMalformed/ErrInvalidSig because callers must not learn
// which check rejected a forged token.
func (h *HS256) Verify(tokenStr string) (SessionClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var claims SessionClaims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return SessionClaims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return SessionClaims{}, ErrInvalidSig
		default:
			return SessionClaims{}, ErrMalformed
		}
	}

	if h.issuer != "" && claims.Issuer != h.issuer {
		return SessionClaims{}, ErrIssuer
	}

	return claims, nil
}
