package domain

import "time"

// PairingTicket is a short-lived one-time code a logged-in user renders as a
// QR so a device can claim a session. The ticket lives only in the cache;
// claiming it deletes it.
type PairingTicket struct {
	Code      string
	Email     string // the account the claiming device will be bound to
	ExpiresAt time.Time
}

// DefaultPairingTTL is how long a pairing code stays claimable.
const DefaultPairingTTL = 5 * time.Minute
