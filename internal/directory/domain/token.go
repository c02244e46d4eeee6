package domain

import "time"

// OneTimeToken is a single-use credential binding an email address to
// an opaque token for password reset or email verification. Only the
// SHA-256 fingerprint of the token is stored. A token is live while
// ConsumedAt is unset and ExpiresAt is in the future; consumption is
// atomic with the mutation it authorizes.
type OneTimeToken struct {
	ID         string
	Email      string
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
