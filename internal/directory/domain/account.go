package domain

import "time"

// Role partitions the directory into the two navigation trees the
// dashboard renders.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole validates a submitted role value.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// Account is a directory record. Email is unique among accounts whose
// DeletedAt is unset; soft-deleted rows are invisible to every lookup.
type Account struct {
	ID              string
	Name            string
	Email           string // stored lower-cased
	PasswordHash    string // argon2id PHC string
	Role            Role
	EmailVerifiedAt *time.Time
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Verified reports whether the account confirmed its email address.
func (a Account) Verified() bool { return a.EmailVerifiedAt != nil }
