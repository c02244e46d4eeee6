package store

import (
	"context"
	"errors"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement
// it; services depend only on this package. Every account lookup and
// mutation excludes soft-deleted rows.
type Store interface {
	Accounts() Accounts
	ResetTokens() ResetTokens
	VerificationTokens() VerificationTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. Use it for the token-consume-plus-mutate
	// steps that must be atomic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns a non-deleted account by id.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail returns a non-deleted account by lower-cased email.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// List returns non-deleted accounts with the given role, newest first.
	List(ctx context.Context, role domain.Role) ([]domain.Account, error)

	// Create inserts a new account (id provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken by a live row.
	Create(ctx context.Context, a domain.Account) error

	// UpdateProfile mutates name and email, bumping updated_at.
	UpdateProfile(ctx context.Context, id, name, email string) error

	// UpdateAccount mutates name, email and role, bumping updated_at.
	UpdateAccount(ctx context.Context, id, name, email string, role domain.Role) error

	// UpdatePasswordHash replaces the stored hash, bumping updated_at.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// MarkEmailVerified stamps email_verified_at for the live account
	// with the given email.
	MarkEmailVerified(ctx context.Context, email string) error

	// SoftDelete stamps deleted_at; the row disappears from all
	// subsequent lookups. Returns ErrNotFound for unknown or
	// already-deleted ids.
	SoftDelete(ctx context.Context, id string) error
}

// ResetTokens stores password-reset tokens by fingerprint.
type ResetTokens interface {
	Create(ctx context.Context, t domain.OneTimeToken) error

	// Consume atomically marks the live token matching email+hash as
	// consumed. Returns ErrNotFound when no unconsumed, unexpired token
	// matches; of two racing consumers exactly one succeeds.
	Consume(ctx context.Context, email, tokenHash string) error

	// DeleteExpired is housekeeping.
	DeleteExpired(ctx context.Context) error
}

// VerificationTokens stores email-verification tokens by fingerprint.
type VerificationTokens interface {
	Create(ctx context.Context, t domain.OneTimeToken) error
	Consume(ctx context.Context, email, tokenHash string) error
	DeleteExpired(ctx context.Context) error
}
