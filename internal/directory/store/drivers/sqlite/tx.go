package sqlite

import (
	"context"
	"database/sql"

	"github.com/backdeskhq/backdesk/internal/directory/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits/rolls back

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Accounts() store.Accounts { return &accountsRepo{db: t.tx} }
func (t *txStore) ResetTokens() store.ResetTokens {
	return &tokensRepo{db: t.tx, table: "password_reset_tokens"}
}
func (t *txStore) VerificationTokens() store.VerificationTokens {
	return &tokensRepo{db: t.tx, table: "email_verification_tokens"}
}

func (t *txStore) ApplyMigrations() error { return nil } // applied before any tx starts
