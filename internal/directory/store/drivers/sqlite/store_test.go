package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/store"
	"github.com/backdeskhq/backdesk/internal/directory/store/drivers/sqlite"
	"github.com/backdeskhq/backdesk/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newAccount(email string, role domain.Role, createdAt time.Time) domain.Account {
	return domain.Account{
		ID:           idx.NewAt(createdAt).String(),
		Name:         "Test Account",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         role,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestAccountsCreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := newAccount("ada@example.com", domain.RoleAdmin, time.Now().UTC())
	require.NoError(t, st.Accounts().Create(ctx, a))

	byID, err := st.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Email, byID.Email)
	require.Equal(t, domain.RoleAdmin, byID.Role)
	require.False(t, byID.Verified())

	byEmail, err := st.Accounts().GetByEmail(ctx, a.Email)
	require.NoError(t, err)
	require.Equal(t, a.ID, byEmail.ID)

	_, err = st.Accounts().GetByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountsDuplicateEmailRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, st.Accounts().Create(ctx, newAccount("ada@example.com", domain.RoleUser, now)))

	err := st.Accounts().Create(ctx, newAccount("ada@example.com", domain.RoleUser, now))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAccountsSoftDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := newAccount("ada@example.com", domain.RoleUser, time.Now().UTC())
	require.NoError(t, st.Accounts().Create(ctx, a))

	require.NoError(t, st.Accounts().SoftDelete(ctx, a.ID))

	t.Run("deleted rows vanish from lookups", func(t *testing.T) {
		_, err := st.Accounts().GetByID(ctx, a.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = st.Accounts().GetByEmail(ctx, a.Email)
		require.ErrorIs(t, err, store.ErrNotFound)

		accounts, err := st.Accounts().List(ctx, domain.RoleUser)
		require.NoError(t, err)
		require.Empty(t, accounts)
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		require.ErrorIs(t, st.Accounts().SoftDelete(ctx, a.ID), store.ErrNotFound)
	})

	t.Run("deleted account releases its email", func(t *testing.T) {
		b := newAccount("ada@example.com", domain.RoleUser, time.Now().UTC())
		require.NoError(t, st.Accounts().Create(ctx, b))

		got, err := st.Accounts().GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, b.ID, got.ID)
	})
}

func TestAccountsListFiltersAndOrders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	older := newAccount("older@example.com", domain.RoleUser, base)
	newer := newAccount("newer@example.com", domain.RoleUser, base.Add(time.Minute))
	admin := newAccount("admin@example.com", domain.RoleAdmin, base)

	for _, a := range []domain.Account{older, newer, admin} {
		require.NoError(t, st.Accounts().Create(ctx, a))
	}

	users, err := st.Accounts().List(ctx, domain.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, newer.ID, users[0].ID, "newest first")
	require.Equal(t, older.ID, users[1].ID)

	admins, err := st.Accounts().List(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, admin.ID, admins[0].ID)
}

func TestAccountsUpdates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := newAccount("ada@example.com", domain.RoleUser, time.Now().UTC())
	require.NoError(t, st.Accounts().Create(ctx, a))

	t.Run("update profile", func(t *testing.T) {
		require.NoError(t, st.Accounts().UpdateProfile(ctx, a.ID, "Ada L", "ada.l@example.com"))

		got, err := st.Accounts().GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "Ada L", got.Name)
		require.Equal(t, "ada.l@example.com", got.Email)
	})

	t.Run("update account changes role", func(t *testing.T) {
		require.NoError(t, st.Accounts().UpdateAccount(ctx, a.ID, "Ada L", "ada.l@example.com", domain.RoleAdmin))

		got, err := st.Accounts().GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, st.Accounts().UpdatePasswordHash(ctx, a.ID, "$argon2id$v=19$m=19456,t=2,p=1$bmV3$bmV3"))

		got, err := st.Accounts().GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Contains(t, got.PasswordHash, "$bmV3$")
	})

	t.Run("mark email verified", func(t *testing.T) {
		require.NoError(t, st.Accounts().MarkEmailVerified(ctx, "ada.l@example.com"))

		got, err := st.Accounts().GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.True(t, got.Verified())
	})
}

func newToken(email string, expiresAt time.Time) domain.OneTimeToken {
	now := time.Now().UTC()
	return domain.OneTimeToken{
		ID:        idx.New().String(),
		Email:     email,
		TokenHash: "hash-" + idx.New().String(),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
}

func TestResetTokensConsumeSingleUse(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	tok := newToken("ada@example.com", time.Now().UTC().Add(time.Hour))
	require.NoError(t, st.ResetTokens().Create(ctx, tok))

	// First redemption wins
	require.NoError(t, st.ResetTokens().Consume(ctx, tok.Email, tok.TokenHash))

	// Second redemption of the same token loses
	require.ErrorIs(t, st.ResetTokens().Consume(ctx, tok.Email, tok.TokenHash), store.ErrNotFound)
}

func TestResetTokensConsumeRejections(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("unknown hash", func(t *testing.T) {
		err := st.ResetTokens().Consume(ctx, "ada@example.com", "no-such-hash")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("wrong email for a known hash", func(t *testing.T) {
		tok := newToken("ada@example.com", time.Now().UTC().Add(time.Hour))
		require.NoError(t, st.ResetTokens().Create(ctx, tok))

		err := st.ResetTokens().Consume(ctx, "other@example.com", tok.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		tok := newToken("ada@example.com", time.Now().UTC().Add(-time.Minute))
		require.NoError(t, st.ResetTokens().Create(ctx, tok))

		err := st.ResetTokens().Consume(ctx, tok.Email, tok.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestVerificationTokensIndependentOfResetTokens(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	tok := newToken("ada@example.com", time.Now().UTC().Add(time.Hour))
	require.NoError(t, st.VerificationTokens().Create(ctx, tok))

	// The reset table knows nothing about verification tokens
	require.ErrorIs(t, st.ResetTokens().Consume(ctx, tok.Email, tok.TokenHash), store.ErrNotFound)

	require.NoError(t, st.VerificationTokens().Consume(ctx, tok.Email, tok.TokenHash))
}

func TestTokensDeleteExpired(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	live := newToken("live@example.com", time.Now().UTC().Add(time.Hour))
	dead := newToken("dead@example.com", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, st.ResetTokens().Create(ctx, live))
	require.NoError(t, st.ResetTokens().Create(ctx, dead))

	require.NoError(t, st.ResetTokens().DeleteExpired(ctx))

	// The live token still consumes; the dead one is gone either way
	require.NoError(t, st.ResetTokens().Consume(ctx, live.Email, live.TokenHash))
	require.ErrorIs(t, st.ResetTokens().Consume(ctx, dead.Email, dead.TokenHash), store.ErrNotFound)
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := newAccount("ada@example.com", domain.RoleUser, time.Now().UTC())
	tok := newToken(a.Email, time.Now().UTC().Add(time.Hour))
	require.NoError(t, st.Accounts().Create(ctx, a))
	require.NoError(t, st.ResetTokens().Create(ctx, tok))

	t.Run("rollback leaves the token unconsumed", func(t *testing.T) {
		boom := errors.New("boom")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.ResetTokens().Consume(ctx, tok.Email, tok.TokenHash); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		// The consume above rolled back, so the token is still live
		require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
			return tx.ResetTokens().Consume(ctx, tok.Email, tok.TokenHash)
		}))
	})

	t.Run("commit persists both writes", func(t *testing.T) {
		require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error {
			return tx.Accounts().UpdatePasswordHash(ctx, a.ID, "$argon2id$v=19$m=19456,t=2,p=1$dHg$dHg")
		}))

		got, err := st.Accounts().GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Contains(t, got.PasswordHash, "$dHg$")
	})
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
