package sqlite

import (
	"context"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/store"
)

// tokensRepo backs both password_reset_tokens and
// email_verification_tokens; the two tables share one shape.
type tokensRepo struct {
	db    dbtx
	table string
}

func (r *tokensRepo) Create(ctx context.Context, t domain.OneTimeToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (id, email, token_hash, expires_at, consumed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Email,
		t.TokenHash,
		t.ExpiresAt,
		mapOptionalTime(t.ConsumedAt),
		t.CreatedAt,
	)
	return mapConstraint(err)
}

// Consume stamps consumed_at on the live token in one UPDATE, so two
// racing redemptions can never both observe the token as valid: the
// WHERE clause admits exactly one winner.
func (r *tokensRepo) Consume(ctx context.Context, email, tokenHash string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET consumed_at = ?
		 WHERE email = ? AND token_hash = ? AND consumed_at IS NULL AND expires_at > ?`,
		now, email, tokenHash, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *tokensRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM `+r.table+` WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	return err
}
