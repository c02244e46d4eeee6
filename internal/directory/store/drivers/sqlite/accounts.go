package sqlite

import (
	"context"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/store"
)

const accountColumns = `id, name, email, password_hash, role, email_verified_at, deleted_at, created_at, updated_at`

type accountsRepo struct {
	db dbtx
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? AND deleted_at IS NULL`,
		email,
	)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) List(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE role = ? AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		string(role),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, role, email_verified_at, deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Name,
		a.Email,
		a.PasswordHash,
		string(a.Role),
		mapOptionalTime(a.EmailVerifiedAt),
		mapOptionalTime(a.DeletedAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, id, name, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, email = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, email, time.Now().UTC(), id,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateAccount(ctx context.Context, id, name, email string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, email = ?, role = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, email, string(role), time.Now().UTC(), id,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		hash, time.Now().UTC(), id,
	)
	return err
}

func (r *accountsRepo) MarkEmailVerified(ctx context.Context, email string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET email_verified_at = ?, updated_at = ?
		 WHERE email = ? AND deleted_at IS NULL`,
		now, now, email,
	)
	return err
}

func (r *accountsRepo) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
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
