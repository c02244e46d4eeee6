package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/store"
	"github.com/backdeskhq/backdesk/pkg/cryptox"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// ProfileService covers self-service mutations: the caller operates on
// their own account only.
type ProfileService struct {
	Store store.Store
}

// UpdateProfile changes the caller's name and email. A new email must
// not belong to a different live account.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID, name, email string) (domain.Account, error) {
	log := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Account{}, err
	}

	if email != account.Email {
		other, err := s.Store.Accounts().GetByEmail(ctx, email)
		if err == nil && other.ID != account.ID {
			log.Warn("profile update attempted with registered email",
				slog.String("account_id", accountID),
			)
			return domain.Account{}, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to check email availability", slog.Any("error", err))
			return domain.Account{}, err
		}
	}

	if err := s.Store.Accounts().UpdateProfile(ctx, accountID, name, email); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrEmailTaken
		}
		log.Error("failed to update profile",
			slog.String("account_id", accountID),
			slog.Any("error", err),
		)
		return domain.Account{}, err
	}

	log.Info("profile updated", slog.String("account_id", accountID))

	account.Name = name
	account.Email = email
	return account, nil
}

// UpdatePassword re-verifies the current password before replacing the
// stored hash.
func (s *ProfileService) UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("password change attempted with wrong current password",
				slog.String("account_id", accountID),
			)
			return ErrPasswordIncorrect
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	if err := s.Store.Accounts().UpdatePasswordHash(ctx, accountID, hash); err != nil {
		log.Error("failed to update password hash",
			slog.String("account_id", accountID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("password updated", slog.String("account_id", accountID))
	return nil
}

// DeleteSelf soft-deletes the caller's own account after password
// re-confirmation.
func (s *ProfileService) DeleteSelf(ctx context.Context, accountID, password string) error {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return err
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("self-delete attempted with wrong password",
				slog.String("account_id", accountID),
			)
			return ErrPasswordIncorrect
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return err
	}

	if err := s.Store.Accounts().SoftDelete(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Error("failed to soft-delete account",
			slog.String("account_id", accountID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("account self-deleted", slog.String("account_id", accountID))
	return nil
}
