package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/mail"
	"github.com/backdeskhq/backdesk/internal/directory/store"
	"github.com/backdeskhq/backdesk/pkg/cryptox"
	"github.com/backdeskhq/backdesk/pkg/idx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// PasswordResetService mints and redeems single-use reset tokens.
type PasswordResetService struct {
	Store    store.Store
	Mailer   mail.Mailer
	BaseURL  string
	ResetTTL time.Duration
}

// Forgot mints a reset token and emails the link. The outcome is
// identical whether or not the email belongs to an account, so the
// endpoint cannot be used to enumerate the directory.
func (s *PasswordResetService) Forgot(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	account, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("password reset requested for unknown email")
			return nil
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate reset token", slog.Any("error", err))
		return err
	}

	now := time.Now().UTC()
	reset := domain.OneTimeToken{
		ID:        idx.New().String(),
		Email:     email,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.ResetTTL),
		CreatedAt: now,
	}

	if err := s.Store.ResetTokens().Create(ctx, reset); err != nil {
		log.Error("failed to store reset token", slog.Any("error", err))
		return err
	}

	log.Info("password reset token minted",
		slog.String("account_id", account.ID),
	)

	link := actionLink(s.BaseURL, "/reset-password", email, token)
	if err := s.Mailer.Send(ctx, mail.TemplateResetPassword, email, mail.Data{
		Name:      account.Name,
		Link:      link,
		ExpiresIn: humanDuration(s.ResetTTL),
	}); err != nil {
		log.Error("failed to send reset email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

// Reset consumes a reset token and replaces the account's password
// hash. Consume-plus-rehash is one transaction; of two racing
// redemptions exactly one succeeds, the other gets ErrTokenInvalid.
func (s *PasswordResetService) Reset(ctx context.Context, email, token, newPassword string) error {
	log := slogx.FromContext(ctx)
	email = NormalizeEmail(email)
	fingerprint := cryptox.FingerprintToken(token)

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetTokens().Consume(ctx, email, fingerprint); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		account, err := tx.Accounts().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Token outlived the account. Treat as invalid.
				return ErrTokenInvalid
			}
			return err
		}

		return tx.Accounts().UpdatePasswordHash(ctx, account.ID, hash)
	})
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			log.Warn("password reset attempted with invalid or used token")
			return ErrTokenInvalid
		}
		log.Error("failed to reset password", slog.Any("error", err))
		return err
	}

	log.Info("password reset completed")
	return nil
}
