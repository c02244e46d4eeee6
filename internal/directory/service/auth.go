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

// AuthService verifies credentials and redeems email-verification
// tokens. Session issuance lives in the transport layer.
type AuthService struct {
	Store store.Store
}

// SignIn verifies email+password against the stored Argon2id hash.
// Unknown emails and wrong passwords collapse into the same error so
// the response never reveals which half failed.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (domain.Account, error) {
	log := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	account, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("sign-in attempted with unknown email")
			return domain.Account{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Account{}, err
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("sign-in attempted with wrong password",
				slog.String("account_id", account.ID),
			)
			return domain.Account{}, ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return domain.Account{}, err
	}

	log.Info("sign-in succeeded",
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)),
	)
	return account, nil
}

// VerifyEmail consumes a verification token and stamps the account as
// verified. Consume-plus-stamp is one transaction; of two racing
// redemptions exactly one succeeds.
func (s *AuthService) VerifyEmail(ctx context.Context, email, token string) error {
	log := slogx.FromContext(ctx)
	email = NormalizeEmail(email)
	fingerprint := cryptox.FingerprintToken(token)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationTokens().Consume(ctx, email, fingerprint); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		return tx.Accounts().MarkEmailVerified(ctx, email)
	})
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			log.Warn("email verification attempted with invalid or used token")
			return ErrTokenInvalid
		}
		log.Error("failed to verify email", slog.Any("error", err))
		return err
	}

	log.Info("email verified")
	return nil
}
