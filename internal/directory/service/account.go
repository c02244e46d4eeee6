package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/mail"
	"github.com/backdeskhq/backdesk/internal/directory/store"
	"github.com/backdeskhq/backdesk/pkg/cryptox"
	"github.com/backdeskhq/backdesk/pkg/idx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// AccountService owns account creation and the admin directory
// operations. Verification emails are a side channel: failures are
// logged and never roll back the committed account row.
type AccountService struct {
	Store     store.Store
	Mailer    mail.Mailer
	BaseURL   string
	VerifyTTL time.Duration
}

// SaveInput is the validated field set for the admin create-or-update
// operation. An empty ID means create; Password is optional on edit.
type SaveInput struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// CreateAdmin registers a new ADMIN account and dispatches a
// verification email.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (domain.Account, error) {
	return s.create(ctx, name, email, password, domain.RoleAdmin, mail.TemplateVerifyEmail)
}

// Save creates or updates a directory account depending on whether the
// input carries an id. Admin-created accounts receive an account-created
// email with a verification link.
func (s *AccountService) Save(ctx context.Context, in SaveInput) (domain.Account, error) {
	if in.ID == "" {
		return s.create(ctx, in.Name, in.Email, in.Password, in.Role, mail.TemplateAccountCreated)
	}
	return s.update(ctx, in)
}

// List returns non-deleted accounts with the given role, newest first.
func (s *AccountService) List(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	return s.Store.Accounts().List(ctx, role)
}

// Get fetches a single non-deleted account.
func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return account, nil
}

// SoftDelete removes a target account through the admin path. Deleting
// the caller's own account is rejected; self-removal goes through the
// password-confirmed profile path instead.
func (s *AccountService) SoftDelete(ctx context.Context, callerID, targetID string) error {
	log := slogx.FromContext(ctx)

	if callerID == targetID {
		log.Warn("admin attempted to delete own account",
			slog.String("account_id", callerID),
		)
		return ErrSelfDelete
	}

	if err := s.Store.Accounts().SoftDelete(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Error("failed to soft-delete account",
			slog.String("account_id", targetID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("account soft-deleted",
		slog.String("account_id", targetID),
		slog.String("deleted_by", callerID),
	)
	return nil
}

func (s *AccountService) create(
	ctx context.Context,
	name, email, password string,
	role domain.Role,
	tpl mail.Template,
) (domain.Account, error) {
	log := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	// 1. Re-check email uniqueness against live rows. The partial
	// unique index is the backstop for races.
	_, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err == nil {
		log.Warn("account creation attempted with registered email")
		return domain.Account{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email availability", slog.Any("error", err))
		return domain.Account{}, err
	}

	// 2. Hash the password using Argon2id.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.Account{}, err
	}

	// 3. Mint the verification token.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate verification token", slog.Any("error", err))
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	verification := domain.OneTimeToken{
		ID:        idx.New().String(),
		Email:     email,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.VerifyTTL),
		CreatedAt: now,
	}

	// 4. Insert the account and its verification token atomically.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return tx.VerificationTokens().Create(ctx, verification)
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			log.Warn("account creation lost uniqueness race")
			return domain.Account{}, ErrEmailTaken
		}
		log.Error("failed to create account", slog.Any("error", err))
		return domain.Account{}, err
	}

	log.Info("account created",
		slog.String("account_id", account.ID),
		slog.String("role", string(role)),
	)

	// 5. Dispatch the verification email. Non-fatal; the row committed.
	link := actionLink(s.BaseURL, "/verify-email", email, token)
	if err := s.Mailer.Send(ctx, tpl, email, mail.Data{
		Name:      name,
		Link:      link,
		ExpiresIn: humanDuration(s.VerifyTTL),
	}); err != nil {
		log.Error("failed to send verification email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	return account, nil
}

func (s *AccountService) update(ctx context.Context, in SaveInput) (domain.Account, error) {
	log := slogx.FromContext(ctx)
	email := NormalizeEmail(in.Email)

	account, err := s.Store.Accounts().GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Account{}, err
	}

	// The new email must not belong to a different live account.
	if email != account.Email {
		other, err := s.Store.Accounts().GetByEmail(ctx, email)
		if err == nil && other.ID != account.ID {
			log.Warn("account update attempted with registered email",
				slog.String("account_id", account.ID),
			)
			return domain.Account{}, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to check email availability", slog.Any("error", err))
			return domain.Account{}, err
		}
	}

	var passwordHash string
	if in.Password != "" {
		passwordHash, err = cryptox.HashPassword(in.Password)
		if err != nil {
			log.Error("failed to hash password", slog.Any("error", err))
			return domain.Account{}, err
		}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdateAccount(ctx, account.ID, in.Name, email, in.Role); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if passwordHash != "" {
			return tx.Accounts().UpdatePasswordHash(ctx, account.ID, passwordHash)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return domain.Account{}, ErrEmailTaken
		}
		log.Error("failed to update account",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return domain.Account{}, err
	}

	log.Info("account updated",
		slog.String("account_id", account.ID),
		slog.String("role", string(in.Role)),
		slog.Bool("password_changed", passwordHash != ""),
	)

	account.Name = in.Name
	account.Email = email
	account.Role = in.Role
	return account, nil
}

// humanDuration renders a TTL for email copy, e.g. "1 hour" or
// "30 minutes".
func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return strconv.Itoa(hours) + " hours"
	}
	minutes := int(d / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return strconv.Itoa(minutes) + " minutes"
}
