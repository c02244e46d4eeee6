package action

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/form"
	"github.com/backdeskhq/backdesk/internal/directory/service"
	"github.com/backdeskhq/backdesk/pkg/idx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// Dispatcher runs the validate-authorize-mutate-respond sequence for
// each operation. Validation failures return immediately with no side
// effects, so retrying an identical submission is safe; the single-use
// token operations stay safe because consumption is atomic in the
// store.
type Dispatcher struct {
	Accounts *service.AccountService
	Auth     *service.AuthService
	Profile  *service.ProfileService
	Reset    *service.PasswordResetService
}

// CreateAdmin handles the public admin-registration form. On success
// the returned account backs the caller's new session.
func (d *Dispatcher) CreateAdmin(ctx context.Context, v url.Values) (domain.Account, domain.ActionResult) {
	if errs := form.CreateAdmin(v); errs != nil {
		return domain.Account{}, domain.Rejected(errs)
	}

	account, err := d.Accounts.CreateAdmin(ctx, v.Get("name"), v.Get("email"), v.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return domain.Account{}, domain.Denied(WarnEmailAlreadyRegistered)
		}
		return domain.Account{}, d.serverError(ctx, err)
	}

	return account, domain.Committed(MsgAccountCreated)
}

// SaveAccount handles the admin create-or-update form. The submission
// edits an existing record exactly when the id field carries a valid
// ULID; otherwise it creates.
func (d *Dispatcher) SaveAccount(ctx context.Context, caller Identity, v url.Values) domain.ActionResult {
	if !caller.IsAdmin() {
		return domain.Denied(WarnAdminRequired)
	}

	id := strings.TrimSpace(v.Get("id"))
	mode := form.ModeCreate
	if id != "" {
		if _, err := idx.Parse(id); err != nil {
			return domain.Denied(WarnAccountNotFound)
		}
		mode = form.ModeEdit
	}

	if errs := form.SaveAccount(v, mode); errs != nil {
		return domain.Rejected(errs)
	}

	role, _ := domain.ParseRole(v.Get("role"))
	in := service.SaveInput{
		ID:       id,
		Name:     v.Get("name"),
		Email:    v.Get("email"),
		Password: v.Get("password"),
		Role:     role,
	}

	if _, err := d.Accounts.Save(ctx, in); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			return domain.Denied(WarnEmailAlreadyRegistered)
		case errors.Is(err, service.ErrAccountNotFound):
			return domain.Denied(WarnAccountNotFound)
		default:
			return d.serverError(ctx, err)
		}
	}

	if mode == form.ModeEdit {
		return domain.Committed(MsgAccountSaved)
	}
	return domain.Committed(MsgAccountCreated)
}

// SignIn handles the login form. On success the returned account backs
// the caller's new session.
func (d *Dispatcher) SignIn(ctx context.Context, v url.Values) (domain.Account, domain.ActionResult) {
	if errs := form.SignIn(v); errs != nil {
		return domain.Account{}, domain.Rejected(errs)
	}

	account, err := d.Auth.SignIn(ctx, v.Get("email"), v.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return domain.Account{}, domain.Denied(WarnCredentialsInvalid)
		}
		return domain.Account{}, d.serverError(ctx, err)
	}

	return account, domain.Committed(MsgSignedIn)
}

// UpdateProfile handles the self-service name/email form.
func (d *Dispatcher) UpdateProfile(ctx context.Context, caller Identity, v url.Values) domain.ActionResult {
	if errs := form.UpdateProfile(v); errs != nil {
		return domain.Rejected(errs)
	}

	if _, err := d.Profile.UpdateProfile(ctx, caller.AccountID, v.Get("name"), v.Get("email")); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			return domain.Denied(WarnEmailAlreadyRegistered)
		case errors.Is(err, service.ErrAccountNotFound):
			return domain.Denied(WarnAccountNotFound)
		default:
			return d.serverError(ctx, err)
		}
	}

	return domain.Committed(MsgProfileSaved)
}

// UpdatePassword handles the self-service password-change form.
func (d *Dispatcher) UpdatePassword(ctx context.Context, caller Identity, v url.Values) domain.ActionResult {
	if errs := form.UpdatePassword(v); errs != nil {
		return domain.Rejected(errs)
	}

	err := d.Profile.UpdatePassword(ctx, caller.AccountID, v.Get("current_password"), v.Get("password"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordIncorrect):
			return domain.Denied(WarnPasswordCurrentIncorrect)
		case errors.Is(err, service.ErrAccountNotFound):
			return domain.Denied(WarnAccountNotFound)
		default:
			return d.serverError(ctx, err)
		}
	}

	return domain.Committed(MsgPasswordUpdated)
}

// DeleteUser handles the admin-delete form. An admin removing their own
// account through this path is denied; they must use the
// password-confirmed self-delete instead.
func (d *Dispatcher) DeleteUser(ctx context.Context, caller Identity, v url.Values) domain.ActionResult {
	if !caller.IsAdmin() {
		return domain.Denied(WarnAdminRequired)
	}

	if errs := form.DeleteUser(v); errs != nil {
		return domain.Rejected(errs)
	}

	err := d.Accounts.SoftDelete(ctx, caller.AccountID, strings.TrimSpace(v.Get("id")))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			return domain.Denied(WarnSelfDeleteNotAllowed)
		case errors.Is(err, service.ErrAccountNotFound):
			return domain.Denied(WarnAccountNotFound)
		default:
			return d.serverError(ctx, err)
		}
	}

	return domain.Committed(MsgAccountDeleted)
}

// DeleteSelf handles the password-confirmed self-delete form.
func (d *Dispatcher) DeleteSelf(ctx context.Context, caller Identity, v url.Values) domain.ActionResult {
	if errs := form.DeleteSelf(v); errs != nil {
		return domain.Rejected(errs)
	}

	err := d.Profile.DeleteSelf(ctx, caller.AccountID, v.Get("password"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordIncorrect):
			return domain.Denied(WarnPasswordCurrentIncorrect)
		case errors.Is(err, service.ErrAccountNotFound):
			return domain.Denied(WarnAccountNotFound)
		default:
			return d.serverError(ctx, err)
		}
	}

	return domain.Committed(MsgAccountDeleted)
}

// ForgotPassword handles the reset-link request form. The success
// result is identical whether or not the email is registered.
func (d *Dispatcher) ForgotPassword(ctx context.Context, v url.Values) domain.ActionResult {
	if errs := form.ForgotPassword(v); errs != nil {
		return domain.Rejected(errs)
	}

	if err := d.Reset.Forgot(ctx, v.Get("email")); err != nil {
		return d.serverError(ctx, err)
	}

	return domain.Committed(MsgResetLinkSent)
}

// ResetPassword handles the reset-link redemption form.
func (d *Dispatcher) ResetPassword(ctx context.Context, v url.Values) domain.ActionResult {
	if errs := form.ResetPassword(v); errs != nil {
		return domain.Rejected(errs)
	}

	err := d.Reset.Reset(ctx, v.Get("email"), v.Get("token"), v.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return domain.Denied(WarnTokenInvalidOrUsed)
		}
		return d.serverError(ctx, err)
	}

	return domain.Committed(MsgPasswordReset)
}

// VerifyEmail handles the verification-link redemption form.
func (d *Dispatcher) VerifyEmail(ctx context.Context, v url.Values) domain.ActionResult {
	if errs := form.VerifyEmail(v); errs != nil {
		return domain.Rejected(errs)
	}

	err := d.Auth.VerifyEmail(ctx, v.Get("email"), v.Get("token"))
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return domain.Denied(WarnTokenInvalidOrUsed)
		}
		return d.serverError(ctx, err)
	}

	return domain.Committed(MsgEmailVerified)
}

// serverError hides infrastructure failures behind the generic warning
// key. The cause is already logged at the point of failure; this logs
// once more at the boundary so the dispatch is traceable.
func (d *Dispatcher) serverError(ctx context.Context, err error) domain.ActionResult {
	slogx.FromContext(ctx).Error("action failed", "error", err)
	return domain.Denied(WarnServerError)
}
