package http

import (
	"net/http"

	"github.com/backdeskhq/backdesk/internal/directory/action"
	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/pkg/formsdk"
	"github.com/backdeskhq/backdesk/pkg/httpx"
	"github.com/backdeskhq/backdesk/pkg/sessionx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// parseActionForm decodes the URL-encoded body. A malformed body is the
// only case where an action endpoint responds with a non-200 status.
func parseActionForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, formsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid form data",
		})
		return false
	}
	return true
}

// writeResult replies 200 with the ActionResult. Validation errors and
// business warnings are data, not HTTP failures.
func writeResult(w http.ResponseWriter, res domain.ActionResult) {
	httpx.WriteJSON(w, http.StatusOK, res)
}

type CreateAdminHandler struct {
	Dispatcher *action.Dispatcher
	Sessions   *sessionx.Manager
}

// ServeHTTP godoc
//
//	@Summary		Create Admin Action
//	@Description	Public admin-registration form. On success a session cookie is issued and a verification email dispatched.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			name					formData	string					true	"Display name"
//	@Param			email					formData	string					true	"Email address"
//	@Param			password				formData	string					true	"Password (min 8 chars)"
//	@Param			password_confirmation	formData	string					true	"Password confirmation"
//	@Success		200						{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/actions/create-admin [post].
func (h *CreateAdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	if !parseActionForm(w, r) {
		return
	}

	account, res := h.Dispatcher.CreateAdmin(ctx, r.PostForm)
	if res.OK() {
		token, err := h.Sessions.Issue(account.ID, string(account.Role))
		if err != nil {
			log.Error("failed to issue session token", "err", err)
			writeResult(w, domain.Denied(action.WarnServerError))
			return
		}
		h.Sessions.SetCookie(w, token)
	}
	writeResult(w, res)
}

type SignInHandler struct {
	Dispatcher *action.Dispatcher
	Sessions   *sessionx.Manager
}

// ServeHTTP godoc
//
//	@Summary		Sign In Action
//	@Description	Verifies email+password and issues the session cookie. Wrong credentials come back as a CredentialsInvalid warning, not an HTTP error.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email		formData	string					true	"Email address"
//	@Param			password	formData	string					true	"Password (8-32 chars)"
//	@Success		200			{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400			{object}	formsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/actions/sign-in [post].
func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	if !parseActionForm(w, r) {
		return
	}

	account, res := h.Dispatcher.SignIn(ctx, r.PostForm)
	if res.OK() {
		token, err := h.Sessions.Issue(account.ID, string(account.Role))
		if err != nil {
			log.Error("failed to issue session token", "err", err)
			writeResult(w, domain.Denied(action.WarnServerError))
			return
		}
		h.Sessions.SetCookie(w, token)
	}
	writeResult(w, res)
}

type SignOutHandler struct {
	Sessions *sessionx.Manager
}

// ServeHTTP godoc
//
//	@Summary		Sign Out Action
//	@Description	Clears the session cookie. Always succeeds, even without a session.
//	@Tags			Actions
//	@Produce		json
//	@Success		200	{object}	formsdk.ActionResult	"message, success"
//	@Router			/v1/actions/sign-out [post].
func (h *SignOutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	writeResult(w, domain.Committed(action.MsgSignedOut))
}

type ForgotPasswordHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Forgot Password Action
//	@Description	Mints a reset token and emails the link. The success result is identical whether or not the email is registered.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email	formData	string					true	"Email address"
//	@Success		200		{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400		{object}	formsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/actions/forgot-password [post].
func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.ForgotPassword(r.Context(), r.PostForm))
}

type ResetPasswordHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Reset Password Action
//	@Description	Redeems a single-use reset token and replaces the password. A used or expired token yields a TokenInvalidOrUsed warning.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email					formData	string					true	"Email address"
//	@Param			token					formData	string					true	"Reset token from the emailed link"
//	@Param			password				formData	string					true	"New password (min 8 chars)"
//	@Param			password_confirmation	formData	string					true	"Password confirmation"
//	@Success		200						{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/actions/reset-password [post].
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.ResetPassword(r.Context(), r.PostForm))
}

type VerifyEmailHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Verify Email Action
//	@Description	Redeems a single-use verification token and stamps the account as verified.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email	formData	string					true	"Email address"
//	@Param			token	formData	string					true	"Verification token from the emailed link"
//	@Success		200		{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400		{object}	formsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/actions/verify-email [post].
func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.VerifyEmail(r.Context(), r.PostForm))
}
