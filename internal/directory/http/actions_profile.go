package http

import (
	"net/http"

	"github.com/backdeskhq/backdesk/internal/directory/action"
	"github.com/backdeskhq/backdesk/pkg/sessionx"
)

type UpdateProfileHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Update Profile Action
//	@Description	Changes the caller's name and email. A new email already registered to another account yields an EmailAlreadyRegistered warning.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			name	formData	string					true	"Display name"
//	@Param			email	formData	string					true	"Email address"
//	@Success		200		{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400		{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	formsdk.ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/actions/update-profile [post].
func (h *UpdateProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.UpdateProfile(r.Context(), callerIdentity(r), r.PostForm))
}

type UpdatePasswordHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Update Password Action
//	@Description	Re-verifies the current password before replacing the stored hash. A wrong current password yields a PasswordCurrentIncorrect warning.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			current_password		formData	string					true	"Current password"
//	@Param			password				formData	string					true	"New password (min 8 chars)"
//	@Param			password_confirmation	formData	string					true	"Password confirmation"
//	@Success		200						{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/actions/update-password [post].
func (h *UpdatePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.UpdatePassword(r.Context(), callerIdentity(r), r.PostForm))
}

type DeleteSelfHandler struct {
	Dispatcher *action.Dispatcher
	Sessions   *sessionx.Manager
}

// ServeHTTP godoc
//
//	@Summary		Delete Self Action
//	@Description	Soft-deletes the caller's own account after password re-confirmation, then clears the session cookie.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			password	formData	string					true	"Current password"
//	@Success		200			{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400			{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		401			{object}	formsdk.ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/actions/delete-self [post].
func (h *DeleteSelfHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}

	res := h.Dispatcher.DeleteSelf(r.Context(), callerIdentity(r), r.PostForm)
	if res.OK() {
		h.Sessions.ClearCookie(w)
	}
	writeResult(w, res)
}
