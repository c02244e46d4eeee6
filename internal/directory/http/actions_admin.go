package http

import (
	"net/http"

	"github.com/backdeskhq/backdesk/internal/directory/action"
)

type SaveAccountHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Save Account Action
//	@Description	Creates or updates a directory account. The submission edits an existing record when the id field carries a valid ULID; otherwise it creates one and dispatches a verification email.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			id						formData	string					false	"Account id (ULID); present for edits"
//	@Param			name					formData	string					true	"Display name"
//	@Param			email					formData	string					true	"Email address"
//	@Param			role					formData	string					true	"ADMIN or USER"
//	@Param			password				formData	string					false	"Password (required on create, optional on edit)"
//	@Param			password_confirmation	formData	string					false	"Password confirmation"
//	@Success		200						{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		403						{object}	formsdk.ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/actions/save-account [post].
func (h *SaveAccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.SaveAccount(r.Context(), callerIdentity(r), r.PostForm))
}

type DeleteUserHandler struct {
	Dispatcher *action.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Delete User Action
//	@Description	Soft-deletes a target account. An admin deleting their own account through this path receives a SelfDeleteNotAllowed warning and the record stays.
//	@Tags			Actions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			id	formData	string					true	"Target account id"
//	@Success		200	{object}	formsdk.ActionResult	"errors, message, success, warning"
//	@Failure		400	{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		401	{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	formsdk.ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/actions/delete-user [post].
func (h *DeleteUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseActionForm(w, r) {
		return
	}
	writeResult(w, h.Dispatcher.DeleteUser(r.Context(), callerIdentity(r), r.PostForm))
}
