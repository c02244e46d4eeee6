package http

import (
	"errors"
	"net/http"

	"github.com/backdeskhq/backdesk/internal/directory/domain"
	"github.com/backdeskhq/backdesk/internal/directory/service"
	"github.com/backdeskhq/backdesk/pkg/formsdk"
	"github.com/backdeskhq/backdesk/pkg/httpx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleList godoc
//
//	@Summary		List Accounts Endpoint
//	@Description	Returns the non-deleted accounts with the given role, newest first. Backs the two admin list views.
//	@Tags			Directory
//	@Produce		json
//	@Param			role	query		string					true	"ADMIN or USER"
//	@Success		200		{object}	formsdk.AccountsResponse	"accounts"
//	@Failure		400		{object}	formsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	formsdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	formsdk.ErrorResponse		"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/accounts [get].
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	role, ok := domain.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		httpx.WriteJSON(w, http.StatusBadRequest, formsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "role must be ADMIN or USER",
		})
		return
	}

	accounts, err := h.AccountService.List(ctx, role)
	if err != nil {
		log.Error("failed to list accounts", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, formsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to list accounts",
		})
		return
	}

	listing := formsdk.AccountsResponse{
		Accounts: make([]formsdk.Account, 0, len(accounts)),
	}
	for _, a := range accounts {
		listing.Accounts = append(listing.Accounts, toWireAccount(a))
	}

	httpx.WriteJSON(w, http.StatusOK, listing)
}

// HandleGet godoc
//
//	@Summary		Get Account Endpoint
//	@Description	Returns one non-deleted account by id.
//	@Tags			Directory
//	@Produce		json
//	@Param			id	path		string					true	"Account id"
//	@Success		200	{object}	formsdk.Account			"account"
//	@Failure		401	{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	formsdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	formsdk.ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/accounts/{id} [get].
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	account, err := h.AccountService.Get(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, formsdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "No such account",
			})
			return
		}
		log.Error("failed to fetch account", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, formsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to fetch account",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toWireAccount(account))
}

func toWireAccount(a domain.Account) formsdk.Account {
	return formsdk.Account{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Role:          string(a.Role),
		EmailVerified: a.Verified(),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
