// Package action orchestrates one form submission end to end:
// validate, authorize, mutate, respond. Every outcome is data in an
// ActionResult; the dispatcher never returns validation or business
// failures as errors.
package action

import "github.com/backdeskhq/backdesk/internal/directory/domain"

// Operation names the form actions the dispatcher handles. The values
// double as the action endpoint path segments.
type Operation string

const (
	OpCreateAdmin    Operation = "create-admin"
	OpSaveAccount    Operation = "save-account"
	OpSignIn         Operation = "sign-in"
	OpSignOut        Operation = "sign-out"
	OpUpdateProfile  Operation = "update-profile"
	OpUpdatePassword Operation = "update-password"
	OpDeleteUser     Operation = "delete-user"
	OpDeleteSelf     Operation = "delete-self"
	OpForgotPassword Operation = "forgot-password"
	OpResetPassword  Operation = "reset-password"
	OpVerifyEmail    Operation = "verify-email"
)

// Business warning keys. These attach to well-formed submissions that a
// rule denies, as opposed to per-field validation errors.
const (
	WarnEmailAlreadyRegistered   = "EmailAlreadyRegistered"
	WarnCredentialsInvalid       = "CredentialsInvalid"
	WarnPasswordCurrentIncorrect = "PasswordCurrentIncorrect"
	WarnTokenInvalidOrUsed       = "TokenInvalidOrUsed"
	WarnSelfDeleteNotAllowed     = "SelfDeleteNotAllowed"
	WarnAccountNotFound          = "AccountNotFound"
	WarnAdminRequired            = "AdminRequired"

	// WarnServerError is the generic infrastructure-failure key. The
	// client renders it as "try again"; details stay in the server log.
	WarnServerError = "ServerError"
)

// Success message keys.
const (
	MsgAccountCreated  = "AccountCreated"
	MsgAccountSaved    = "AccountSaved"
	MsgSignedIn        = "SignedIn"
	MsgSignedOut       = "SignedOut"
	MsgProfileSaved    = "Saved"
	MsgPasswordUpdated = "PasswordUpdated"
	MsgAccountDeleted  = "AccountDeleted"
	MsgResetLinkSent   = "ResetLinkSent"
	MsgPasswordReset   = "PasswordReset"
	MsgEmailVerified   = "EmailVerified"
)

// Identity is the caller resolved by the session gate. Zero value means
// anonymous.
type Identity struct {
	AccountID string
	Role      domain.Role
}

// IsAdmin reports whether the caller may use admin-management
// operations.
func (i Identity) IsAdmin() bool { return i.Role == domain.RoleAdmin }
