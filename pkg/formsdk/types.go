package formsdk

import "time"

// Operation names the form actions the service exposes. Values match
// the /v1/actions/{operation} path segments.
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

// Role values as the directory stores them.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// ActionResult is the outcome of one form submission. Exactly one of
// three shapes is populated: Errors (validation failed), Warning (a
// business rule denied well-formed input), or Success with an optional
// Message key. All values are language-neutral keys.
type ActionResult struct {
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
	Success bool                `json:"success,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// OK reports whether the submission mutated state.
func (r ActionResult) OK() bool { return r.Success }

// HasFieldErrors reports whether validation rejected the submission.
func (r ActionResult) HasFieldErrors() bool { return len(r.Errors) > 0 }

// Account is a directory record as the read endpoints return it. The
// password hash never leaves the server.
type Account struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountsResponse wraps the directory listing.
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// ErrorResponse is the transport-level error shape (401/403/429/5xx).
// Action outcomes never use it; they ride in ActionResult.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
}
