// Package form holds the per-operation validation profiles. Each
// profile checks every rule and returns the full set of violations
// keyed by field, so the client can render all problems in one pass.
package form

import (
	"net/mail"
	"net/url"
	"strings"
)

// Validation message keys. The UI translates these; the pipeline never
// produces human-readable text.
const (
	NameRequired            = "NameRequired"
	EmailInvalid            = "EmailInvalid"
	PasswordMin             = "PasswordMin"
	PasswordMax             = "PasswordMax"
	PasswordRequired        = "PasswordRequired"
	PasswordConfirmRequired = "PasswordConfirmRequired"
	PasswordMatch           = "PasswordMatch"
	PasswordCurrentMin      = "PasswordCurrentMin"
	RoleRequired            = "RoleRequired"
	TokenRequired           = "TokenRequired"
	IDRequired              = "IdRequired"
)

// MinPasswordLength applies wherever a password is being set.
// MaxPasswordLength applies only on sign-in.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 32
)

// Errors maps field names to their ordered violation keys. A nil or
// empty Errors means the submission validated.
type Errors map[string][]string

func (e Errors) add(field, key string) {
	e[field] = append(e[field], key)
}

// Has reports whether the field collected at least one violation.
func (e Errors) Has(field string) bool { return len(e[field]) > 0 }

// check inspects a single value and returns a message key on violation.
type check func(value string) (string, bool)

type rule struct {
	field  string
	checks []check
}

func required(key string) check {
	return func(v string) (string, bool) {
		if strings.TrimSpace(v) == "" {
			return key, false
		}
		return "", true
	}
}

func minLen(n int, key string) check {
	return func(v string) (string, bool) {
		if len(v) < n {
			return key, false
		}
		return "", true
	}
}

func maxLen(n int, key string) check {
	return func(v string) (string, bool) {
		if len(v) > n {
			return key, false
		}
		return "", true
	}
}

func email(key string) check {
	return func(v string) (string, bool) {
		if !emailValid(v) {
			return key, false
		}
		return "", true
	}
}

func role(key string) check {
	return func(v string) (string, bool) {
		if v != "ADMIN" && v != "USER" {
			return key, false
		}
		return "", true
	}
}

// emailValid accepts a bare addr-spec with a dotted domain, matching
// what the browser-side email input lets through.
func emailValid(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// run evaluates rules against the submitted values, collecting every
// violation. Checks for a field run in order and all report.
func run(v url.Values, rules []rule) Errors {
	errs := Errors{}
	for _, r := range rules {
		value := v.Get(r.field)
		for _, c := range r.checks {
			if key, ok := c(value); !ok {
				errs.add(r.field, key)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// confirm applies the password/confirmation match rule. The error
// attaches to the confirmation field, never the password field, and
// the rule only fires once the base rules passed, mirroring how the
// schema refinements behave.
func confirm(v url.Values, base Errors) Errors {
	if len(base) > 0 {
		return base
	}
	if v.Get("password") != v.Get("password_confirmation") {
		errs := Errors{}
		errs.add("password_confirmation", PasswordMatch)
		return errs
	}
	return nil
}

// Mode selects the SaveAccount profile variant. The caller decides
// explicitly whether the submission edits an existing identity; the
// validator never infers it from field presence.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// CreateAdmin validates the public admin-registration submission.
func CreateAdmin(v url.Values) Errors {
	base := run(v, []rule{
		{"name", []check{required(NameRequired)}},
		{"email", []check{email(EmailInvalid)}},
		{"password", []check{minLen(MinPasswordLength, PasswordMin)}},
		{"password_confirmation", []check{required(PasswordConfirmRequired)}},
	})
	return confirm(v, base)
}

// SaveAccount validates the admin create-or-update submission. In edit
// mode password and confirmation become optional, but a supplied
// password must still match its confirmation.
func SaveAccount(v url.Values, mode Mode) Errors {
	rules := []rule{
		{"name", []check{required(NameRequired)}},
		{"email", []check{email(EmailInvalid)}},
		{"role", []check{role(RoleRequired)}},
	}
	if mode == ModeCreate {
		rules = append(rules,
			rule{"password", []check{minLen(MinPasswordLength, PasswordMin)}},
			rule{"password_confirmation", []check{required(PasswordConfirmRequired)}},
		)
	}

	base := run(v, rules)
	if len(base) > 0 {
		return base
	}
	if mode == ModeEdit && v.Get("password") == "" {
		return nil
	}
	return confirm(v, base)
}

// SignIn validates a login submission.
func SignIn(v url.Values) Errors {
	return run(v, []rule{
		{"email", []check{email(EmailInvalid)}},
		{"password", []check{
			minLen(MinPasswordLength, PasswordRequired),
			maxLen(MaxPasswordLength, PasswordMax),
		}},
	})
}

// UpdateProfile validates the self-service name/email submission.
func UpdateProfile(v url.Values) Errors {
	return run(v, []rule{
		{"name", []check{required(NameRequired)}},
		{"email", []check{email(EmailInvalid)}},
	})
}

// UpdatePassword validates the self-service password change.
func UpdatePassword(v url.Values) Errors {
	base := run(v, []rule{
		{"current_password", []check{minLen(MinPasswordLength, PasswordCurrentMin)}},
		{"password", []check{minLen(MinPasswordLength, PasswordMin)}},
		{"password_confirmation", []check{minLen(MinPasswordLength, PasswordConfirmRequired)}},
	})
	return confirm(v, base)
}

// DeleteSelf validates the account-deletion re-confirmation.
func DeleteSelf(v url.Values) Errors {
	return run(v, []rule{
		{"password", []check{minLen(MinPasswordLength, PasswordMin)}},
	})
}

// DeleteUser validates the admin-delete submission.
func DeleteUser(v url.Values) Errors {
	return run(v, []rule{
		{"id", []check{required(IDRequired)}},
	})
}

// ForgotPassword validates a reset-link request.
func ForgotPassword(v url.Values) Errors {
	return run(v, []rule{
		{"email", []check{email(EmailInvalid)}},
	})
}

// ResetPassword validates a reset-link redemption.
func ResetPassword(v url.Values) Errors {
	base := run(v, []rule{
		{"email", []check{email(EmailInvalid)}},
		{"token", []check{required(TokenRequired)}},
		{"password", []check{minLen(MinPasswordLength, PasswordMin)}},
		{"password_confirmation", []check{required(PasswordConfirmRequired)}},
	})
	return confirm(v, base)
}

// VerifyEmail validates an email-verification redemption.
func VerifyEmail(v url.Values) Errors {
	return run(v, []rule{
		{"email", []check{email(EmailInvalid)}},
		{"token", []check{required(TokenRequired)}},
	})
}
