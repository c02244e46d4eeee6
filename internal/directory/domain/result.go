package domain

// ActionResult is the per-submission outcome every form action returns.
// Exactly one of three shapes is populated: field errors (validation
// failed, nothing mutated), a warning (well-formed input denied by a
// business rule), or success with a message key. Values are
// language-neutral keys; rendering them is the UI's concern.
type ActionResult struct {
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
	Success bool                `json:"success,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// Rejected builds a validation-failure result.
func Rejected(errs map[string][]string) ActionResult {
	return ActionResult{Errors: errs}
}

// Denied builds a business-rule denial carrying a non-field warning key.
func Denied(key string) ActionResult {
	return ActionResult{Warning: key}
}

// Committed builds a success result with an optional message key.
func Committed(message string) ActionResult {
	return ActionResult{Success: true, Message: message}
}

// OK reports whether the submission mutated state.
func (r ActionResult) OK() bool { return r.Success }
