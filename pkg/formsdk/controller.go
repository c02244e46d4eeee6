package formsdk

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// ErrSubmissionPending is returned when Submit is called while a prior
// submission is still in flight. The duplicate attempt is dropped, not
// queued.
var ErrSubmissionPending = errors.New("formsdk: submission already in flight")

// sensitiveFields are cleared after a successful submission.
var sensitiveFields = []string{"password", "password_confirmation", "current_password"}

// SubmitFunc delivers a snapshot of field values for one operation.
// Client.Submit satisfies it directly.
type SubmitFunc func(ctx context.Context, op Operation, fields url.Values) (ActionResult, error)

// FormController holds one form's field values, its last ActionResult,
// and a pending flag. Submitting while pending is suppressed; on field
// errors the entered values are retained so corrections are additive;
// on success the sensitive fields are cleared.
type FormController struct {
	op     Operation
	submit SubmitFunc

	mu      sync.Mutex
	values  url.Values
	pending bool
	last    *ActionResult
}

// NewFormController creates a controller for one operation.
func NewFormController(op Operation, submit SubmitFunc) *FormController {
	return &FormController{
		op:     op,
		submit: submit,
		values: url.Values{},
	}
}

// Set stores a field value.
func (f *FormController) Set(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values.Set(field, value)
}

// Value returns the current value of a field.
func (f *FormController) Value(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Get(field)
}

// Values returns a copy of the current field values.
func (f *FormController) Values() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneValues(f.values)
}

// Pending reports whether a submission is in flight.
func (f *FormController) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Result returns the last ActionResult, if any submission completed.
func (f *FormController) Result() (ActionResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return ActionResult{}, false
	}
	return *f.last, true
}

// Reset clears all field values and the stored result.
func (f *FormController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = url.Values{}
	f.last = nil
}

// Submit snapshots the current values and invokes the submit function
// exactly once. A call while a prior submission is pending returns
// ErrSubmissionPending without touching the network. Transport failures
// leave the stored values and last result untouched, so the caller can
// resubmit.
func (f *FormController) Submit(ctx context.Context) (ActionResult, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return ActionResult{}, ErrSubmissionPending
	}
	f.pending = true
	snapshot := cloneValues(f.values)
	f.mu.Unlock()

	result, err := f.submit(ctx, f.op, snapshot)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false

	if err != nil {
		return ActionResult{}, err
	}

	f.last = &result
	if result.OK() {
		for _, field := range sensitiveFields {
			f.values.Del(field)
		}
	}
	return result, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
