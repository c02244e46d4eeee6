package formsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a transport-level failure: the request never reached the
// action pipeline (bad session, rate limit, server fault). Action
// outcomes are never APIErrors; they come back as ActionResult data.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Description, e.StatusCode)
}

// parseAPIError reads an error body from a non-200 response.
func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unexpected_response"
		apiErr.Description = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
