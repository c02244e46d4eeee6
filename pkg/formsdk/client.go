package formsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client talks to the directory service. The cookie jar carries the
// session cookie set by sign-in across subsequent calls, matching how
// a browser drives the same endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a directory client with its own cookie jar.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// Submit posts a form to an action endpoint and decodes the
// ActionResult. Validation errors and business warnings are data on
// the result, not Go errors; only transport failures error.
func (c *Client) Submit(ctx context.Context, op Operation, fields url.Values) (ActionResult, error) {
	endpoint := c.BaseURL + "/v1/actions/" + string(op)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(fields.Encode()))
	if err != nil {
		return ActionResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ActionResult{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ActionResult{}, parseAPIError(resp)
	}

	var result ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ActionResult{}, fmt.Errorf("failed to decode action result: %w", err)
	}
	return result, nil
}

// CreateAdmin submits the public admin-registration form.
func (c *Client) CreateAdmin(ctx context.Context, fields url.Values) (ActionResult, error) {
	return c.Submit(ctx, OpCreateAdmin, fields)
}

// SignIn submits the login form. On success the session cookie lands in
// the client's jar.
func (c *Client) SignIn(ctx context.Context, fields url.Values) (ActionResult, error) {
	return c.Submit(ctx, OpSignIn, fields)
}

// SignOut clears the server-side session cookie.
func (c *Client) SignOut(ctx context.Context) (ActionResult, error) {
	return c.Submit(ctx, OpSignOut, url.Values{})
}

// SaveAccount submits the admin create-or-update form.
func (c *Client) SaveAccount(ctx context.Context, fields url.Values) (ActionResult, error) {
	return c.Submit(ctx, OpSaveAccount, fields)
}

// DeleteUser submits the admin-delete form for the given target id.
func (c *Client) DeleteUser(ctx context.Context, id string) (ActionResult, error) {
	return c.Submit(ctx, OpDeleteUser, url.Values{"id": {id}})
}

// UpdateProfile submits the self-service name/email form.
func (c *Client) UpdateProfile(ctx context.Context, fields url.Values) (ActionResult, error) {
	return c.Submit(ctx, OpUpdateProfile, fields)
}

// UpdatePassword submits the self-service password-change form.
func (c *Client) UpdatePassword(ctx context.Context, fields url.Values) (ActionResult, error) {
	return c.Submit(ctx, OpUpdatePassword, fields)
}

// DeleteSelf submits the password-confirmed self-delete form.
func (c *Client) DeleteSelf(ctx context.Context, password string) (ActionResult, error) {
	return c.Submit(ctx, OpDeleteSelf, url.Values{"password": {password}})
}

// ForgotPassword requests a reset link for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (ActionResult, error) {
	return c.Submit(ctx, OpForgotPassword, url.Values{"email": {email}})
}

// ResetPassword redeems a reset link.
func (c *Client) ResetPassword(ctx context.Context, fields url.Values) (ActionResult, error) {
	return c.Submit(ctx, OpResetPassword, fields)
}

// VerifyEmail redeems a verification link.
func (c *Client) VerifyEmail(ctx context.Context, email, token string) (ActionResult, error) {
	return c.Submit(ctx, OpVerifyEmail, url.Values{
		"email": {email},
		"token": {token},
	})
}

// ListAccounts fetches the directory listing for a role. Requires an
// admin session in the jar.
func (c *Client) ListAccounts(ctx context.Context, role string) ([]Account, error) {
	endpoint := c.BaseURL + "/v1/accounts?" + url.Values{"role": {role}}.Encode()

	var listing AccountsResponse
	if err := c.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, err
	}
	return listing.Accounts, nil
}

// GetAccount fetches a single account by id. Requires an admin session
// in the jar.
func (c *Client) GetAccount(ctx context.Context, id string) (Account, error) {
	var account Account
	if err := c.getJSON(ctx, c.BaseURL+"/v1/accounts/"+id, &account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// GetLiveness checks the service health endpoint.
func (c *Client) GetLiveness(ctx context.Context) (HealthResponse, error) {
	var health HealthResponse
	if err := c.getJSON(ctx, c.BaseURL+"/livez", &health); err != nil {
		return HealthResponse{}, err
	}
	return health, nil
}

// GetReadiness checks the readiness endpoint, which includes the
// database dependency check.
func (c *Client) GetReadiness(ctx context.Context) (HealthResponse, error) {
	var health HealthResponse
	if err := c.getJSON(ctx, c.BaseURL+"/readyz", &health); err != nil {
		return HealthResponse{}, err
	}
	return health, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
