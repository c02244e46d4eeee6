package directory_test

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/backdeskhq/backdesk/pkg/formsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for directory service
 * end-to-end tests: container setup, account fixtures, assertions.
 */

const (
	testImageName = "backdesk-directory-test:latest"

	adminName     = "Primary Admin"
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!pass"
)

// TestMain manages the test lifecycle, builds the Docker image once
// before all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Directory Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Directory Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/backdesk/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

func baseContainerEnv() map[string]string {
	return map[string]string{
		"DIRECTORY_DATABASE_FILE":       "/tmp/directory.db",
		"DIRECTORY_PEPPER_FILE":         "/tmp/pepper",
		"DIRECTORY_SESSION_SECRET_FILE": "/tmp/session.key",
		"DIRECTORY_ISSUER":              "backdesk-directory",
		"ENV":                           "test",
		"LOG_LEVEL":                     "info",
		"LOG_FORMAT":                    "json",
	}
}

// setupDirectoryContainer starts the directory service with relaxed
// rate limits so rapid test traffic never trips the strict production
// profiles. Rate limit behaviour itself is covered by
// setupDirectoryContainerWithDefaultRateLimits.
func setupDirectoryContainer(t *testing.T) (string, func()) {
	t.Helper()

	env := baseContainerEnv()
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"

	return startContainer(t, env)
}

// setupDirectoryContainerWithDefaultRateLimits starts the service with
// production rate limits, for testing that limiting actually works.
func setupDirectoryContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseContainerEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// registerAdmin creates the first admin through the public form. The
// returned client holds the admin session cookie.
func registerAdmin(t *testing.T, baseURL string) *formsdk.Client {
	t.Helper()

	client := formsdk.NewClient(baseURL)
	res, err := client.CreateAdmin(t.Context(), url.Values{
		"name":                  {adminName},
		"email":                 {adminEmail},
		"password":              {adminPassword},
		"password_confirmation": {adminPassword},
	})
	require.NoError(t, err)
	assertCommitted(t, res, "AccountCreated")

	return client
}

// createUser has the admin client create a USER account and returns
// its directory id.
func createUser(t *testing.T, admin *formsdk.Client, name, email, password string) string {
	t.Helper()

	res, err := admin.SaveAccount(t.Context(), url.Values{
		"name":                  {name},
		"email":                 {email},
		"role":                  {formsdk.RoleUser},
		"password":              {password},
		"password_confirmation": {password},
	})
	require.NoError(t, err)
	assertCommitted(t, res, "AccountCreated")

	users, err := admin.ListAccounts(t.Context(), formsdk.RoleUser)
	require.NoError(t, err)
	for _, u := range users {
		if u.Email == email {
			return u.ID
		}
	}

	t.Fatalf("created user %s not found in listing", email)
	return ""
}

// signIn returns a fresh client holding a session for the given
// credentials.
func signIn(t *testing.T, baseURL, email, password string) *formsdk.Client {
	t.Helper()

	client := formsdk.NewClient(baseURL)
	res, err := client.SignIn(t.Context(), url.Values{
		"email":    {email},
		"password": {password},
	})
	require.NoError(t, err)
	assertCommitted(t, res, "SignedIn")

	return client
}

// assertCommitted verifies a successful action result with the
// expected message key.
func assertCommitted(t *testing.T, res formsdk.ActionResult, message string) {
	t.Helper()
	require.True(t, res.OK(), "expected success, got %+v", res)
	require.Equal(t, message, res.Message)
	require.Empty(t, res.Warning)
	require.Empty(t, res.Errors)
}

// assertDenied verifies a business-rule denial with the expected
// warning key.
func assertDenied(t *testing.T, res formsdk.ActionResult, warning string) {
	t.Helper()
	require.False(t, res.OK(), "expected denial, got %+v", res)
	require.Equal(t, warning, res.Warning)
	require.Empty(t, res.Errors)
}

// assertUnauthorized checks that an error is a 401 APIError.
func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)

	var apiErr *formsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.StatusCode)
}

// assertForbidden checks that an error is a 403 APIError.
func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)

	var apiErr *formsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 403, apiErr.StatusCode)
}
