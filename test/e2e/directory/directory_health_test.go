package directory_test

import (
	"testing"

	"github.com/backdeskhq/backdesk/pkg/formsdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint works on a
// fresh service.
func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	client := formsdk.NewClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.NotEmpty(t, health.Version)
	require.NotEmpty(t, health.Uptime)
}

// TestReadyzEndpoint verifies the readiness check reports the database
// dependency.
func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	client := formsdk.NewClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}
