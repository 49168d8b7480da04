package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempSecrets(t *testing.T) string {
	t.Helper()
	old := SecretsDir
	SecretsDir = t.TempDir()
	t.Cleanup(func() { SecretsDir = old })
	return SecretsDir
}

func setAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORTAL_LOGIN_URL", "PORTAL_USER", "PORTAL_PASS",
		"WHMCS_API_URL", "WHMCS_API_IDENTIFIER", "WHMCS_API_SECRET",
	} {
		t.Setenv(key, "env-"+key)
	}
}

func TestGetSecretPrefersSecretFile(t *testing.T) {
	dir := useTempSecrets(t)

	t.Setenv("PORTAL_PASS", "from-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PORTAL_PASS"), []byte("from-file\n"), 0o600))

	assert.Equal(t, "from-file", GetSecret("PORTAL_PASS"))
}

func TestGetSecretFallsBackToEnv(t *testing.T) {
	useTempSecrets(t)
	t.Setenv("PORTAL_USER", "  auditor  ")

	assert.Equal(t, "auditor", GetSecret("PORTAL_USER"))
	assert.Equal(t, "", GetSecret("NO_SUCH_KEY"))
}

func TestLoadComplete(t *testing.T) {
	useTempSecrets(t)
	setAllEnv(t)
	t.Setenv("AUDITOR_UI_PASSWORD_HASH", "$2a$10$fakehash")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-PORTAL_LOGIN_URL", cfg.LoginURL)
	assert.Equal(t, "env-WHMCS_API_SECRET", cfg.BillingSecret)
	assert.Equal(t, "$2a$10$fakehash", cfg.UIPasswordHash)
}

// Every missing key is reported at once, before any network traffic.
func TestLoadReportsAllMissingKeys(t *testing.T) {
	useTempSecrets(t)
	setAllEnv(t)
	t.Setenv("PORTAL_PASS", "")
	t.Setenv("WHMCS_API_SECRET", "")

	_, err := Load()
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"PORTAL_PASS", "WHMCS_API_SECRET"}, missing.Keys)
}
