package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir is where Docker Swarm mounts secrets. A file named after the
// key wins over the environment variable of the same name.
var SecretsDir = "/run/secrets"

// Config holds every credential the auditor needs. Loaded once at startup,
// before any network call.
type Config struct {
	LoginURL   string // portal login page (also the root for report pages)
	PortalUser string
	PortalPass string

	BillingAPIURL     string
	BillingIdentifier string
	BillingSecret     string

	// Optional bcrypt hash guarding the web front-end. Empty = no guard.
	UIPasswordHash string
}

// MissingError lists every required key that could not be resolved, so the
// operator fixes them all in one go instead of one restart at a time.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing credentials: " + strings.Join(e.Keys, ", ")
}

// GetSecret resolves a key from the secrets dir first, then the environment.
// Returns "" when neither has it.
func GetSecret(key string) string {
	if data, err := os.ReadFile(filepath.Join(SecretsDir, key)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(os.Getenv(key))
}

// Load resolves all credentials and fails with a MissingError naming every
// absent required key.
func Load() (*Config, error) {
	cfg := &Config{
		LoginURL:          GetSecret("PORTAL_LOGIN_URL"),
		PortalUser:        GetSecret("PORTAL_USER"),
		PortalPass:        GetSecret("PORTAL_PASS"),
		BillingAPIURL:     GetSecret("WHMCS_API_URL"),
		BillingIdentifier: GetSecret("WHMCS_API_IDENTIFIER"),
		BillingSecret:     GetSecret("WHMCS_API_SECRET"),
		UIPasswordHash:    GetSecret("AUDITOR_UI_PASSWORD_HASH"),
	}

	required := []struct {
		key   string
		value string
	}{
		{"PORTAL_LOGIN_URL", cfg.LoginURL},
		{"PORTAL_USER", cfg.PortalUser},
		{"PORTAL_PASS", cfg.PortalPass},
		{"WHMCS_API_URL", cfg.BillingAPIURL},
		{"WHMCS_API_IDENTIFIER", cfg.BillingIdentifier},
		{"WHMCS_API_SECRET", cfg.BillingSecret},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Keys: missing}
	}

	fmt.Println("🔐 Credentials loaded (secrets dir + environment)")
	return cfg, nil
}
