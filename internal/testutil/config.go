package testutil

import (
	"os"
	"testing"

	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// NewTestConfig builds a validated config with fresh JWT keys and an in-memory cache.
// overrides are applied on top of the defaults using the same env var names as production.
func NewTestConfig(t *testing.T, overrides map[string]string) *platformconfig.Config {
	t.Helper()

	pub, priv := GenerateECDSAKeyPairPEM(t)
	env := map[string]string{
		"JWT_PUBLIC_KEY":        pub,
		"JWT_PRIVATE_KEY":       priv,
		"WEB_DOMAIN":            "http://mailer.test",
		"SMTP_EMAIL":            "noreply@mailer.test",
		"CACHE_BACKEND":         "memory",
		"MAILING_SEND_INTERVAL": "10ms",
		"POSTGRES_HOST":         getEnv("POSTGRES_HOST", "127.0.0.1"),
		"POSTGRES_USERNAME":     getEnv("POSTGRES_USERNAME", "postgres"),
		"POSTGRES_PASSWORD":     getEnv("POSTGRES_PASSWORD", "postgres"),
		"POSTGRES_DATABASE":     getEnv("POSTGRES_DATABASE", "mailer_test"),
		"POSTGRES_DSN":          os.Getenv("POSTGRES_DSN"),
	}
	for k, v := range overrides {
		env[k] = v
	}

	cfg, err := platformconfig.LoadFromMap(env)
	require.NoError(t, err)
	return cfg
}

func getEnv(key, defVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defVal
}
