package testutil

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/database/postgres"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
)

// ShouldRunDatabaseTests checks if database tests should be executed.
func ShouldRunDatabaseTests() bool {
	return os.Getenv("RUN_DB_TESTS") == "1"
}

// NewIsolatedPostgres connects to a fresh schema, applies migrations and drops the schema on cleanup.
// The test is skipped unless RUN_DB_TESTS=1.
func NewIsolatedPostgres(t *testing.T, cfg *platformconfig.Config) *postgres.Client {
	t.Helper()

	if !ShouldRunDatabaseTests() {
		t.Skip("RUN_DB_TESTS not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := postgres.NewClient(ctx, cfg.Database.Postgres)
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL: %v", err)
	}

	suffix := strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")[:16]
	schema := fmt.Sprintf("test_%s_%s", SanitizeTestName(t.Name()), suffix)
	if _, err := admin.DB().ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA %q`, schema)); err != nil {
		admin.Close()
		t.Fatalf("failed to create schema %s: %v", schema, err)
	}

	pgCfg := cfg.Database.Postgres
	pgCfg.DSN = ""
	pgCfg.Schema = schema
	client, err := postgres.NewClient(ctx, pgCfg)
	if err != nil {
		admin.Close()
		t.Fatalf("failed to connect to schema %s: %v", schema, err)
	}
	if _, err := client.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema %s: %v", schema, err)
	}

	t.Cleanup(func() {
		client.Close()
		_, _ = admin.DB().ExecContext(context.Background(), fmt.Sprintf(`DROP SCHEMA %q CASCADE`, schema))
		admin.Close()
	})

	return client
}

var nonIdent = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// SanitizeTestName sanitizes a test name for use as a schema identifier
func SanitizeTestName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ToLower(nonIdent.ReplaceAllString(name, ""))

	// 63-character identifier limit, minus "test_" and "_" plus the 16-char suffix
	const maxTestNameLength = 41
	if len(name) > maxTestNameLength {
		name = name[:maxTestNameLength]
	}
	return name
}

// InsertUser adds an active user row so owned records can reference it.
func InsertUser(t *testing.T, client *postgres.Client, email string) uuid.UUID {
	t.Helper()

	id := uuid.Must(uuid.NewV4())
	_, err := client.DB().ExecContext(context.Background(),
		`INSERT INTO users (id, email, password_hash, is_active) VALUES ($1, $2, $3, TRUE)`,
		id, email, []byte("x"))
	if err != nil {
		t.Fatalf("failed to insert user %s: %v", email, err)
	}
	return id
}
