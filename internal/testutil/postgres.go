package testutil

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver

	"github.com/caquick/caquick-api/internal/migrate"
)

// authTables is every table the schema creates, children first.
var authTables = []string{
	"audit_logs",
	"auth_refresh_sessions",
	"seller_credentials",
	"account_identities",
	"user_profiles",
	"accounts",
}

// TestDBConfig points at the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_*. The port defaults to 55432, the docker-compose test
// profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "caquick"),
		Password: envOr("TEST_DB_PASSWORD", "caquick"),
		DBName:   envOr("TEST_DB_NAME", "caquick_test"),
	}
}

// DSN renders the config as a pgx connection URL.
func (c TestDBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(envOr("DB_SSL_MODE", "disable")),
	}
	return u.String()
}

// SetupTestDB returns a migrated database with empty auth tables. It skips the test when
// Postgres is unreachable and closes the pool when the test ends.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()
	cfg := DefaultTestDBConfig()

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		unavailable(t, requireDB(), "open test database: %v", err)
		return nil
	}
	t.Cleanup(func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("close test database: %v", cerr)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	defer pingCancel()
	if err = db.PingContext(pingCtx); err != nil {
		unavailable(t, requireDB(), "test database not reachable at %s:%s (docker compose --profile test up -d): %v",
			cfg.Host, cfg.Port, err)
		return nil
	}

	if err = migrate.Run(ctx, db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	TruncateAuthTables(t, db)
	return db
}

// TruncateAuthTables empties every auth table and resets identity sequences.
func TruncateAuthTables(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stmt := "TRUNCATE " + strings.Join(authTables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		t.Fatalf("truncate auth tables: %v", err)
	}
}
