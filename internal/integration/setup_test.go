package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"it-asset-tracker/internal/config"
	"it-asset-tracker/internal/database"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

const testSecret = "integration-secret-0123456789abcdef"

// loadTestConfig loads configuration for testing
func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5452"))
	if err != nil {
		t.Fatalf("invalid TEST_DB_PORT: %v", err)
	}

	return &config.Config{
		Port:     8080,
		LogLevel: "info",
		Database: config.DatabaseConfig{
			Host:           getEnv("TEST_DB_HOST", "127.0.0.1"),
			Port:           port,
			User:           getEnv("TEST_DB_USER", "postgres"),
			Password:       getEnv("TEST_DB_PASSWORD", "postgres"),
			Name:           getEnv("TEST_DB_NAME", "postgres"),
			SSLMode:        "disable",
			MaxOpenConns:   10,
			MaxIdleConns:   5,
			ConnectTimeout: 5 * time.Second,
		},
		Security: config.SecurityConfig{
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			EnableCORS:      true,
			AllowedOrigins:  []string{"*"},
		},
		Auth: config.AuthConfig{
			JWTSecret:     testSecret,
			TokenTTL:      time.Hour,
			ResetTokenTTL: time.Hour,
			ResetURL:      "http://localhost:3000/reset-password",
			AdminEmail:    "admin@example.com",
			AdminPassword: "Admin-Passw0rd!",
			BcryptCost:    4,
		},
	}
}

// openTestDatabase connects, migrates and empties the test database. The
// test is skipped when no database is reachable.
func openTestDatabase(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}

	cfg := loadTestConfig(t)
	db, err := database.InitDB(cfg)
	if err != nil {
		t.Skipf("Failed to connect to test database: %v. Ensure test database is running.", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	cleanDatabase(t, db)
	t.Cleanup(func() { cleanDatabase(t, db) })

	return db, cfg
}

// cleanDatabase removes all test data
func cleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec("TRUNCATE TABLE assets, users"); err != nil {
		t.Logf("Warning: Failed to clean database: %v", err)
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helper to create HTTP request with JSON body
func createJSONRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Test helper to parse JSON response
func parseJSONResponse(t *testing.T, resp *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("Failed to decode JSON response: %v. Body: %s", err, resp.Body.String())
	}
}

func strPtr(s string) *string { return &s }
