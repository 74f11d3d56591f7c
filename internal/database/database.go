package database

import (
	"context"
	"database/sql"
	"fmt"
	"it-asset-tracker/internal/config"
	"log"
	"time"

	_ "github.com/lib/pq"
)

const (
	connectAttempts = 3
	connectBackoff  = 500 * time.Millisecond
)

// InitDB opens the Postgres pool and waits until the server answers a ping.
func InitDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pool := cfg.Database
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := waitForDB(db, pool.ConnectTimeout); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// waitForDB pings up to connectAttempts times, each bounded by timeout,
// doubling the pause between attempts.
func waitForDB(db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var err error
	backoff := connectBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < connectAttempts {
			log.Printf("Database not ready (attempt %d/%d): %v", attempt, connectAttempts, err)
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
}
