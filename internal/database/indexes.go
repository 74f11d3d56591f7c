package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

const createSerialIndex = `
	CREATE UNIQUE INDEX IF NOT EXISTS assets_serial_number_key
	ON assets (serial_number)
	WHERE serial_number IS NOT NULL AND serial_number <> ''`

// RepairFunc rewrites conflicting rows so a unique index can be built.
type RepairFunc func(ctx context.Context) error

// SyncIndexes creates the unique serial number index. If existing rows
// violate it, repair runs once and the index build is retried.
func SyncIndexes(ctx context.Context, db *sql.DB, repair RepairFunc, logger *log.Logger) error {
	err := execIndex(ctx, db)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) || repair == nil {
		return fmt.Errorf("failed to create serial number index: %w", err)
	}

	logger.Printf("Duplicate serial numbers block the unique index, repairing: %v", err)
	if err := repair(ctx); err != nil {
		return fmt.Errorf("failed to repair duplicate serial numbers: %w", err)
	}

	if err := execIndex(ctx, db); err != nil {
		return fmt.Errorf("failed to create serial number index after repair: %w", err)
	}
	logger.Printf("Serial number index created after repair")
	return nil
}

func execIndex(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := db.ExecContext(ctx, createSerialIndex)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
