package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the sqlite-backed store: booking rows, the slot-cell ledger, the rate
// schedule and the sheets sync queue. Multi-statement check-then-set sequences
// run inside a transaction under a per-date mutex, so reservations for
// different dates never block each other.
type DB struct {
	*sql.DB
	logger *zerolog.Logger

	mu        sync.Mutex
	dateLocks map[string]*sync.Mutex
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite permits a single writer; one pooled connection keeps
	// transactions from tripping over SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")

	return &DB{
		DB:        sqlDB,
		logger:    logger,
		dateLocks: make(map[string]*sync.Mutex),
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL UNIQUE,
            booking_number TEXT NOT NULL UNIQUE,
            customer_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            slot_hours TEXT NOT NULL,
            total_amount INTEGER NOT NULL,
            advance_payment INTEGER NOT NULL,
            remaining_payment INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            payment_method TEXT,
            payment_proof_ref TEXT,
            pending_expires_at DATETIME,
            cancelled_reason TEXT,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		// Per-hour rate snapshot taken at creation time.
		`CREATE TABLE IF NOT EXISTS booking_slots (
            booking_id INTEGER NOT NULL,
            hour INTEGER NOT NULL,
            rate INTEGER NOT NULL,
            is_night BOOLEAN NOT NULL DEFAULT 0,
            PRIMARY KEY (booking_id, hour)
        )`,

		// The ledger. Cells exist only while held or booked; the uniqueness
		// constraint is the at-most-one-active-claim invariant per (date, hour).
		`CREATE TABLE IF NOT EXISTS slot_cells (
            date TEXT NOT NULL,
            hour INTEGER NOT NULL,
            status TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            UNIQUE (date, hour)
        )`,

		`CREATE TABLE IF NOT EXISTS payments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL,
            amount INTEGER NOT NULL,
            method TEXT,
            proof_ref TEXT,
            created_at DATETIME NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS rate_schedule (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            day_rate INTEGER NOT NULL,
            night_rate INTEGER NOT NULL,
            night_start_hour INTEGER NOT NULL,
            night_end_hour INTEGER NOT NULL,
            updated_at DATETIME NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_expiry ON bookings(status, pending_expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_slot_cells_booking ON slot_cells(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// dateLock returns the mutex guarding all cell mutations for one calendar
// date. Exclusion granularity is per date, never global.
func (db *DB) dateLock(dateKey string) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()
	lock, ok := db.dateLocks[dateKey]
	if !ok {
		lock = &sync.Mutex{}
		db.dateLocks[dateKey] = lock
	}
	return lock
}

// inPlaceholders builds "?, ?, ?" for IN clauses.
func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (db *DB) Close() error {
	return db.DB.Close()
}
