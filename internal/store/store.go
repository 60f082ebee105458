package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"album-engine/internal/logging"
	"album-engine/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Resolver reports whether an asset id still exists in the library.
// Reads use it to prune stale references lazily.
type Resolver func(assetID string) bool

// Store persists smart albums in SQLite.
type Store struct {
	db       *sql.DB
	dbPath   string
	mu       sync.RWMutex
	resolver Resolver
	txStart  time.Time
}

// New opens (or creates) the album database at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Album database path: %s", dbPath)

	// WAL mode and a busy timeout keep concurrent readers from tripping
	// over the pipeline's batch writer.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=ON", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize album schema: %w", err)
	}

	if count, err := s.Count(ctx); err == nil {
		metrics.StoreAlbumsTotal.Set(float64(count))
	}

	logging.Info("Album database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS albums (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		relevance_score REAL NOT NULL,
		thumbnail_asset_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_albums_created_at ON albums(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_albums_score ON albums(relevance_score DESC);

	CREATE TABLE IF NOT EXISTS album_tags (
		album_id TEXT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (album_id, position)
	);

	CREATE TABLE IF NOT EXISTS album_assets (
		album_id TEXT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		asset_id TEXT NOT NULL,
		PRIMARY KEY (album_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_album_assets_asset ON album_assets(asset_id);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SetResolver installs the library resolver used for lazy pruning of
// stale asset references on reads. Safe to call once during wiring.
func (s *Store) SetResolver(r Resolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = r
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginBatch starts a transaction for batch writes. The caller must
// finish it with EndBatch.
func (s *Store) BeginBatch() (*sql.Tx, error) {
	s.mu.Lock()
	txStart := time.Now()

	// Background context: the transaction's lifetime is managed by
	// EndBatch, not a timeout. A deferred cancel here would kill the
	// transaction as soon as this function returned.
	tx, err := s.db.BeginTx(context.Background(), nil)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.txStart = txStart
	return tx, nil
}

// EndBatch commits the transaction, or rolls it back when err is
// non-nil, and returns the original error in that case.
func (s *Store) EndBatch(tx *sql.Tx, err error) error {
	duration := time.Since(s.txStart).Seconds()

	if err != nil {
		metrics.StoreTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.StoreTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

func observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
