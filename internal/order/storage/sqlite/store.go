// Package sqlite provides a SQLite-backed implementation of storage.Store.
//
// The order collection is kept as a single versioned JSON snapshot row, not
// one row per order: the engine always replaces the whole collection, so a
// snapshot matches the write pattern exactly and keeps recovery trivial.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zestora/zestora-orders/internal/order/domain"
	"github.com/zestora/zestora-orders/internal/order/storage"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps Docker/Alpine builds simple.
	_ "modernc.org/sqlite"
)

// SchemaVersion guards the snapshot payload shape. Bump it when the order
// JSON layout changes incompatibly; old snapshots are then discarded instead
// of being half-parsed into corrupt state.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS order_snapshots (
    -- Fixed logical name of the collection (storage.SnapshotName).
    name        TEXT    PRIMARY KEY,

    -- Schema version of the payload. Mismatches are treated as absent data.
    version     INTEGER NOT NULL,

    -- JSON array of orders, most recent first.
    payload     TEXT    NOT NULL,

    -- Wall-clock timestamp of the last write (RFC3339 TEXT, SQLite idiom).
    updated_at  TEXT    NOT NULL
);
`

// Store is the SQLite implementation of storage.Store.
type Store struct {
	db   *sql.DB
	name string
	log  *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// WAL mode is enabled so a reader never blocks the engine's writes.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	// "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, name: storage.SnapshotName, log: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the snapshot. A missing row, a version mismatch, or a payload
// that fails to decode all yield an empty collection: a corrupt snapshot
// must never prevent the service from starting.
func (s *Store) Load(ctx context.Context) ([]*domain.Order, error) {
	const q = `SELECT version, payload FROM order_snapshots WHERE name = ?`

	var version int
	var payload string
	err := s.db.QueryRowContext(ctx, q, s.name).Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load snapshot %q: %w", s.name, err)
	}

	if version != SchemaVersion {
		s.log.Warn("discarding order snapshot with unknown schema version",
			"name", s.name, "version", version, "expected", SchemaVersion)
		return nil, nil
	}

	var orders []*domain.Order
	if err := json.Unmarshal([]byte(payload), &orders); err != nil {
		s.log.Warn("discarding malformed order snapshot", "name", s.name, "error", err)
		return nil, nil
	}
	return orders, nil
}

// Save replaces the snapshot atomically via upsert.
func (s *Store) Save(ctx context.Context, orders []*domain.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("sqlite: encode snapshot: %w", err)
	}

	const q = `
		INSERT INTO order_snapshots (name, version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version    = excluded.version,
			payload    = excluded.payload,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, q,
		s.name,
		SchemaVersion,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save snapshot %q: %w", s.name, err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
