// Package snapshot records resolved configurations in a local SQLite
// database so later loads can be checked for drift.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/weftconf/weft/packages/core/config"
	"github.com/weftconf/weft/packages/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	section     TEXT NOT NULL,
	option      TEXT NOT NULL,
	value       TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, section, option)
);
`

// Snapshot is one recorded configuration.
type Snapshot struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Entries   []Entry
}

// Entry is a single flattened option.
type Entry struct {
	Section string
	Option  string
	Value   string
}

// DB wraps the snapshot database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the snapshot database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to snapshot database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Save records every section and option of store under a fresh id.
func (d *DB) Save(ctx context.Context, source string, store *config.Store) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.New().String(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Entries:   Flatten(store),
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, created_at) VALUES (?, ?, ?)`,
		snap.ID, snap.Source, snap.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, e := range snap.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (snapshot_id, section, option, value) VALUES (?, ?, ?, ?)`,
			snap.ID, e.Section, e.Option, e.Value); err != nil {
			return nil, fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logger := logging.GetLogger("snapshot")
	logger.Debug().
		Str("id", snap.ID).
		Str("source", source).
		Int("entries", len(snap.Entries)).
		Msg("snapshot saved")

	return snap, nil
}

// List returns all snapshots, newest first, without entries.
func (d *DB) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, source, created_at FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Source, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snaps, nil
}

// Get loads a snapshot and its entries. A unique id prefix is accepted.
func (d *DB) Get(ctx context.Context, id string) (*Snapshot, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, source, created_at FROM snapshots WHERE id LIKE ? ORDER BY created_at DESC`,
		id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot: %w", err)
	}
	defer rows.Close()

	var matches []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Source, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		matches = append(matches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no snapshot matches %q", id)
	case 1:
	default:
		return nil, fmt.Errorf("snapshot id %q is ambiguous (%d matches)", id, len(matches))
	}

	snap := matches[0]
	if err := d.loadEntries(ctx, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Latest loads the most recent snapshot for source, with entries.
func (d *DB) Latest(ctx context.Context, source string) (*Snapshot, error) {
	var snap Snapshot
	err := d.db.QueryRowContext(ctx,
		`SELECT id, source, created_at FROM snapshots WHERE source = ? ORDER BY created_at DESC, id LIMIT 1`,
		source).Scan(&snap.ID, &snap.Source, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no snapshot recorded for %q", source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot: %w", err)
	}

	if err := d.loadEntries(ctx, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (d *DB) loadEntries(ctx context.Context, snap *Snapshot) error {
	rows, err := d.db.QueryContext(ctx,
		`SELECT section, option, value FROM entries WHERE snapshot_id = ? ORDER BY section, option`,
		snap.ID)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Section, &e.Option, &e.Value); err != nil {
			return fmt.Errorf("failed to scan entry: %w", err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	return rows.Err()
}

// Flatten lists every option of store in declaration order.
func Flatten(store *config.Store) []Entry {
	var entries []Entry
	for _, section := range store.SectionNames() {
		for _, option := range store.OptionNames(section) {
			value, _ := store.Get(section, option)
			entries = append(entries, Entry{Section: section, Option: option, Value: value})
		}
	}
	return entries
}
