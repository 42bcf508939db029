package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pairrank/pairrank/internal/model"
)

// sqliteStore is the modernc.org/sqlite-backed Store, for single-binary
// deploys that want durability without a Postgres server.
type sqliteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lists (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS items (
	list_id   TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	content   TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	seq       INTEGER,
	PRIMARY KEY (list_id, content)
);
CREATE TABLE IF NOT EXISTS comparisons (
	list_id TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	task_a  TEXT NOT NULL,
	task_b  TEXT NOT NULL,
	winner  TEXT NOT NULL,
	ts      DATETIME NOT NULL,
	seq     INTEGER PRIMARY KEY AUTOINCREMENT
);
CREATE INDEX IF NOT EXISTS comparisons_list_id_idx ON comparisons(list_id);
`

func newSQLiteStore(ctx context.Context, dsn string, logger *slog.Logger) (*sqliteStore, error) {
	if dsn == "" {
		dsn = "pairrank.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &sqliteStore{db: db, logger: logger}, nil
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (map[string]*ListSnapshot, error) {
	snapshots := make(map[string]*ListSnapshot)

	listRows, err := s.db.QueryContext(ctx, "SELECT id FROM lists")
	if err != nil {
		return nil, fmt.Errorf("storage: load lists: %w", err)
	}
	for listRows.Next() {
		var id string
		if err := listRows.Scan(&id); err != nil {
			listRows.Close()
			return nil, fmt.Errorf("storage: scan list id: %w", err)
		}
		snapshots[id] = &ListSnapshot{ID: id}
	}
	listRows.Close()
	if err := listRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate lists: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx, "SELECT list_id, content, completed FROM items ORDER BY list_id, seq")
	if err != nil {
		return nil, fmt.Errorf("storage: load items: %w", err)
	}
	for itemRows.Next() {
		var listID, content string
		var completed bool
		if err := itemRows.Scan(&listID, &content, &completed); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("storage: scan item: %w", err)
		}
		snap, ok := snapshots[listID]
		if !ok {
			continue
		}
		snap.Items = append(snap.Items, model.Item{Content: content, Completed: completed})
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate items: %w", err)
	}

	cmpRows, err := s.db.QueryContext(ctx, "SELECT list_id, task_a, task_b, winner, ts FROM comparisons ORDER BY list_id, seq")
	if err != nil {
		return nil, fmt.Errorf("storage: load comparisons: %w", err)
	}
	for cmpRows.Next() {
		var listID, taskA, taskB, winner string
		var ts time.Time
		if err := cmpRows.Scan(&listID, &taskA, &taskB, &winner, &ts); err != nil {
			cmpRows.Close()
			return nil, fmt.Errorf("storage: scan comparison: %w", err)
		}
		snap, ok := snapshots[listID]
		if !ok {
			continue
		}
		snap.Log = append(snap.Log, model.Comparison{TaskA: taskA, TaskB: taskB, Winner: winner, Timestamp: ts})
	}
	cmpRows.Close()
	if err := cmpRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate comparisons: %w", err)
	}

	return snapshots, nil
}

func (s *sqliteStore) EnsureList(ctx context.Context, listID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO lists (id) VALUES (?) ON CONFLICT (id) DO NOTHING`, listID)
	if err != nil {
		return fmt.Errorf("storage: ensure list: %w", err)
	}
	return nil
}

func (s *sqliteStore) AppendComparison(ctx context.Context, listID string, c model.Comparison) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin append tx: %w", err)
	}
	defer tx.Rollback()

	for _, content := range []string{c.TaskA, c.TaskB} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (list_id, content, seq) VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM items)) ON CONFLICT (list_id, content) DO NOTHING`,
			listID, content); err != nil {
			return fmt.Errorf("storage: ensure item %q: %w", content, err)
		}
	}

	// Self-comparisons are appended too, matching liststate.AddComparison:
	// the in-memory log and the durable log must agree on every entry, or
	// total_comparisons and list_comparisons() would shrink across a
	// restart.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO comparisons (list_id, task_a, task_b, winner, ts) VALUES (?, ?, ?, ?, ?)`,
		listID, c.TaskA, c.TaskB, c.Winner, c.Timestamp); err != nil {
		return fmt.Errorf("storage: append comparison: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit append tx: %w", err)
	}
	return nil
}

func (s *sqliteStore) DeleteItem(ctx context.Context, listID string, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM comparisons WHERE list_id = ? AND (task_a = ? OR task_b = ?)`,
		listID, content, content); err != nil {
		return fmt.Errorf("storage: delete comparisons for %q: %w", content, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE list_id = ? AND content = ?`,
		listID, content); err != nil {
		return fmt.Errorf("storage: delete item %q: %w", content, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit delete tx: %w", err)
	}
	return nil
}

var _ Store = (*sqliteStore)(nil)
