package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/migrations"
)

// postgresStore is the pgx-backed Store, querying through a pgxpool.Pool.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func newPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*postgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}

	s := &postgresStore{pool: pool, logger: logger}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

func (s *postgresStore) runMigrations(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := migrations.FS.ReadFile(entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		s.logger.Info("running migration", "file", entry.Name())
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *postgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) Load(ctx context.Context) (map[string]*ListSnapshot, error) {
	snapshots := make(map[string]*ListSnapshot)

	listRows, err := s.pool.Query(ctx, "SELECT id FROM lists")
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

	itemRows, err := s.pool.Query(ctx, "SELECT list_id, content, completed FROM items ORDER BY list_id, seq")
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

	cmpRows, err := s.pool.Query(ctx, "SELECT list_id, task_a, task_b, winner, ts FROM comparisons ORDER BY list_id, seq")
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

func (s *postgresStore) EnsureList(ctx context.Context, listID string) error {
	return WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		_, err := s.pool.Exec(ctx, `INSERT INTO lists (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, listID)
		if err != nil {
			return fmt.Errorf("storage: ensure list: %w", err)
		}
		return nil
	})
}

func (s *postgresStore) AppendComparison(ctx context.Context, listID string, c model.Comparison) error {
	return WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("storage: begin append tx: %w", err)
		}
		defer tx.Rollback(ctx)

		for _, content := range []string{c.TaskA, c.TaskB} {
			if _, err := tx.Exec(ctx,
				`INSERT INTO items (list_id, content) VALUES ($1, $2) ON CONFLICT (list_id, content) DO NOTHING`,
				listID, content); err != nil {
				return fmt.Errorf("storage: ensure item %q: %w", content, err)
			}
		}

		// Self-comparisons are appended too, matching liststate.AddComparison:
		// the in-memory log and the durable log must agree on every entry, or
		// total_comparisons and list_comparisons() would shrink across a
		// restart.
		if _, err := tx.Exec(ctx,
			`INSERT INTO comparisons (list_id, task_a, task_b, winner, ts) VALUES ($1, $2, $3, $4, $5)`,
			listID, c.TaskA, c.TaskB, c.Winner, c.Timestamp); err != nil {
			return fmt.Errorf("storage: append comparison: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("storage: commit append tx: %w", err)
		}
		return nil
	})
}

func (s *postgresStore) DeleteItem(ctx context.Context, listID string, content string) error {
	return WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("storage: begin delete tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx,
			`DELETE FROM comparisons WHERE list_id = $1 AND (task_a = $2 OR task_b = $2)`,
			listID, content); err != nil {
			return fmt.Errorf("storage: delete comparisons for %q: %w", content, err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM items WHERE list_id = $1 AND content = $2`,
			listID, content); err != nil {
			return fmt.Errorf("storage: delete item %q: %w", content, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("storage: commit delete tx: %w", err)
		}
		return nil
	})
}

var _ Store = (*postgresStore)(nil)
