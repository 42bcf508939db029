// Package storage provides the durable persistence adapter (C5): an
// optional backend that, when configured, must durably apply a mutation
// before the operation that produced it acknowledges success. Absent a
// DATABASE_URL, the engine runs in ephemeral mode and this package is
// never constructed.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pairrank/pairrank/internal/model"
)

// ListSnapshot is one list's full durable state, as replayed at startup.
// Items preserves insertion order; Log preserves append order.
type ListSnapshot struct {
	ID    string
	Items []model.Item
	Log   []model.Comparison
}

// Store is the durable persistence contract every backend implements.
// A nil Store is a valid value everywhere it is accepted: it means the
// caller is running in ephemeral mode and every method is skipped.
type Store interface {
	// Load returns every list's durable state, keyed by list id, in the
	// order comparisons were originally appended.
	Load(ctx context.Context) (map[string]*ListSnapshot, error)

	// EnsureList durably records that listID exists, if it does not
	// already. Called before the first mutation a list ever receives.
	EnsureList(ctx context.Context, listID string) error

	// AppendComparison durably records c against listID, and the items
	// it names if they are not already present. Must complete before
	// the caller may treat the in-memory mutation as committed.
	AppendComparison(ctx context.Context, listID string, c model.Comparison) error

	// DeleteItem durably removes content from listID, along with every
	// comparison referencing it, atomically.
	DeleteItem(ctx context.Context, listID string, content string) error

	// Ping reports whether the backend is currently reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close(ctx context.Context) error
}

// Open constructs the Store backend indicated by dsn's scheme:
// postgres/postgresql for the pgx-backed store, sqlite/file (or a bare
// path) for the modernc.org/sqlite-backed store. An empty dsn is not a
// valid argument to Open — callers check for that before calling it and
// run in ephemeral mode instead.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (Store, error) {
	scheme := dsnScheme(dsn)
	switch scheme {
	case "postgres", "postgresql":
		return newPostgresStore(ctx, dsn, logger)
	case "sqlite", "file", "":
		return newSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"), logger)
	default:
		return nil, fmt.Errorf("storage: unrecognized DATABASE_URL scheme %q", scheme)
	}
}

func dsnScheme(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return u.Scheme
}
