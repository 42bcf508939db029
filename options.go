package pairrank

import (
	"io/fs"
	"log/slog"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	port        int
	databaseURL string
	staticDir   string
	logger      *slog.Logger
	version     string
	uiFS        fs.FS
}

// WithPort overrides the TCP port from config (PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides the persistence connection string from
// config (DATABASE_URL env var). Empty means ephemeral mode.
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithStaticDir overrides the directory served at "/" for the
// decoupled UI (STATIC_DIR env var).
func WithStaticDir(dir string) Option {
	return func(o *resolvedOptions) { o.staticDir = dir }
}

// WithUIFS serves an embedded filesystem at "/" instead of reading
// STATIC_DIR from disk. Takes priority over WithStaticDir.
func WithUIFS(fsys fs.FS) Option {
	return func(o *resolvedOptions) { o.uiFS = fsys }
}

// WithLogger sets the structured logger for the App. If not set, the
// default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in the startup log, the
// MCP server info and the OTEL resource attributes. The health endpoint
// does not report it.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}
