// Package ratelimit provides in-process rate limiting keyed by list id,
// protecting the comparison-ingestion endpoint from a runaway UI retry
// loop. It is off by default and config-gated.
package ratelimit

import "context"

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// NoopLimiter always allows. Used when rate limiting is disabled.
type NoopLimiter struct{}

func (NoopLimiter) Allow(_ context.Context, _ string) (bool, error) { return true, nil }
func (NoopLimiter) Close() error                                    { return nil }

var _ Limiter = NoopLimiter{}
var _ Limiter = (*MemoryLimiter)(nil)
