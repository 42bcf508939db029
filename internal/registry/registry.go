// Package registry implements the process-wide list registry (C4): a
// map from list id to list state, guarded by an outer lock sufficient
// only to serialise insertions. Once a *liststate.List is obtained,
// callers proceed under its own inner lock.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/liststate"
	"github.com/pairrank/pairrank/internal/storage"
)

// minListIDLength is the shortest list id the registry accepts.
const minListIDLength = 8

// Registry is the process-wide list id -> list state map. Lists are
// never evicted during process lifetime.
type Registry struct {
	store storage.Store

	mu    sync.Mutex
	lists map[string]*liststate.List
}

// New returns an empty registry. store may be nil, in which case the
// registry (and every list it creates) runs in ephemeral mode.
func New(store storage.Store) *Registry {
	return &Registry{
		store: store,
		lists: make(map[string]*liststate.List),
	}
}

// LoadFromStore populates the registry from the configured store's
// durable state. Called once at startup, before the registry serves
// any request. A no-op when the registry has no store.
func (r *Registry) LoadFromStore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	snapshots, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("registry: load from store: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, snap := range snapshots {
		r.lists[id] = liststate.Restore(id, r.store, snap)
	}
	return nil
}

// Get returns the list for id, constructing an empty one (attached to
// the registry's store) if this is the first reference. Lists held in
// the store are already present once LoadFromStore has run. Rejects ids
// shorter than minListIDLength with InvalidArgument.
func (r *Registry) Get(listID string) (*liststate.List, error) {
	if len(listID) < minListIDLength {
		return nil, apperr.InvalidArgument("list_id must be at least %d characters", minListIDLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.lists[listID]; ok {
		return l, nil
	}
	l := liststate.Restore(listID, r.store, nil)
	r.lists[listID] = l
	return l, nil
}

// Len reports the number of lists currently held, for diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}
