// Package liststate implements the per-list state store (C3): the
// ordered item set, the append-only comparison log, and the cached
// rankings derived from them, bound together under one mutex per list.
package liststate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/rating"
	"github.com/pairrank/pairrank/internal/selector"
	"github.com/pairrank/pairrank/internal/storage"
)

// List is one list's complete state: items in insertion order, the
// comparison log in append order, and a lazily computed, invalidate-on-
// write cache of the derived rankings.
//
// All mutation goes through the list's own lock. Readers and writers
// alike acquire it; the lock is coarse by design (§4.3 of the design
// this implements does not require fine-grained locking, and per-list
// contention is expected to stay low).
type List struct {
	id string

	mu        sync.Mutex
	items     []string
	itemSet   map[string]struct{}
	completed map[string]bool
	log       []model.Comparison
	cache     *model.Rankings
	version   int

	// group collapses concurrent Rankings() calls against the same
	// version into a single replay, so N readers hitting a cold cache
	// at once pay for one recompute instead of N.
	group singleflight.Group

	store storage.Store
}

// New returns an empty list with no durable backing.
func New(id string) *List {
	return &List{
		id:        id,
		itemSet:   make(map[string]struct{}),
		completed: make(map[string]bool),
		store:     nil,
	}
}

// Restore returns a list pre-populated from a durable snapshot, with
// store attached for subsequent mutations. A nil snapshot is
// equivalent to New.
func Restore(id string, store storage.Store, snap *storage.ListSnapshot) *List {
	l := &List{
		id:        id,
		itemSet:   make(map[string]struct{}),
		completed: make(map[string]bool),
		store:     store,
	}
	if snap == nil {
		return l
	}
	for _, item := range snap.Items {
		if _, ok := l.itemSet[item.Content]; !ok {
			l.items = append(l.items, item.Content)
			l.itemSet[item.Content] = struct{}{}
		}
		if item.Completed {
			l.completed[item.Content] = true
		}
	}
	l.log = append(l.log, snap.Log...)
	return l
}

// AddComparison validates and applies one comparison. When a store is
// configured, the comparison is durably appended before the in-memory
// state changes at all — on a persistence failure nothing has mutated,
// so there is nothing to roll back.
func (l *List) AddComparison(ctx context.Context, a, b, winner string) (model.Comparison, error) {
	if a == "" || b == "" {
		return model.Comparison{}, apperr.InvalidArgument("task_a_content and task_b_content must not be empty")
	}
	if winner != a && winner != b {
		return model.Comparison{}, apperr.InvalidArgument("winner_content must equal task_a_content or task_b_content")
	}

	c := model.Comparison{TaskA: a, TaskB: b, Winner: winner, Timestamp: time.Now().UTC()}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		if err := l.store.EnsureList(ctx, l.id); err != nil {
			return model.Comparison{}, apperr.Unavailable(err, "ensure list %s", l.id)
		}
		if err := l.store.AppendComparison(ctx, l.id, c); err != nil {
			return model.Comparison{}, apperr.Unavailable(err, "append comparison to list %s", l.id)
		}
	}

	l.ensureItemLocked(a)
	l.ensureItemLocked(b)
	l.log = append(l.log, c)
	l.cache = nil
	l.version++
	return c, nil
}

func (l *List) ensureItemLocked(content string) {
	if _, ok := l.itemSet[content]; ok {
		return
	}
	l.items = append(l.items, content)
	l.itemSet[content] = struct{}{}
}

// DeleteItem removes content and every comparison referencing it,
// atomically. A non-existent content is a no-op, not an error.
func (l *List) DeleteItem(ctx context.Context, content string) error {
	if content == "" {
		return apperr.InvalidArgument("content must not be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.itemSet[content]; !ok {
		return nil
	}

	if l.store != nil {
		if err := l.store.DeleteItem(ctx, l.id, content); err != nil {
			return apperr.Unavailable(err, "delete item %q from list %s", content, l.id)
		}
	}

	newItems := make([]string, 0, len(l.items))
	for _, it := range l.items {
		if it != content {
			newItems = append(newItems, it)
		}
	}
	l.items = newItems
	delete(l.itemSet, content)
	delete(l.completed, content)

	newLog := make([]model.Comparison, 0, len(l.log))
	for _, c := range l.log {
		if c.TaskA == content || c.TaskB == content {
			continue
		}
		newLog = append(newLog, c)
	}
	l.log = newLog
	l.cache = nil
	l.version++
	return nil
}

// ListTasks returns items in insertion order.
func (l *List) ListTasks() []model.Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Item, len(l.items))
	for i, content := range l.items {
		out[i] = model.Item{Content: content, Completed: l.completed[content]}
	}
	return out
}

// ListComparisons returns the log in append (time) order.
func (l *List) ListComparisons() []model.Comparison {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Comparison, len(l.log))
	copy(out, l.log)
	return out
}

// Rankings computes (or returns the cached) rankings and stats. The
// cache is valid exactly until the next mutation; two calls with no
// intervening AddComparison/DeleteItem return byte-identical results.
func (l *List) Rankings() model.Rankings {
	l.mu.Lock()
	if l.cache != nil {
		cached := *l.cache
		l.mu.Unlock()
		return cached
	}
	items := append([]string(nil), l.items...)
	log := append([]model.Comparison(nil), l.log...)
	completed := make(map[string]bool, len(l.completed))
	for k, v := range l.completed {
		completed[k] = v
	}
	ver := l.version
	l.mu.Unlock()

	v, _, _ := l.group.Do(fmt.Sprintf("%d", ver), func() (any, error) {
		beliefs := rating.Evaluate(items, log)
		entries := buildEntries(items, log, beliefs)
		stats := selector.Stats(items, log, beliefs)
		return model.Rankings{Entries: entries, Stats: stats}, nil
	})
	result := v.(model.Rankings)

	l.mu.Lock()
	if l.version == ver {
		rc := result
		l.cache = &rc
	}
	l.mu.Unlock()
	return result
}

// buildEntries ranks items by descending score, ties broken
// lexicographically by content, and counts the log entries involving
// each item (a self-comparison counts once, not twice).
func buildEntries(items []string, log []model.Comparison, beliefs map[string]rating.Belief) []model.RankingEntry {
	counts := make(map[string]int, len(items))
	for _, c := range log {
		counts[c.TaskA]++
		if c.TaskB != c.TaskA {
			counts[c.TaskB]++
		}
	}

	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		bi, bj := beliefs[sorted[i]], beliefs[sorted[j]]
		if bi.Mu != bj.Mu {
			return bi.Mu > bj.Mu
		}
		return sorted[i] < sorted[j]
	})

	entries := make([]model.RankingEntry, len(sorted))
	for i, content := range sorted {
		b := beliefs[content]
		lo, hi := b.ConfidenceInterval()
		entries[i] = model.RankingEntry{
			Content:            content,
			Score:              b.Mu,
			Rank:               i + 1,
			Variance:           b.Variance,
			ConfidenceInterval: [2]float64{lo, hi},
			ComparisonsCount:   counts[content],
		}
	}
	return entries
}
