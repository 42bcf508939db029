package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/storage"
	"github.com/pairrank/pairrank/internal/testutil"
)

func newSQLiteStore(t *testing.T) storage.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "pairrank.db")
	store, err := storage.Open(context.Background(), "sqlite://"+dsn, testutil.TestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestSQLiteStore_AppendAndLoad(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureList(ctx, "list-one"))
	c := model.Comparison{TaskA: "buy milk", TaskB: "walk dog", Winner: "buy milk", Timestamp: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.AppendComparison(ctx, "list-one", c))

	snapshots, err := store.Load(ctx)
	require.NoError(t, err)
	snap, ok := snapshots["list-one"]
	require.True(t, ok)
	require.Len(t, snap.Items, 2)
	require.Len(t, snap.Log, 1)
	require.Equal(t, "buy milk", snap.Log[0].Winner)
}

func TestSQLiteStore_SelfComparisonRegistersItemAndLogEntry(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureList(ctx, "list-two"))
	self := model.Comparison{TaskA: "solo", TaskB: "solo", Winner: "solo", Timestamp: time.Now().UTC()}
	require.NoError(t, store.AppendComparison(ctx, "list-two", self))

	snapshots, err := store.Load(ctx)
	require.NoError(t, err)
	snap := snapshots["list-two"]
	require.Len(t, snap.Items, 1)
	require.Len(t, snap.Log, 1)
	require.True(t, snap.Log[0].IsSelfComparison())
}

func TestSQLiteStore_DeleteItemCascadesComparisons(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureList(ctx, "list-three"))
	require.NoError(t, store.AppendComparison(ctx, "list-three", model.Comparison{
		TaskA: "a", TaskB: "b", Winner: "a", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, store.AppendComparison(ctx, "list-three", model.Comparison{
		TaskA: "b", TaskB: "c", Winner: "c", Timestamp: time.Now().UTC(),
	}))

	require.NoError(t, store.DeleteItem(ctx, "list-three", "b"))

	snapshots, err := store.Load(ctx)
	require.NoError(t, err)
	snap := snapshots["list-three"]
	for _, item := range snap.Items {
		require.NotEqual(t, "b", item.Content)
	}
	require.Empty(t, snap.Log)
}

func TestSQLiteStore_Reopen_PersistsAcrossRestarts(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "pairrank.db")
	ctx := context.Background()

	store, err := storage.Open(ctx, "sqlite://"+dsn, testutil.TestLogger())
	require.NoError(t, err)
	require.NoError(t, store.EnsureList(ctx, "durable-list"))
	require.NoError(t, store.AppendComparison(ctx, "durable-list", model.Comparison{
		TaskA: "x", TaskB: "y", Winner: "y", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, store.Close(ctx))

	reopened, err := storage.Open(ctx, "sqlite://"+dsn, testutil.TestLogger())
	require.NoError(t, err)
	defer reopened.Close(ctx)

	snapshots, err := reopened.Load(ctx)
	require.NoError(t, err)
	snap, ok := snapshots["durable-list"]
	require.True(t, ok)
	require.Len(t, snap.Log, 1)
}
