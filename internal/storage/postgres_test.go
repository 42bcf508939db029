//go:build integration

package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/storage"
	"github.com/pairrank/pairrank/internal/testutil"
)

// These tests exercise the postgres backend against a real database,
// per the project's practice of never mocking the store. Run with
// `go test -tags=integration ./internal/storage/...`.

var testStore storage.Store

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	store, err := tc.NewTestStore(context.Background(), testutil.TestLogger())
	if err != nil {
		os.Exit(1)
	}
	testStore = store
	defer store.Close(context.Background())

	os.Exit(m.Run())
}

func TestPostgresStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testStore.EnsureList(ctx, "list-one"))
	c := model.Comparison{TaskA: "buy milk", TaskB: "walk dog", Winner: "buy milk", Timestamp: time.Now().UTC()}
	require.NoError(t, testStore.AppendComparison(ctx, "list-one", c))

	snapshots, err := testStore.Load(ctx)
	require.NoError(t, err)
	snap, ok := snapshots["list-one"]
	require.True(t, ok)
	require.Len(t, snap.Items, 2)
	require.Len(t, snap.Log, 1)
	require.Equal(t, "buy milk", snap.Log[0].Winner)
}

func TestPostgresStore_SelfComparisonRegistersItemAndLogEntry(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testStore.EnsureList(ctx, "list-two"))
	self := model.Comparison{TaskA: "solo", TaskB: "solo", Winner: "solo", Timestamp: time.Now().UTC()}
	require.NoError(t, testStore.AppendComparison(ctx, "list-two", self))

	snapshots, err := testStore.Load(ctx)
	require.NoError(t, err)
	snap := snapshots["list-two"]
	require.Len(t, snap.Items, 1)
	require.Len(t, snap.Log, 1)
	require.True(t, snap.Log[0].IsSelfComparison())
}

func TestPostgresStore_DeleteItemCascadesComparisons(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testStore.EnsureList(ctx, "list-three"))
	require.NoError(t, testStore.AppendComparison(ctx, "list-three", model.Comparison{
		TaskA: "a", TaskB: "b", Winner: "a", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, testStore.AppendComparison(ctx, "list-three", model.Comparison{
		TaskA: "b", TaskB: "c", Winner: "c", Timestamp: time.Now().UTC(),
	}))

	require.NoError(t, testStore.DeleteItem(ctx, "list-three", "b"))

	snapshots, err := testStore.Load(ctx)
	require.NoError(t, err)
	snap := snapshots["list-three"]
	for _, item := range snap.Items {
		require.NotEqual(t, "b", item.Content)
	}
	require.Empty(t, snap.Log)
}
