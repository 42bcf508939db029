package liststate_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/liststate"
)

func TestAddComparison_S1SingleComparison(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")

	_, err := l.AddComparison(ctx, "A", "A", "A")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "B", "B", "B")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "A", "B", "A")
	require.NoError(t, err)

	rankings := l.Rankings()
	require.Len(t, rankings.Entries, 2)
	assert.Equal(t, "A", rankings.Entries[0].Content)
	assert.Equal(t, 1, rankings.Entries[0].Rank)
	assert.Equal(t, 2, rankings.Entries[1].Rank)
	assert.Greater(t, rankings.Entries[0].Score, 0.0)
	assert.Less(t, rankings.Entries[1].Score, 0.0)
	assert.Less(t, rankings.Entries[0].Variance, 0.5)
	assert.Less(t, rankings.Entries[1].Variance, 0.5)
	assert.Equal(t, 1.0, rankings.Stats.Coverage)
}

func TestAddComparison_S2Transitivity(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")

	_, err := l.AddComparison(ctx, "A", "B", "A")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "B", "C", "B")
	require.NoError(t, err)

	rankings := l.Rankings()
	byContent := make(map[string]int)
	for _, e := range rankings.Entries {
		byContent[e.Content] = e.Rank
	}
	assert.Less(t, byContent["A"], byContent["B"])
	assert.Less(t, byContent["B"], byContent["C"])
}

func TestRankings_S3ArgmaxDeterministic(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	for _, c := range []string{"X", "Y", "Z"} {
		_, err := l.AddComparison(ctx, c, c, c)
		require.NoError(t, err)
	}

	first := l.Rankings()
	second := l.Rankings()
	require.NotNil(t, first.Stats.OptimalNextPair)
	require.NotNil(t, second.Stats.OptimalNextPair)
	assert.Equal(t, *first.Stats.OptimalNextPair, *second.Stats.OptimalNextPair)
}

func TestDeleteItem_S4CascadesComparisons(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	_, err := l.AddComparison(ctx, "A", "B", "A")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "B", "C", "B")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "A", "C", "A")
	require.NoError(t, err)

	require.NoError(t, l.DeleteItem(ctx, "B"))

	tasks := l.ListTasks()
	require.Len(t, tasks, 2)

	for _, c := range l.ListComparisons() {
		assert.NotEqual(t, "B", c.TaskA)
		assert.NotEqual(t, "B", c.TaskB)
	}

	rankings := l.Rankings()
	require.Len(t, rankings.Entries, 2)
	assert.Equal(t, 1.0, rankings.Stats.Coverage)
}

func TestAddComparison_S5InvalidWinner(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	_, err := l.AddComparison(ctx, "A", "A", "A")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "B", "B", "B")
	require.NoError(t, err)

	before := l.ListComparisons()
	_, err = l.AddComparison(ctx, "A", "B", "C")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidArgument, appErr.Kind)

	after := l.ListComparisons()
	assert.Equal(t, before, after)
}

func TestDeleteItem_NonExistentIsNoOp(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	_, err := l.AddComparison(ctx, "A", "A", "A")
	require.NoError(t, err)

	require.NoError(t, l.DeleteItem(ctx, "nonexistent"))
	require.NoError(t, l.DeleteItem(ctx, "nonexistent"))
	assert.Len(t, l.ListTasks(), 1)
}

func TestRankings_CachedUntilMutation(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	_, err := l.AddComparison(ctx, "A", "B", "A")
	require.NoError(t, err)

	first := l.Rankings()
	second := l.Rankings()
	assert.Equal(t, first, second)

	_, err = l.AddComparison(ctx, "A", "B", "A")
	require.NoError(t, err)
	third := l.Rankings()
	assert.NotEqual(t, first.Entries[0].Variance, third.Entries[0].Variance)
}

func TestRankings_ConcurrentReadsAreConsistent(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	_, err := l.AddComparison(ctx, "A", "B", "A")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "B", "C", "B")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]int)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := l.Rankings()
			mu.Lock()
			seen[r.Entries[0].Content]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1)
}

func TestEnsureItem_TwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := liststate.New("abcdefgh")
	_, err := l.AddComparison(ctx, "A", "A", "A")
	require.NoError(t, err)
	_, err = l.AddComparison(ctx, "A", "A", "A")
	require.NoError(t, err)

	assert.Len(t, l.ListTasks(), 1)
}
