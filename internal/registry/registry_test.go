package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/registry"
)

func TestGet_RejectsShortListID(t *testing.T) {
	r := registry.New(nil)
	_, err := r.Get("short")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidArgument, appErr.Kind)
}

func TestGet_SameIDReturnsSameList(t *testing.T) {
	r := registry.New(nil)
	a, err := r.Get("abcdefgh")
	require.NoError(t, err)
	b, err := r.Get("abcdefgh")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestGet_DistinctIDsAreIndependent(t *testing.T) {
	ctx := context.Background()
	r := registry.New(nil)
	a, err := r.Get("listaaaaa")
	require.NoError(t, err)
	b, err := r.Get("listbbbbb")
	require.NoError(t, err)

	_, err = a.AddComparison(ctx, "X", "X", "X")
	require.NoError(t, err)
	assert.Len(t, a.ListTasks(), 1)
	assert.Len(t, b.ListTasks(), 0)
}

func TestLoadFromStore_NoStoreIsNoOp(t *testing.T) {
	r := registry.New(nil)
	require.NoError(t, r.LoadFromStore(context.Background()))
	assert.Equal(t, 0, r.Len())
}
