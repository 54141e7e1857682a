package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns a fixed snapshot or an error.
type fakeSource struct {
	snap *api.Snapshot
	err  error
}

func (f *fakeSource) FetchStatus(ctx context.Context) (*api.Snapshot, error) {
	return f.snap, f.err
}

func snapshotWith(names ...string) *api.Snapshot {
	snap := &api.Snapshot{Initialized: true}
	for _, n := range names {
		snap.Tools = append(snap.Tools, api.Operation{Name: n, Description: "op " + n})
	}
	return snap
}

func TestReload(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("create_backend", "list_pins")}
	c := NewCache(src)

	require.NoError(t, c.Reload(context.Background()))
	assert.Equal(t, 2, c.Len())

	op, ok := c.Get("create_backend")
	require.True(t, ok)
	assert.Equal(t, "op create_backend", op.Description)
}

func TestReloadReplacesWholesale(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("old_op")}
	c := NewCache(src)
	require.NoError(t, c.Reload(context.Background()))

	src.snap = snapshotWith("new_op")
	require.NoError(t, c.Reload(context.Background()))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("old_op")
	assert.False(t, ok)
	_, ok = c.Get("new_op")
	assert.True(t, ok)
}

func TestReloadErrorKeepsPrevious(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("create_backend")}
	c := NewCache(src)
	require.NoError(t, c.Reload(context.Background()))

	src.err = fmt.Errorf("network down")
	require.Error(t, c.Reload(context.Background()))

	// The stale catalog is still served.
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("create_backend")
	assert.True(t, ok)
}

func TestFilter(t *testing.T) {
	src := &fakeSource{snap: snapshotWith("create_backend", "delete_backend", "list_pins", "CREATE_bucket")}
	c := NewCache(src)
	require.NoError(t, c.Reload(context.Background()))

	tests := []struct {
		name      string
		substring string
		expected  []string
	}{
		{"empty matches all", "", []string{"create_backend", "delete_backend", "list_pins", "CREATE_bucket"}},
		{"case-insensitive", "create", []string{"create_backend", "CREATE_bucket"}},
		{"middle match", "backend", []string{"create_backend", "delete_backend"}},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Filter(tt.substring)
			var names []string
			for _, op := range got {
				names = append(names, op.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}

	// Filter does not mutate the catalog.
	assert.Equal(t, 4, c.Len())
}

func TestGetMissing(t *testing.T) {
	c := NewCache(&fakeSource{snap: snapshotWith()})
	require.NoError(t, c.Reload(context.Background()))

	_, ok := c.Get("nope")
	assert.False(t, ok)
}
