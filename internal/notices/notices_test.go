package notices

import (
	"testing"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notice(endpoint string, hits int) api.DeprecationNotice {
	return api.DeprecationNotice{
		Endpoint:        endpoint,
		RemoveInVersion: "2.0",
		HitCount:        hits,
		MigrationHints:  map[string]string{"use": endpoint + "_v2"},
	}
}

func TestMergeAppendsNew(t *testing.T) {
	a := NewAggregator()

	a.Merge([]api.DeprecationNotice{notice("pin_add_v1", 1), notice("bucket_ls_v1", 3)})

	require.Equal(t, 2, a.Len())
	list := a.List()
	assert.Equal(t, "pin_add_v1", list[0].Endpoint)
	assert.Equal(t, "bucket_ls_v1", list[1].Endpoint)
}

func TestMergeUpdatesInPlace(t *testing.T) {
	a := NewAggregator()

	a.Merge([]api.DeprecationNotice{notice("pin_add_v1", 1)})
	a.Merge([]api.DeprecationNotice{notice("pin_add_v1", 9)})

	require.Equal(t, 1, a.Len())
	assert.Equal(t, 9, a.List()[0].HitCount)
}

func TestMergeIdempotentOnIdenticalRepeat(t *testing.T) {
	a := NewAggregator()

	n := notice("pin_add_v1", 4)
	a.Merge([]api.DeprecationNotice{n})
	a.Merge([]api.DeprecationNotice{n})

	// Merging the same notice twice yields exactly one entry.
	require.Equal(t, 1, a.Len())
	assert.Equal(t, n, a.List()[0])
}

func TestMergeIgnoresEmptyEndpoint(t *testing.T) {
	a := NewAggregator()

	a.Merge([]api.DeprecationNotice{{Endpoint: ""}})
	assert.Equal(t, 0, a.Len())
}

func TestDismissAll(t *testing.T) {
	a := NewAggregator()

	a.Merge([]api.DeprecationNotice{notice("pin_add_v1", 1), notice("bucket_ls_v1", 2)})
	a.DismissAll()

	assert.Equal(t, 0, a.Len())
	assert.Empty(t, a.List())

	// Repopulated by the next merge.
	a.Merge([]api.DeprecationNotice{notice("pin_add_v1", 2)})
	assert.Equal(t, 1, a.Len())
}
