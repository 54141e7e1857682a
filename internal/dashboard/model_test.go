package dashboard

import (
	"context"
	stderrors "errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/notices"
	"github.com/pinctl/pinctl/internal/series"
	"github.com/pinctl/pinctl/internal/stream"
	"github.com/pinctl/pinctl/internal/syncer"
)

type stubSource struct {
	snap    *api.Snapshot
	metrics api.SystemMetrics
	points  []api.NetworkPoint
	deps    []api.DeprecationNotice
}

func (s *stubSource) FetchStatus(ctx context.Context) (*api.Snapshot, error) {
	return s.snap, nil
}

func (s *stubSource) FetchSystemMetrics(ctx context.Context) (*api.SystemMetrics, error) {
	m := s.metrics
	return &m, nil
}

func (s *stubSource) FetchNetworkMetrics(ctx context.Context, window int) ([]api.NetworkPoint, error) {
	return s.points, nil
}

func (s *stubSource) FetchDeprecations(ctx context.Context) ([]api.DeprecationNotice, error) {
	return s.deps, nil
}

type stubDialer struct{}

func (stubDialer) Dial(ctx context.Context) (stream.Channel, error) {
	return nil, stderrors.New("dial refused")
}

func newTestModel(src *stubSource) (Model, *series.Store, *notices.Aggregator) {
	store := series.NewStore()
	agg := notices.NewAggregator()
	s := syncer.New(src, stubDialer{}, store, agg, syncer.Options{})
	return NewModel(context.Background(), s, store, agg), store, agg
}

func keyMsg(key string) tea.KeyMsg {
	if key == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m, _, _ := newTestModel(&stubSource{})

		handled, cmd := m.HandleKeyMsg(keyMsg(key))

		assert.True(t, handled, "key %q", key)
		require.NotNil(t, cmd, "key %q", key)
		assert.IsType(t, tea.QuitMsg{}, cmd(), "key %q", key)
		assert.Empty(t, m.View(), "view should be blank while quitting")
	}
}

func TestRealtimeKeyToggles(t *testing.T) {
	m, _, _ := newTestModel(&stubSource{})

	handled, _ := m.HandleKeyMsg(keyMsg("t"))
	assert.True(t, handled)
	assert.True(t, m.syncer.RealtimeWanted())

	handled, _ = m.HandleKeyMsg(keyMsg("t"))
	assert.True(t, handled)
	assert.False(t, m.syncer.RealtimeWanted())
}

func TestDismissKeyClearsNotices(t *testing.T) {
	m, _, agg := newTestModel(&stubSource{})
	agg.Merge([]api.DeprecationNotice{{Endpoint: "/v1/old"}})
	require.Equal(t, 1, agg.Len())

	handled, _ := m.HandleKeyMsg(keyMsg("d"))

	assert.True(t, handled)
	assert.Equal(t, 0, agg.Len())
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(&stubSource{})

	m.HandleKeyMsg(keyMsg("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "keys")

	m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestWindowSizeStored(t *testing.T) {
	m, _, _ := newTestModel(&stubSource{})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 132, Height: 43})

	model := updated.(Model)
	assert.Equal(t, 132, model.width)
	assert.Equal(t, 43, model.height)
}

func TestViewBeforeFirstStatus(t *testing.T) {
	m, _, _ := newTestModel(&stubSource{})

	assert.Contains(t, m.View(), "waiting for first status")
}

func TestViewRendersSnapshotAndMetrics(t *testing.T) {
	src := &stubSource{
		snap: &api.Snapshot{
			Initialized: true,
			Tools:       []api.Operation{{Name: "list_backends"}, {Name: "create_pin"}},
			Counts:      map[string]int{"backends": 2, "pins": 14},
		},
		metrics: api.SystemMetrics{
			CPUPercent: 35.5,
			Memory:     api.UsageMetrics{Percent: 60.0},
			Disk:       api.UsageMetrics{Percent: 82.0},
		},
		points: []api.NetworkPoint{{RxBytesPerSec: 2048, TxBytesPerSec: 512}},
	}
	m, _, _ := newTestModel(src)

	m.syncer.PollOnce(context.Background())
	out := m.View()

	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "backends")
	assert.Contains(t, out, "14")
	assert.Contains(t, out, "35.5%")
	assert.Contains(t, out, "2.0 KB/s")
	assert.Contains(t, out, "512 B/s")
	assert.Contains(t, out, "q quit")
}

func TestViewRendersDeprecations(t *testing.T) {
	src := &stubSource{
		snap: &api.Snapshot{Initialized: true},
		deps: []api.DeprecationNotice{{
			Endpoint:        "/v1/legacy_pins",
			RemoveInVersion: "3.0",
			HitCount:        12,
			MigrationHints:  map[string]string{"legacy_pins": "list_pins"},
		}},
	}
	m, _, _ := newTestModel(src)

	m.syncer.PollOnce(context.Background())
	out := m.View()

	assert.Contains(t, out, "/v1/legacy_pins")
	assert.Contains(t, out, "removed in 3.0")
	assert.Contains(t, out, "12 hits")
	assert.Contains(t, out, "legacy_pins -> list_pins")
	assert.Contains(t, out, "d dismiss")
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{512, "512 B/s"},
		{2048, "2.0 KB/s"},
		{3 * 1024 * 1024, "3.0 MB/s"},
		{2 * 1024 * 1024 * 1024, "2.0 GB/s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRate(tt.in))
	}
}
