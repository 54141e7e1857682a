// Package syncer keeps the console's local view of remote state fresh.
//
// Exactly one update source is active at a time: the default poll loop, or
// the push channel once realtime is enabled and connected. While the channel
// is connected the poll loop keeps ticking but skips its rounds, so the two
// sources never double-apply updates; when the channel drops, polling
// resumes on the next tick and the channel is redialed after a fixed delay
// for as long as realtime is still wanted.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/logger"
	"github.com/pinctl/pinctl/internal/notices"
	"github.com/pinctl/pinctl/internal/series"
	"github.com/pinctl/pinctl/internal/stream"
)

// State is the scheduler's update-source state.
type State int

const (
	// Polling is the default: periodic status+metrics rounds.
	Polling State = iota
	// RealtimeConnecting means the push channel is wanted but not open.
	RealtimeConnecting
	// RealtimeConnected means push messages drive updates and poll
	// rounds are suspended.
	RealtimeConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Polling:
		return "polling"
	case RealtimeConnecting:
		return "connecting"
	case RealtimeConnected:
		return "realtime"
	default:
		return "unknown"
	}
}

// Options configures the scheduler's cadence.
type Options struct {
	// PollInterval is the poll cadence. Default 5s.
	PollInterval time.Duration
	// ReconnectDelay is the wait before redialing a dropped channel.
	// Default 2.5s.
	ReconnectDelay time.Duration
	// Logger for scheduler diagnostics. Default env logger.
	Logger logger.Logger
}

// Syncer coordinates the poll loop and the push channel, and is the single
// writer of the snapshot and the metric series.
type Syncer struct {
	source  api.StatusSource
	dialer  stream.Dialer
	series  *series.Store
	notices *notices.Aggregator
	log     logger.Logger

	pollInterval   time.Duration
	reconnectDelay time.Duration

	mu             sync.Mutex
	state          State
	snapshot       *api.Snapshot
	lastErr        error
	realtimeWanted bool
	gen            int
	channel        stream.Channel

	// server-sent rolling averages from the latest metrics message
	avgCPU, avgMem, avgDisk *float64

	deprecationsSeen bool
}

// New creates a scheduler. The series store and notice aggregator are
// injected so consumers and tests share the same instances.
func New(source api.StatusSource, dialer stream.Dialer, store *series.Store, agg *notices.Aggregator, opts Options) *Syncer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("[syncer]")
	}
	return &Syncer{
		source:         source,
		dialer:         dialer,
		series:         store,
		notices:        agg,
		log:            opts.Logger,
		pollInterval:   opts.PollInterval,
		reconnectDelay: opts.ReconnectDelay,
		state:          Polling,
	}
}

// Run drives the poll loop until ctx is canceled. The first round runs
// immediately; each subsequent round is scheduled only after the previous
// one completes, so rounds never overlap.
func (s *Syncer) Run(ctx context.Context) {
	s.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.DisableRealtime()
			return
		case <-time.After(s.pollInterval):
			if s.State() != RealtimeConnected {
				s.PollOnce(ctx)
			}
		}
	}
}

// PollOnce runs a single poll round: status first, then metrics, strictly
// in sequence. Failures leave the last-known state in place and are
// retried implicitly on the next cadence tick.
func (s *Syncer) PollOnce(ctx context.Context) {
	snap, err := s.source.FetchStatus(ctx)
	if err != nil {
		s.setError(err)
		s.log.Debug("status poll failed: %v", err)
		return
	}
	s.setSnapshot(snap)

	s.fetchDeprecationsOnce(ctx)

	m, err := s.source.FetchSystemMetrics(ctx)
	if err != nil {
		s.setError(err)
		s.log.Debug("system metrics poll failed: %v", err)
		return
	}
	s.series.Push(series.CPU, m.CPUPercent)
	s.series.Push(series.Mem, m.Memory.Percent)
	s.series.Push(series.Disk, m.Disk.Percent)

	window := int(s.pollInterval / time.Second)
	if window < 1 {
		window = 1
	}
	points, err := s.source.FetchNetworkMetrics(ctx, window)
	if err != nil {
		s.setError(err)
		s.log.Debug("network metrics poll failed: %v", err)
		return
	}
	if len(points) > 0 {
		latest := points[len(points)-1]
		s.series.Push(series.Rx, latest.RxBytesPerSec)
		s.series.Push(series.Tx, latest.TxBytesPerSec)
	}

	s.setError(nil)
}

// fetchDeprecationsOnce performs the one-shot startup fallback when the
// push channel has not delivered any deprecation entries yet.
func (s *Syncer) fetchDeprecationsOnce(ctx context.Context) {
	s.mu.Lock()
	seen := s.deprecationsSeen
	s.deprecationsSeen = true
	s.mu.Unlock()
	if seen {
		return
	}

	list, err := s.source.FetchDeprecations(ctx)
	if err != nil {
		s.log.Debug("deprecation fetch failed: %v", err)
		return
	}
	s.notices.Merge(list)
}

// EnableRealtime opens the push channel. Polling keeps running as the
// fallback source until the channel is actually connected. Calling it
// while realtime is already wanted is a no-op.
func (s *Syncer) EnableRealtime(ctx context.Context) {
	s.mu.Lock()
	if s.realtimeWanted {
		s.mu.Unlock()
		return
	}
	s.realtimeWanted = true
	s.state = RealtimeConnecting
	gen := s.gen
	s.mu.Unlock()

	go s.connectLoop(ctx, gen)
}

// DisableRealtime closes the channel immediately and returns to polling.
// Cancellation is effective at once: messages already in flight cannot
// mutate state afterwards.
func (s *Syncer) DisableRealtime() {
	s.mu.Lock()
	if !s.realtimeWanted {
		s.mu.Unlock()
		return
	}
	s.realtimeWanted = false
	s.gen++
	ch := s.channel
	s.channel = nil
	s.state = Polling
	s.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
}

// RealtimeWanted reports whether the operator has realtime toggled on.
func (s *Syncer) RealtimeWanted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realtimeWanted
}

// connectLoop dials the channel and reads it until realtime is toggled
// off, redialing after the reconnect delay whenever the channel drops.
func (s *Syncer) connectLoop(ctx context.Context, gen int) {
	for {
		if !s.stillWanted(gen) || ctx.Err() != nil {
			return
		}

		ch, err := s.dialer.Dial(ctx)
		if err != nil {
			s.log.Debug("push channel dial failed: %v", err)
			if !s.waitReconnect(ctx, gen) {
				return
			}
			continue
		}

		s.mu.Lock()
		if s.gen != gen || !s.realtimeWanted {
			s.mu.Unlock()
			_ = ch.Close()
			return
		}
		s.channel = ch
		s.state = RealtimeConnected
		s.mu.Unlock()
		s.log.Debug("push channel connected")

		s.readLoop(ch, gen)

		s.mu.Lock()
		if s.gen != gen || !s.realtimeWanted {
			s.mu.Unlock()
			return
		}
		s.channel = nil
		s.state = RealtimeConnecting
		s.mu.Unlock()
		s.log.Debug("push channel dropped, reconnecting in %s", s.reconnectDelay)

		if !s.waitReconnect(ctx, gen) {
			return
		}
	}
}

// waitReconnect sleeps for the reconnect delay. Returns false when the
// wait was cut short by cancellation or a realtime toggle-off.
func (s *Syncer) waitReconnect(ctx context.Context, gen int) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.reconnectDelay):
		return s.stillWanted(gen)
	}
}

// readLoop consumes channel messages until the channel fails.
func (s *Syncer) readLoop(ch stream.Channel, gen int) {
	for {
		msg, err := ch.Receive()
		if err != nil {
			return
		}
		s.apply(msg, gen)
	}
}

// apply folds one push message into local state. Messages from a canceled
// generation are dropped without touching anything.
func (s *Syncer) apply(msg *stream.Message, gen int) {
	s.mu.Lock()
	if s.gen != gen || !s.realtimeWanted {
		s.mu.Unlock()
		return
	}

	switch msg.Type {
	case stream.TypeMetrics:
		s.avgCPU = msg.AvgCPU
		s.avgMem = msg.AvgMem
		s.avgDisk = msg.AvgDisk
		s.mu.Unlock()

		if msg.CPU != nil {
			s.series.Push(series.CPU, *msg.CPU)
		}
		if msg.Mem != nil {
			s.series.Push(series.Mem, *msg.Mem)
		}
		if msg.Disk != nil {
			s.series.Push(series.Disk, *msg.Disk)
		}
		if msg.RxBytesPerSec != nil {
			s.series.Push(series.Rx, *msg.RxBytesPerSec)
		}
		if msg.TxBytesPerSec != nil {
			s.series.Push(series.Tx, *msg.TxBytesPerSec)
		}

	case stream.TypeSystemUpdate:
		if msg.Data != nil {
			s.snapshot = msg.Data
		}
		if len(msg.Deprecations) > 0 {
			s.deprecationsSeen = true
		}
		s.mu.Unlock()

		if len(msg.Deprecations) > 0 {
			s.notices.Merge(msg.Deprecations)
		}

	default:
		s.mu.Unlock()
		s.log.Debug("ignoring unknown push message type %q", msg.Type)
	}
}

// stillWanted reports whether the given connect generation is still live.
func (s *Syncer) stillWanted(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realtimeWanted && s.gen == gen
}

// State returns the current update-source state.
func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the last-known service snapshot, nil before the first
// successful round.
func (s *Syncer) Snapshot() *api.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// LastError returns the most recent poll failure, nil after a clean round.
// Stale data remains served while this is non-nil.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Average returns the rolling average for a utilization series, preferring
// the server-sent value from the latest push message and falling back to
// the local ring buffer.
func (s *Syncer) Average(name string) float64 {
	s.mu.Lock()
	var serverAvg *float64
	switch name {
	case series.CPU:
		serverAvg = s.avgCPU
	case series.Mem:
		serverAvg = s.avgMem
	case series.Disk:
		serverAvg = s.avgDisk
	}
	s.mu.Unlock()

	if serverAvg != nil {
		return *serverAvg
	}
	return s.series.Average(name)
}

func (s *Syncer) setSnapshot(snap *api.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

func (s *Syncer) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
