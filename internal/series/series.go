// Package series holds fixed-capacity FIFO sample stores for the metric
// series the console tracks. The sync scheduler is the only writer; the
// dashboard reads recent windows for sparkline rendering.
package series

import "sync"

// Well-known series names.
const (
	CPU  = "cpu"
	Mem  = "mem"
	Disk = "disk"
	Rx   = "rx"
	Tx   = "tx"
)

// Capacities per series kind. Utilization series keep ~3 minutes at 1 Hz,
// network-rate series ~2 minutes. Fixed at startup, not reconfigurable.
const (
	UtilizationCapacity = 180
	NetworkRateCapacity = 120
)

// Store manages the console's metric series, each backed by a ring buffer.
// It provides thread-safe access for the scheduler and the dashboard.
type Store struct {
	mu     sync.RWMutex
	series map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewStore creates a store with the standard series pre-created.
// Series live for the process lifetime.
func NewStore() *Store {
	return &Store{
		series: map[string]*ringBuffer{
			CPU:  newRingBuffer(UtilizationCapacity),
			Mem:  newRingBuffer(UtilizationCapacity),
			Disk: newRingBuffer(UtilizationCapacity),
			Rx:   newRingBuffer(NetworkRateCapacity),
			Tx:   newRingBuffer(NetworkRateCapacity),
		},
	}
}

// Push appends a sample to the named series, evicting the oldest sample
// when the series is at capacity. Unknown series names are ignored.
func (s *Store) Push(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rb, ok := s.series[name]; ok {
		rb.push(value)
	}
}

// Average returns the arithmetic mean of the named series, 0 when empty.
func (s *Store) Average(name string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rb, ok := s.series[name]
	if !ok || rb.count == 0 {
		return 0
	}

	var sum float64
	for _, v := range rb.getAll() {
		sum += v
	}
	return sum / float64(rb.count)
}

// Last returns the last count values of the named series in chronological
// order (oldest first). Returns fewer values if not enough are stored.
func (s *Store) Last(name string, count int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rb, ok := s.series[name]
	if !ok {
		return nil
	}
	return rb.getLast(count)
}

// Len returns the number of samples currently held by the named series.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rb, ok := s.series[name]
	if !ok {
		return 0
	}
	return rb.count
}

// Cap returns the fixed capacity of the named series, 0 if unknown.
func (s *Store) Cap(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rb, ok := s.series[name]
	if !ok {
		return 0
	}
	return rb.size
}

// newRingBuffer creates a new ring buffer with the specified capacity.
func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

// push adds a value to the ring buffer.
func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}

	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)

	// head points to the next write position, so the most recent value is
	// at head-1; we want 'count' values ending there.
	start := (r.head - count + r.size) % r.size

	for i := 0; i < count; i++ {
		idx := (start + i) % r.size
		result[i] = r.data[idx]
	}

	return result
}

// getAll returns all stored values in chronological order.
func (r *ringBuffer) getAll() []float64 {
	return r.getLast(r.count)
}
