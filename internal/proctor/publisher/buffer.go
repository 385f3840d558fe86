package publisher

import (
	"sync"

	"mockview/internal/proctor/models"
)

// RingBuffer is a bounded, thread-safe event queue. When full, the oldest
// events are dropped to make room for new ones.
type RingBuffer struct {
	mu       sync.Mutex
	events   []models.Event
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingBuffer{
		events:   make([]models.Event, capacity),
		capacity: capacity,
	}
}

// Enqueue adds an event and reports whether an older one was dropped for it.
func (b *RingBuffer) Enqueue(event models.Event) (dropped bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		dropped = true
	}
	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
	return dropped
}

// DequeueBatch removes up to n events in FIFO order.
func (b *RingBuffer) DequeueBatch(n int) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 || n <= 0 {
		return nil
	}
	n = min(n, b.count)
	out := make([]models.Event, n)
	for i := range n {
		out[i] = b.events[b.tail]
		b.events[b.tail] = models.Event{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
