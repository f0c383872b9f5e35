package radar

import "sync"

// EventKind identifies what the radar observed.
type EventKind int

const (
	// Arrival is a new hostile nation in the region.
	Arrival EventKind = iota
	// Departure is a previously seen nation that left the region.
	Departure
	// Refreshed means the region updated; stop engaging.
	Refreshed
)

func (k EventKind) String() string {
	switch k {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	case Refreshed:
		return "refreshed"
	default:
		return "unknown"
	}
}

// Event is one message from the radar to the control loop.
type Event struct {
	Kind   EventKind
	Nation string // empty for Refreshed
}

// Channel is an unbounded FIFO queue with one producer and one consumer.
// Send never blocks, so a slow consumer parked on operator input cannot
// stall the radar.
type Channel struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{notify: make(chan struct{}, 1)}
}

// Send appends ev to the queue.
func (c *Channel) Send(ev Event) {
	c.mu.Lock()
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// TryRecv removes and returns the oldest event without blocking.
func (c *Channel) TryRecv() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Event{}, false
	}
	ev := c.queue[0]
	c.queue[0] = Event{}
	c.queue = c.queue[1:]
	return ev, true
}

// Len returns the number of queued events.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Ready receives a value after one or more Sends since the last receive.
// It is a wake-up hint only; callers must still drain with TryRecv.
func (c *Channel) Ready() <-chan struct{} {
	return c.notify
}
