package nsapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// lowWater is the remaining-request count below which the governor starts
// spreading the rest of the window across the time left until reset.
const lowWater = 10

// governor delays API requests when the server's rate limit headers say
// the budget is nearly spent. It never shortens the caller's own delay; it
// only adds to it.
type governor struct {
	mu       sync.Mutex
	resumeAt time.Time
	now      func() time.Time
}

func newGovernor() *governor {
	return &governor{now: time.Now}
}

// wait blocks until the governor allows the next request.
func (g *governor) wait(ctx context.Context) error {
	g.mu.Lock()
	d := g.resumeAt.Sub(g.now())
	g.mu.Unlock()

	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// observe reads RateLimit-Remaining and RateLimit-Reset from a response.
func (g *governor) observe(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("RateLimit-Remaining"))
	if err != nil || remaining >= lowWater {
		return
	}
	reset, err := strconv.Atoi(h.Get("RateLimit-Reset"))
	if err != nil || reset <= 0 {
		return
	}

	var d time.Duration
	if remaining <= 0 {
		d = time.Duration(reset) * time.Second
	} else {
		d = time.Duration(reset) * time.Second / time.Duration(remaining)
	}
	g.pauseFor(d)
}

// pauseFor pushes resumeAt out to at least now+d.
func (g *governor) pauseFor(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	until := g.now().Add(d)
	if until.After(g.resumeAt) {
		g.resumeAt = until
	}
}

// delay reports how long the next request would wait.
func (g *governor) delay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.resumeAt.Sub(g.now())
	if d < 0 {
		return 0
	}
	return d
}
