// Package killswitch provides the run-wide cancellation flag. The flag
// moves one way, from armed to tripped, and is never reset during a run.
// Both the radar and the control loop poll it once per iteration.
package killswitch

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Reasons recorded by the built-in triggers.
const (
	ReasonInterrupt = "interrupt"
	ReasonRefresh   = "region updated"
	ReasonAbort     = "engagement aborted"
	ReasonRadar     = "radar failure"
	ReasonShutdown  = "engagement loop stopped"
)

// Switch is safe for concurrent use.
type Switch struct {
	tripped atomic.Bool
	once    sync.Once
	done    chan struct{}
	reason  atomic.Value // string
}

// New returns an armed switch.
func New() *Switch {
	return &Switch{done: make(chan struct{})}
}

// Trip sets the flag. Only the first call records its reason; it returns
// true for that call and false for every later one.
func (s *Switch) Trip(reason string) bool {
	first := false
	s.once.Do(func() {
		s.reason.Store(reason)
		s.tripped.Store(true)
		close(s.done)
		first = true
	})
	return first
}

// Tripped reports whether the flag is set.
func (s *Switch) Tripped() bool {
	return s.tripped.Load()
}

// Done is closed when the switch trips. Blocking waits select on it so
// they wake promptly instead of sleeping out their full duration.
func (s *Switch) Done() <-chan struct{} {
	return s.done
}

// Reason returns the reason passed to the first Trip, or "".
func (s *Switch) Reason() string {
	if r, ok := s.reason.Load().(string); ok {
		return r
	}
	return ""
}

// Context returns a child of parent that is cancelled when the switch
// trips. Call cancel to release it.
func (s *Switch) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// InstallInterruptHandler trips s on SIGINT or SIGTERM. onInterrupt, if
// non-nil, runs once per received signal before the switch trips. The
// returned function uninstalls the handler.
func InstallInterruptHandler(s *Switch, onInterrupt func()) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-quit:
				return
			case <-sigCh:
				if onInterrupt != nil {
					onInterrupt()
				}
				s.Trip(ReasonInterrupt)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(quit)
		})
	}
}
