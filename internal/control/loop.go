// Package control runs the engagement loop: it folds radar events into a
// candidate pool, picks a target at random, waits for an operator pulse
// and engages.
package control

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/killswitch"
	"github.com/ppiankov/samsite/internal/missile"
	"github.com/ppiankov/samsite/internal/radar"
)

// Engager submits one engagement. An error means no response was parsed.
type Engager interface {
	Engage(ctx context.Context, target string, userclick int64) (missile.Result, error)
}

// PulseSource blocks until the operator authorizes one engagement and
// returns a non-zero, strictly increasing pulse. It must return promptly
// when ctx is cancelled.
type PulseSource interface {
	Next(ctx context.Context) (int64, error)
}

// Reporter receives operator-facing notifications.
type Reporter interface {
	Locked(target string)
	Hit(target string)
	Missed(target string, res missile.Result)
	Aborted(target string, res missile.Result)
	TransportError(target string, err error)
	Refreshed()
}

// Outcome is one finished engagement attempt.
type Outcome struct {
	Target    string
	Userclick int64
	Result    missile.Result
	Err       error
	At        time.Time
}

// Recorder persists outcomes.
type Recorder interface {
	Record(o Outcome) error
}

// Summary is reported when the loop exits.
type Summary struct {
	Splashed int
	Attempts int
	Skipped  int
	Reason   string
}

// Loop owns the candidate pool and the skip set. Neither is shared with
// the radar.
type Loop struct {
	events   *radar.Channel
	engager  Engager
	pulses   PulseSource
	sw       *killswitch.Switch
	reporter Reporter
	recorder Recorder
	log      zerolog.Logger
	rng      *rand.Rand
	now      func() time.Time

	pool     []string
	skip     map[string]struct{}
	splashed int
	attempts int
}

// Option configures a Loop.
type Option func(*Loop)

// WithReporter sets the operator reporter.
func WithReporter(r Reporter) Option {
	return func(l *Loop) { l.reporter = r }
}

// WithRecorder appends every outcome to r.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// WithRand sets the source used to pick targets.
func WithRand(r *rand.Rand) Option {
	return func(l *Loop) { l.rng = r }
}

// New creates a control loop reading events and engaging through engager.
func New(events *radar.Channel, engager Engager, pulses PulseSource, sw *killswitch.Switch, opts ...Option) *Loop {
	l := &Loop{
		events:   events,
		engager:  engager,
		pulses:   pulses,
		sw:       sw,
		reporter: nopReporter{},
		log:      zerolog.Nop(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
		skip:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run loops until the switch trips, a refresh arrives or an engagement
// aborts. It returns an error only when the pulse source fails for a
// reason other than cancellation.
func (l *Loop) Run(ctx context.Context) (Summary, error) {
	for {
		if l.sw.Tripped() || ctx.Err() != nil {
			return l.summary(), nil
		}

		if refreshed := l.drain(); refreshed {
			l.reporter.Refreshed()
			l.sw.Trip(killswitch.ReasonRefresh)
			return l.summary(), nil
		}

		if l.exhausted() {
			l.idle(ctx)
			continue
		}

		target := l.pool[l.rng.IntN(len(l.pool))]
		if l.skipped(target) {
			continue
		}

		pulse, err := l.authorize(ctx, target)
		if l.sw.Tripped() || ctx.Err() != nil {
			return l.summary(), nil
		}
		if err != nil {
			return l.summary(), fmt.Errorf("authorization wait: %w", err)
		}

		if stop := l.engage(ctx, target, pulse); stop {
			return l.summary(), nil
		}
	}
}

// drain applies queued events in order. It stops at the first Refreshed
// and reports it; later events stay queued.
func (l *Loop) drain() bool {
	for {
		ev, ok := l.events.TryRecv()
		if !ok {
			return false
		}
		switch ev.Kind {
		case radar.Arrival:
			l.pool = append(l.pool, ev.Nation)
			l.log.Debug().Str("nation", ev.Nation).Int("pool", len(l.pool)).Msg("candidate added")
		case radar.Departure:
			l.remove(ev.Nation)
			l.log.Debug().Str("nation", ev.Nation).Int("pool", len(l.pool)).Msg("candidate departed")
		case radar.Refreshed:
			l.log.Info().Msg("region refreshed; stopping")
			return true
		}
	}
}

func (l *Loop) remove(name string) {
	kept := l.pool[:0]
	for _, n := range l.pool {
		if n != name {
			kept = append(kept, n)
		}
	}
	clear(l.pool[len(kept):])
	l.pool = kept
}

// exhausted reports whether no pick could lead to an engagement.
func (l *Loop) exhausted() bool {
	for _, n := range l.pool {
		if !l.skipped(n) {
			return false
		}
	}
	return true
}

func (l *Loop) skipped(name string) bool {
	_, ok := l.skip[name]
	return ok
}

// idle parks until the radar sends something or the run stops.
func (l *Loop) idle(ctx context.Context) {
	select {
	case <-l.events.Ready():
	case <-l.sw.Done():
	case <-ctx.Done():
	}
}

func (l *Loop) authorize(ctx context.Context, target string) (int64, error) {
	l.reporter.Locked(target)
	wctx, cancel := l.sw.Context(ctx)
	defer cancel()
	return l.pulses.Next(wctx)
}

// engage runs one attempt and applies its retry class. It returns true
// when the loop must stop.
func (l *Loop) engage(ctx context.Context, target string, pulse int64) bool {
	l.attempts++
	res, err := l.engager.Engage(ctx, target, pulse)
	l.record(Outcome{Target: target, Userclick: pulse, Result: res, Err: err, At: l.now()})

	if err != nil {
		l.log.Warn().Err(err).Str("target", target).Msg("engagement transport failure")
		l.reporter.TransportError(target, err)
		return false
	}

	if res.Success {
		l.skip[target] = struct{}{}
		l.splashed++
		l.reporter.Hit(target)
		return false
	}

	switch res.Class() {
	case missile.SkipPermanently:
		l.skip[target] = struct{}{}
		l.reporter.Missed(target, res)
	case missile.AbortAll:
		l.reporter.Aborted(target, res)
		l.sw.Trip(killswitch.ReasonAbort)
		return true
	default:
		l.reporter.Missed(target, res)
	}
	return false
}

func (l *Loop) record(o Outcome) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Record(o); err != nil {
		l.log.Error().Err(err).Str("target", o.Target).Msg("failed to record engagement")
	}
}

func (l *Loop) summary() Summary {
	return Summary{
		Splashed: l.splashed,
		Attempts: l.attempts,
		Skipped:  len(l.skip),
		Reason:   l.sw.Reason(),
	}
}

// Pool returns a copy of the candidate pool.
func (l *Loop) Pool() []string {
	return append([]string(nil), l.pool...)
}

// Skipped reports whether name is in the skip set.
func (l *Loop) Skipped(name string) bool {
	return l.skipped(name)
}

type nopReporter struct{}

func (nopReporter) Locked(string) {}
func (nopReporter) Hit(string) {}
func (nopReporter) Missed(string, missile.Result) {}
func (nopReporter) Aborted(string, missile.Result) {}
func (nopReporter) TransportError(string, error) {}
func (nopReporter) Refreshed() {}
