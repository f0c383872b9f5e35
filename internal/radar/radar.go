// Package radar polls a region's membership and turns consecutive
// snapshots into Arrival, Departure and Refreshed events.
package radar

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/iff"
	"github.com/ppiankov/samsite/internal/killswitch"
	"github.com/ppiankov/samsite/internal/nsapi"
)

// Reader fetches one membership snapshot.
type Reader interface {
	Membership(ctx context.Context, region string, filter nsapi.Filter) (nsapi.Membership, error)
}

// Observer is told about every newly seen nation and its disposition,
// including the ones that produce no event.
type Observer interface {
	Detected(name string, d iff.Disposition, m iff.Match)
}

type nopObserver struct{}

func (nopObserver) Detected(string, iff.Disposition, iff.Match) {}

// Config holds radar configuration. It is fixed for the run.
type Config struct {
	Region       string
	Filter       nsapi.Filter
	StopOnUpdate bool
	Delay        time.Duration // slept after each tick
	Jitter       time.Duration // uniform [0, Jitter) added to Delay
}

// Radar is the producer side of the run. It owns the previous snapshot
// and revision; nothing else reads or writes them.
type Radar struct {
	cfg      Config
	reader   Reader
	registry *iff.Registry
	out      *Channel
	sw       *killswitch.Switch
	observer Observer
	log      zerolog.Logger
	jitter   func(time.Duration) time.Duration

	previous    []string
	previousRev uint64
	initialized bool
	ticks       int
}

// Option customizes a Radar.
type Option func(*Radar)

// WithObserver reports detections to o.
func WithObserver(o Observer) Option {
	return func(r *Radar) { r.observer = o }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Radar) { r.log = l }
}

// New creates a Radar that emits onto out and watches sw.
func New(cfg Config, reader Reader, registry *iff.Registry, out *Channel, sw *killswitch.Switch, opts ...Option) *Radar {
	r := &Radar{
		cfg:      cfg,
		reader:   reader,
		registry: registry,
		out:      out,
		sw:       sw,
		observer: nopObserver{},
		log:      zerolog.Nop(),
		jitter:   uniformJitter,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Initialize takes the baseline snapshot. Nations present at startup
// produce no events.
func (r *Radar) Initialize(ctx context.Context) error {
	m, err := r.reader.Membership(ctx, r.cfg.Region, r.cfg.Filter)
	if err != nil {
		return fmt.Errorf("radar failure during initialization: %w", err)
	}
	r.remember(m)
	r.initialized = true
	r.log.Info().Str("region", r.cfg.Region).Int("members", len(m.Members)).Uint64("revision", m.Revision).Msg("radar baseline")
	return r.pause(ctx)
}

// Run polls until the switch trips, the region updates with StopOnUpdate
// set, or ctx is cancelled. A fetch error trips the switch and is
// returned: the run cannot continue on stale membership.
func (r *Radar) Run(ctx context.Context) error {
	ctx, cancel := r.sw.Context(ctx)
	defer cancel()

	if !r.initialized {
		if err := r.Initialize(ctx); err != nil {
			return r.fail(ctx, err)
		}
	}

	for !r.sw.Tripped() {
		stop, err := r.Tick(ctx)
		if err != nil {
			return r.fail(ctx, err)
		}
		if stop {
			return nil
		}
		if err := r.pause(ctx); err != nil {
			return nil
		}
	}
	return nil
}

// fail trips the switch for a fetch error. Errors caused by ctx ending
// are a normal shutdown.
func (r *Radar) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	r.sw.Trip(killswitch.ReasonRadar)
	return err
}

// Tick performs one poll. It reports stop=true when the region updated
// and StopOnUpdate is set; in that case only Refreshed is emitted and the
// membership diff for the tick is discarded.
func (r *Radar) Tick(ctx context.Context) (bool, error) {
	m, err := r.reader.Membership(ctx, r.cfg.Region, r.cfg.Filter)
	if err != nil {
		return false, fmt.Errorf("radar failure: %w", err)
	}
	r.ticks++

	if r.cfg.StopOnUpdate && m.Revision > r.previousRev {
		r.log.Info().Uint64("previous", r.previousRev).Uint64("current", m.Revision).Msg("region updated")
		r.out.Send(Event{Kind: Refreshed})
		r.sw.Trip(killswitch.ReasonRefresh)
		return true, nil
	}

	departed, arrived := Diff(r.previous, m.Members)
	for _, name := range departed {
		r.out.Send(Event{Kind: Departure, Nation: name})
	}
	for _, name := range arrived {
		d, m := r.registry.Explain(name)
		r.observer.Detected(name, d, m)
		r.log.Debug().Str("nation", name).Stringer("disposition", d).Str("match", string(m)).Msg("inbound")
		if d == iff.Hostile {
			r.out.Send(Event{Kind: Arrival, Nation: name})
		}
	}

	r.previous = m.Members
	r.previousRev = m.Revision
	return false, nil
}

// Ticks returns the number of completed polls after the baseline.
func (r *Radar) Ticks() int {
	return r.ticks
}

func (r *Radar) remember(m nsapi.Membership) {
	r.previous = m.Members
	r.previousRev = m.Revision
}

// pause sleeps the inter-request delay. It runs after a tick is processed,
// never before a fetch. It returns early when the switch trips or ctx ends.
func (r *Radar) pause(ctx context.Context) error {
	d := r.cfg.Delay + r.jitter(r.cfg.Jitter)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.sw.Done():
		return nil
	case <-t.C:
		return nil
	}
}

// Diff compares two snapshots. departed keeps prev order, arrived keeps
// curr order; names in both produce nothing.
func Diff(prev, curr []string) (departed, arrived []string) {
	prevSet, currSet := toSet(prev), toSet(curr)
	for _, n := range prev {
		if _, ok := currSet[n]; !ok {
			departed = append(departed, n)
		}
	}
	for _, n := range curr {
		if _, ok := prevSet[n]; !ok {
			arrived = append(arrived, n)
		}
	}
	return departed, arrived
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
