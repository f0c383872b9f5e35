// Package engine runs the radar and the control loop together for one
// run and joins them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/control"
	"github.com/ppiankov/samsite/internal/iff"
	"github.com/ppiankov/samsite/internal/killswitch"
	"github.com/ppiankov/samsite/internal/radar"
)

// Deps are the collaborators of a run.
type Deps struct {
	Reader   radar.Reader
	Registry *iff.Registry
	Engager  control.Engager
	Pulses   control.PulseSource
	Switch   *killswitch.Switch

	Observer radar.Observer   // optional
	Reporter control.Reporter // optional
	Recorder control.Recorder // optional
	Log      zerolog.Logger
}

// Run starts the radar, runs the control loop on the calling goroutine,
// and waits for the radar after the loop exits. The switch is tripped
// before the wait so the radar always stops.
func Run(ctx context.Context, cfg radar.Config, d Deps, loopOpts ...control.Option) (control.Summary, error) {
	if d.Reader == nil || d.Registry == nil || d.Engager == nil || d.Pulses == nil || d.Switch == nil {
		return control.Summary{}, errors.New("engine: missing dependency")
	}

	events := radar.NewChannel()

	radarOpts := []radar.Option{radar.WithLogger(d.Log.With().Str("component", "radar").Logger())}
	if d.Observer != nil {
		radarOpts = append(radarOpts, radar.WithObserver(d.Observer))
	}
	r := radar.New(cfg, d.Reader, d.Registry, events, d.Switch, radarOpts...)

	opts := []control.Option{control.WithLogger(d.Log.With().Str("component", "control").Logger())}
	if d.Reporter != nil {
		opts = append(opts, control.WithReporter(d.Reporter))
	}
	if d.Recorder != nil {
		opts = append(opts, control.WithRecorder(d.Recorder))
	}
	opts = append(opts, loopOpts...)
	loop := control.New(events, d.Engager, d.Pulses, d.Switch, opts...)

	var (
		wg       sync.WaitGroup
		radarErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		radarErr = r.Run(ctx)
	}()

	d.Log.Info().Str("region", cfg.Region).Msg("run started")
	summary, loopErr := loop.Run(ctx)
	d.Switch.Trip(killswitch.ReasonShutdown)
	wg.Wait()

	summary.Reason = d.Switch.Reason()
	d.Log.Info().
		Int("splashed", summary.Splashed).
		Int("attempts", summary.Attempts).
		Int("ticks", r.Ticks()).
		Str("reason", summary.Reason).
		Msg("run finished")

	switch {
	case radarErr != nil && loopErr != nil:
		return summary, errors.Join(radarErr, loopErr)
	case radarErr != nil:
		return summary, radarErr
	case loopErr != nil:
		return summary, fmt.Errorf("control loop: %w", loopErr)
	}
	return summary, nil
}
