package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/audit"
	"github.com/ppiankov/samsite/internal/control"
	"github.com/ppiankov/samsite/internal/iff"
	"github.com/ppiankov/samsite/internal/killswitch"
	"github.com/ppiankov/samsite/internal/missile"
	"github.com/ppiankov/samsite/internal/nsapi"
	"github.com/ppiankov/samsite/internal/radar"
)

// scriptedReader returns each snapshot in turn and then repeats the last.
type scriptedReader struct {
	mu    sync.Mutex
	snaps []nsapi.Membership
	err   error
	calls int
}

func (s *scriptedReader) Membership(ctx context.Context, region string, f nsapi.Filter) (nsapi.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil && s.calls > 1 {
		return nsapi.Membership{}, s.err
	}
	i := s.calls - 1
	if i >= len(s.snaps) {
		i = len(s.snaps) - 1
	}
	return s.snaps[i], nil
}

type engagerFunc func(target string) (missile.Result, error)

func (f engagerFunc) Engage(ctx context.Context, target string, userclick int64) (missile.Result, error) {
	return f(target)
}

// tickingPulses authorizes immediately with increasing stamps.
type tickingPulses struct {
	mu sync.Mutex
	n  int64
}

func (p *tickingPulses) Next(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	return p.n, nil
}

func runConfig() radar.Config {
	return radar.Config{Region: "home", Filter: nsapi.WAMembers, StopOnUpdate: true, Delay: time.Millisecond}
}

func waitRun(t *testing.T, fn func() (control.Summary, error)) (control.Summary, error) {
	t.Helper()
	type result struct {
		s   control.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := fn()
		done <- result{s, err}
	}()
	select {
	case r := <-done:
		return r.s, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
		return control.Summary{}, nil
	}
}

func TestRunEngagesArrivalAndStopsOnRefresh(t *testing.T) {
	reader := &scriptedReader{snaps: []nsapi.Membership{
		{Members: []string{"local"}, Revision: 1},
		{Members: []string{"local", "bandit"}, Revision: 1},
		{Members: []string{"local", "bandit"}, Revision: 1},
		{Members: []string{"local", "bandit"}, Revision: 1},
		{Members: []string{"local"}, Revision: 2},
	}}
	registry := iff.NewBuilder(iff.Eliminate).AllowImplicit("local").Build()
	sw := killswitch.New()

	var mu sync.Mutex
	var engaged []string
	eng := engagerFunc(func(target string) (missile.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		engaged = append(engaged, target)
		return missile.Result{Success: true}, nil
	})

	summary, err := waitRun(t, func() (control.Summary, error) {
		return Run(context.Background(), runConfig(), Deps{
			Reader: reader, Registry: registry, Engager: eng,
			Pulses: &tickingPulses{}, Switch: sw, Log: zerolog.Nop(),
		})
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Reason != killswitch.ReasonRefresh {
		t.Fatalf("reason = %q", summary.Reason)
	}
	mu.Lock()
	defer mu.Unlock()
	if summary.Splashed != 1 || len(engaged) != 1 || engaged[0] != "bandit" {
		t.Fatalf("summary %+v engaged %v", summary, engaged)
	}
}

func TestRunRadarFailureStopsRun(t *testing.T) {
	reader := &scriptedReader{
		snaps: []nsapi.Membership{{Members: []string{"a"}, Revision: 1}},
		err:   errors.New("503"),
	}
	sw := killswitch.New()
	eng := engagerFunc(func(string) (missile.Result, error) {
		t.Error("nothing should be engaged")
		return missile.Result{}, nil
	})

	summary, err := waitRun(t, func() (control.Summary, error) {
		return Run(context.Background(), runConfig(), Deps{
			Reader: reader, Registry: iff.NewBuilder(iff.Eliminate).Build(), Engager: eng,
			Pulses: &tickingPulses{}, Switch: sw, Log: zerolog.Nop(),
		})
	})
	if err == nil {
		t.Fatal("expected radar error")
	}
	if summary.Reason != killswitch.ReasonRadar {
		t.Fatalf("reason = %q", summary.Reason)
	}
}

func TestRunStopsRadarWhenLoopAborts(t *testing.T) {
	reader := &scriptedReader{snaps: []nsapi.Membership{
		{Members: nil, Revision: 1},
		{Members: []string{"foe"}, Revision: 1},
	}}
	sw := killswitch.New()
	eng := engagerFunc(func(string) (missile.Result, error) {
		return missile.Result{Reason: missile.NotAllowed}, nil
	})

	summary, err := waitRun(t, func() (control.Summary, error) {
		return Run(context.Background(), runConfig(), Deps{
			Reader: reader, Registry: iff.NewBuilder(iff.Eliminate).Build(), Engager: eng,
			Pulses: &tickingPulses{}, Switch: sw, Log: zerolog.Nop(),
		})
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Reason != killswitch.ReasonAbort || summary.Attempts != 1 {
		t.Fatalf("summary %+v", summary)
	}
}

func TestRunMissingDependency(t *testing.T) {
	if _, err := Run(context.Background(), runConfig(), Deps{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAuditRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engagements.jsonl")
	log, err := audit.Open(path, "run-x", "home")
	if err != nil {
		t.Fatal(err)
	}
	rec := AuditRecorder{Log: log}

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	outcomes := []control.Outcome{
		{Target: "a", Userclick: 1, Result: missile.Result{Success: true}, At: at},
		{Target: "b", Userclick: 2, Result: missile.Result{Reason: missile.NotAllowed, Detail: "no"}, At: at},
		{Target: "c", Userclick: 3, Err: errors.New("reset"), At: at},
	}
	RunStarted(log)
	for _, o := range outcomes {
		if err := rec.Record(o); err != nil {
			t.Fatal(err)
		}
	}
	RunEnded(log, control.Summary{Splashed: 1, Reason: killswitch.ReasonAbort})
	log.Close()

	if v := audit.Verify(path); !v.Valid || v.Lines != 5 {
		t.Fatalf("verify %+v", v)
	}
	result, err := audit.Tail(path, audit.TailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	s := result.Summary
	if s.Hits != 1 || s.Misses != 1 || s.TransportFails != 1 || s.Aborts != 1 {
		t.Fatalf("summary %+v", s)
	}
	if result.Entries[2].Class != "abort" || result.Entries[2].Reason != "not_allowed" {
		t.Fatalf("entry %+v", result.Entries[2])
	}
	if result.Entries[1].Timestamp != "2026-03-04T05:06:07.000Z" {
		t.Fatalf("timestamp %q", result.Entries[1].Timestamp)
	}
}
