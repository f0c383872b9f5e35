package trigger

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestClockStrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(5000)
	c := &Clock{now: func() time.Time { return fixed }}

	a, b, d := c.Stamp(), c.Stamp(), c.Stamp()
	if a != 5000 || b != 5001 || d != 5002 {
		t.Fatalf("stamps = %d %d %d", a, b, d)
	}

	fixed = time.UnixMilli(4000)
	if got := c.Stamp(); got != 5003 {
		t.Fatalf("stamp after clock went back = %d", got)
	}
}

func TestClockNeverZero(t *testing.T) {
	c := &Clock{now: func() time.Time { return time.UnixMilli(0) }}
	if c.Stamp() == 0 {
		t.Fatal("stamp must not be zero")
	}
}

// newPipeKeyboard returns a keyboard reading from a pipe and the write
// end standing in for the terminal. Writes return once the reader has
// consumed the bytes.
func newPipeKeyboard(t *testing.T, onInterrupt func()) (*Keyboard, *io.PipeWriter) {
	t.Helper()
	pr, pw := io.Pipe()
	k := NewKeyboard(pr, NewClock(), onInterrupt)
	k.close = func() error { return pr.Close() }
	t.Cleanup(func() { _ = k.Close() })
	return k, pw
}

func press(t *testing.T, pw *io.PipeWriter, keys string) {
	t.Helper()
	if _, err := pw.Write([]byte(keys)); err != nil {
		t.Errorf("press %q: %v", keys, err)
	}
}

func TestKeyboardSpaceIssuesPulse(t *testing.T) {
	k, pw := newPipeKeyboard(t, nil)

	go func() {
		time.Sleep(30 * time.Millisecond)
		press(t, pw, "xy ")
	}()

	pulse, err := k.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if pulse == 0 {
		t.Fatal("zero pulse")
	}
}

func TestKeyboardDiscardsEarlyKeys(t *testing.T) {
	k, pw := newPipeKeyboard(t, nil)
	press(t, pw, "   ")
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if _, err := k.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout, stale presses authorized: %v", err)
	}
}

func TestKeyboardCtrlCInterrupts(t *testing.T) {
	var called atomic.Int32
	k, pw := newPipeKeyboard(t, func() { called.Add(1) })

	go func() {
		time.Sleep(30 * time.Millisecond)
		press(t, pw, "\x03")
	}()

	if _, err := k.Next(context.Background()); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if n := called.Load(); n != 1 {
		t.Fatalf("onInterrupt called %d times", n)
	}
	if _, err := k.Next(context.Background()); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("later Next should stay interrupted, got %v", err)
	}
}

func TestKeyboardPendingCtrlCStillInterrupts(t *testing.T) {
	k, pw := newPipeKeyboard(t, nil)
	press(t, pw, "a\x03")

	if _, err := k.Next(context.Background()); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
}

func TestKeyboardCtrlCWithoutWait(t *testing.T) {
	fired := make(chan struct{})
	_, pw := newPipeKeyboard(t, func() { close(fired) })

	press(t, pw, "\x03")

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Ctrl-C not handled while no wait was pending")
	}
}

func TestKeyboardCancelledWhileBlocked(t *testing.T) {
	k, _ := newPipeKeyboard(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := k.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Fatalf("Next returned %v after its deadline", waited)
	}
}

func TestKeyboardReadError(t *testing.T) {
	k := NewKeyboard(errReader{}, NewClock(), nil)
	if _, err := k.Next(context.Background()); !errors.Is(err, syscall.EIO) {
		t.Fatalf("expected read error, got %v", err)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, syscall.EIO }

func TestFileSourcePulsesOnFire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trigger")
	src, err := OpenFileSource(path, NewClock())
	if err != nil {
		t.Fatalf("OpenFileSource: %v", err)
	}
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	var pulse int64
	var nextErr error
	go func() {
		pulse, nextErr = src.Next(ctx)
		close(done)
	}()

	// Fire until the waiter has picked one up; the first write may land
	// before Next has discarded stale events.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			if nextErr != nil {
				t.Fatalf("Next: %v", nextErr)
			}
			if pulse == 0 {
				t.Fatal("zero pulse")
			}
			return
		case <-ticker.C:
			if err := Fire(path); err != nil {
				t.Fatalf("Fire: %v", err)
			}
		}
	}
}

func TestFileSourceIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	src, err := OpenFileSource(filepath.Join(dir, "trigger"), NewClock())
	if err != nil {
		t.Fatalf("OpenFileSource: %v", err)
	}
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = Fire(filepath.Join(dir, "other"))
	}()

	if _, err := src.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestFileSourceCancelled(t *testing.T) {
	src, err := OpenFileSource(filepath.Join(t.TempDir(), "sub", "trigger"), NewClock())
	if err != nil {
		t.Fatalf("OpenFileSource: %v", err)
	}
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
