package trigger

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	keySpace = ' '
	keyCtrlC = 0x03
)

// Keyboard issues one pulse per press of the space bar. A reader goroutine
// consumes the terminal for the Keyboard's whole lifetime, so Ctrl-C is
// seen while no wait is pending. Presses made before Next is called are
// discarded so a held or early key cannot authorize an engagement.
type Keyboard struct {
	clock       *Clock
	onInterrupt func()
	now         func() time.Time

	presses     chan time.Time
	interrupted chan struct{}
	failed      chan struct{}
	done        chan struct{}

	mu        sync.Mutex
	readErr   error
	interrupt sync.Once
	stop      sync.Once
	close     func() error
}

// NewKeyboard starts reading key bytes from in. Reads may block; Close
// must make a pending read return. onInterrupt, if set, runs as soon as
// the operator presses Ctrl-C.
func NewKeyboard(in io.Reader, clock *Clock, onInterrupt func()) *Keyboard {
	k := &Keyboard{
		clock:       clock,
		onInterrupt: onInterrupt,
		now:         time.Now,
		presses:     make(chan time.Time, 16),
		interrupted: make(chan struct{}),
		failed:      make(chan struct{}),
		done:        make(chan struct{}),
		close:       func() error { return nil },
	}
	go k.read(in)
	return k
}

func (k *Keyboard) read(in io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := in.Read(buf)
		at := k.now()
		for _, b := range buf[:n] {
			switch b {
			case keyCtrlC:
				k.interrupt.Do(func() {
					if k.onInterrupt != nil {
						k.onInterrupt()
					}
					close(k.interrupted)
				})
			case keySpace:
				select {
				case k.presses <- at:
				default:
				}
			}
		}
		if err != nil {
			select {
			case <-k.done:
			default:
				k.mu.Lock()
				k.readErr = err
				k.mu.Unlock()
				close(k.failed)
			}
			return
		}
	}
}

// Next blocks until the space bar is pressed, ctx ends or the operator
// presses Ctrl-C. Once interrupted, every later call returns
// ErrInterrupted.
func (k *Keyboard) Next(ctx context.Context) (int64, error) {
	since := k.now()
	for {
		select {
		case <-k.interrupted:
			return 0, ErrInterrupted
		default:
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-k.interrupted:
			return 0, ErrInterrupted
		case <-k.failed:
			k.mu.Lock()
			err := k.readErr
			k.mu.Unlock()
			return 0, fmt.Errorf("failed to read keyboard: %w", err)
		case at := <-k.presses:
			if at.Before(since) {
				continue
			}
			return k.clock.Stamp(), nil
		}
	}
}

// Close stops the reader and restores the terminal.
func (k *Keyboard) Close() error {
	var err error
	k.stop.Do(func() {
		close(k.done)
		err = k.close()
	})
	return err
}
