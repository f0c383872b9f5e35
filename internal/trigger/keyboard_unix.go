//go:build unix

package trigger

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

var errNoTerminal = errors.New("no terminal available for keyboard trigger; use trigger: file")

// OpenKeyboard puts the controlling terminal into raw mode and returns a
// Keyboard reading from it. The descriptor is only touched through
// SyscallConn so reads stay in the runtime poller and Close can interrupt
// them. Close restores the terminal.
func OpenKeyboard(clock *Clock, onInterrupt func()) (*Keyboard, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNoTerminal, err)
	}
	rc, err := tty.SyscallConn()
	if err != nil {
		_ = tty.Close()
		return nil, fmt.Errorf("terminal descriptor: %w", err)
	}

	var (
		state  *term.State
		rawErr error
	)
	if err := rc.Control(func(fd uintptr) {
		if !term.IsTerminal(int(fd)) {
			rawErr = errNoTerminal
			return
		}
		state, rawErr = term.MakeRaw(int(fd))
	}); err != nil {
		rawErr = err
	}
	if rawErr != nil {
		_ = tty.Close()
		return nil, fmt.Errorf("raw mode failed: %w", rawErr)
	}

	k := NewKeyboard(tty, clock, onInterrupt)
	k.close = func() error {
		var restoreErr error
		_ = rc.Control(func(fd uintptr) {
			restoreErr = term.Restore(int(fd), state)
		})
		if err := tty.Close(); err != nil && restoreErr == nil {
			restoreErr = err
		}
		return restoreErr
	}
	return k, nil
}
