//go:build !unix

package trigger

import "fmt"

// OpenKeyboard is not supported on this platform.
func OpenKeyboard(clock *Clock, onInterrupt func()) (*Keyboard, error) {
	return nil, fmt.Errorf("keyboard trigger not supported on this platform; use trigger: file")
}
