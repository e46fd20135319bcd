package terminal

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/berrym/lusush-sub003/src/tui"
)

// ErrSessionClosed is returned by every operation on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// ErrTimeout is returned by NextEvent when the deadline passes with no
// event available. Like a read timeout, it is a normal condition.
var ErrTimeout = errors.New("no event within timeout")

// ErrNotInteractive is returned by operations that require raw-mode
// control when the session runs in minimal mode.
var ErrNotInteractive = errors.New("session is not interactive")

// ChannelError reports a permanent failure of the underlying byte channel.
// Once one is returned the session is unusable and should be closed.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("terminal channel %s: %s", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ModeEntryError reports a failure to activate the selected integration
// mode, typically because raw mode could not be entered.
type ModeEntryError struct {
	Mode tui.IntegrationMode
	Err  error
}

func (e *ModeEntryError) Error() string {
	return fmt.Sprintf("cannot enter %s mode: %s", e.Mode, e.Err)
}

func (e *ModeEntryError) Unwrap() error {
	return e.Err
}
