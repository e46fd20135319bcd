package tui

import (
	"github.com/berrym/lusush-sub003/src/util"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// RawModeGuard is a scoped handle on "the device is in raw mode". Whatever
// happens after acquisition, Release puts the device back into the exact
// state it was in before. Release is idempotent so it can sit on the normal
// close path, on error paths, and in the atexit registry at the same time.
type RawModeGuard struct {
	fd       int
	orig     *term.State
	active   *util.AtomicBool
	released *util.AtomicBool
}

// EnterRawMode switches the descriptor into raw mode and returns the guard
// holding the original state. The guard is registered with the atexit
// registry so that abnormal termination still restores the device.
func EnterRawMode(fd int) (*RawModeGuard, error) {
	orig, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "raw mode entry rejected")
	}
	g := &RawModeGuard{
		fd:       fd,
		orig:     orig,
		active:   util.NewAtomicBool(true),
		released: util.NewAtomicBool(false),
	}
	util.AtExit(func() { g.Release() })
	return g, nil
}

// Suspend restores the original device mode without giving up the guard.
// Resume re-enters raw mode afterwards. Used for cooked-mode handoffs to
// subprocesses.
func (g *RawModeGuard) Suspend() error {
	if !g.active.Get() || g.released.Get() {
		return nil
	}
	g.active.Set(false)
	return errors.Wrap(term.Restore(g.fd, g.orig), "restore")
}

// Resume re-enters raw mode after a Suspend. The originally saved state is
// kept; a second MakeRaw result is discarded because the pre-session state
// is the only one worth restoring.
func (g *RawModeGuard) Resume() error {
	if g.active.Get() || g.released.Get() {
		return nil
	}
	if _, err := term.MakeRaw(g.fd); err != nil {
		return errors.Wrap(err, "raw mode re-entry rejected")
	}
	g.active.Set(true)
	return nil
}

// Active reports whether the device is currently in raw mode.
func (g *RawModeGuard) Active() bool {
	return g.active.Get() && !g.released.Get()
}

// Release restores the original device mode and retires the guard.
// Safe to call any number of times, from any exit path.
func (g *RawModeGuard) Release() error {
	if g.released.Get() {
		return nil
	}
	g.released.Set(true)
	g.active.Set(false)
	return errors.Wrap(term.Restore(g.fd, g.orig), "restore")
}
