//go:build !windows

package tui

import (
	"io"
	"os"
	"syscall"
	"time"

	"github.com/berrym/lusush-sub003/src/util"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const consoleDevice string = "/dev/tty"

var devPrefixes = [...]string{"/dev/pts/", "/dev/"}

func ttyname() string {
	var stderr syscall.Stat_t
	if syscall.Fstat(2, &stderr) != nil {
		return ""
	}

	for _, prefix := range devPrefixes {
		files, err := os.ReadDir(prefix)
		if err != nil {
			continue
		}

		for _, file := range files {
			info, err := file.Info()
			if err != nil {
				continue
			}
			if stat, ok := info.Sys().(*syscall.Stat_t); ok && stat.Rdev == stderr.Rdev {
				return prefix + file.Name()
			}
		}
	}
	return ""
}

// TtyChannel is the ByteChannel implementation over a terminal device (or
// any pair of pipe-like descriptors in tests). A self-pipe makes blocked
// reads interruptible.
type TtyChannel struct {
	in      *os.File
	out     *os.File
	ownsIn  bool
	queued  []byte
	cancelR *os.File
	cancelW *os.File
	closed  *util.AtomicBool
}

// OpenTtyChannel opens the controlling terminal for reading and writing.
// It prefers the process's tty device over /dev/tty so that redirected
// stdio does not break interactive input.
func OpenTtyChannel() (*TtyChannel, error) {
	in, err := openTtyIn()
	if err != nil {
		return nil, err
	}
	out, err := openTtyOut()
	if err != nil {
		in.Close()
		return nil, err
	}
	ch := NewTtyChannel(in, out)
	ch.ownsIn = true
	return ch, nil
}

// NewTtyChannel wraps existing descriptors without taking ownership of them.
func NewTtyChannel(in *os.File, out *os.File) *TtyChannel {
	ch := &TtyChannel{in: in, out: out, closed: util.NewAtomicBool(false)}
	if r, w, err := os.Pipe(); err == nil {
		ch.cancelR, ch.cancelW = r, w
	}
	return ch
}

func openTty(mode int) (*os.File, error) {
	if tty := ttyname(); len(tty) > 0 {
		if in, err := os.OpenFile(tty, mode, 0); err == nil {
			return in, nil
		}
	}
	in, err := os.OpenFile(consoleDevice, mode, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open "+consoleDevice)
	}
	return in, nil
}

func openTtyIn() (*os.File, error) {
	return openTty(syscall.O_RDONLY)
}

func openTtyOut() (*os.File, error) {
	return openTty(syscall.O_WRONLY)
}

// Fd returns the input descriptor; the raw-mode guard operates on it.
func (ch *TtyChannel) Fd() int {
	return int(ch.in.Fd())
}

// IsTerminal reports whether the input descriptor is a terminal device.
func (ch *TtyChannel) IsTerminal() bool {
	return util.IsTty(ch.in)
}

func (ch *TtyChannel) Read(timeout time.Duration) ([]byte, error) {
	if ch.closed.Get() {
		return nil, errors.Wrap(ErrReadCancelled, "channel closed")
	}

	fd := ch.Fd()
	deadline := time.Now().Add(timeout)
	for first := true; ; first = false {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if !first {
				return nil, ErrReadTimeout
			}
			// A zero timeout still performs one non-blocking poll.
			remaining = 0
		}

		var rfds unix.FdSet
		rfds.Set(fd)
		cancelFd := -1
		if ch.cancelR != nil {
			cancelFd = int(ch.cancelR.Fd())
			rfds.Set(cancelFd)
		}

		tv := unix.NsecToTimeval(int64(util.DurWithin(
			remaining, 0, readPollInterval)))
		_, err := unix.Select(util.Max(fd, cancelFd)+1, &rfds, nil, nil, &tv)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return nil, errors.Wrap(err, "select")
		}

		if cancelFd >= 0 && rfds.IsSet(cancelFd) {
			drain := make([]byte, 8)
			ch.cancelR.Read(drain)
			return nil, ErrReadCancelled
		}

		if rfds.IsSet(fd) {
			buf := make([]byte, maxInputChunk)
			n, err := unix.Read(fd, buf)
			if err != nil {
				if err == syscall.EINTR || err == syscall.EAGAIN {
					continue
				}
				return nil, errors.Wrap(err, "read "+ch.in.Name())
			}
			if n == 0 {
				return nil, errors.Wrap(io.EOF, "read "+ch.in.Name())
			}
			return buf[:n], nil
		}
	}
}

func (ch *TtyChannel) Write(b []byte) (int, error) {
	if ch.closed.Get() {
		return 0, errors.New("write on closed channel")
	}
	ch.queued = append(ch.queued, b...)
	return len(b), nil
}

func (ch *TtyChannel) Flush() error {
	if len(ch.queued) == 0 {
		return nil
	}
	_, err := ch.out.Write(ch.queued)
	ch.queued = ch.queued[:0]
	return errors.Wrap(err, "flush")
}

func (ch *TtyChannel) Interrupt() {
	if ch.cancelW != nil {
		ch.cancelW.Write([]byte{0})
	}
}

func (ch *TtyChannel) Close() error {
	if ch.closed.Get() {
		return nil
	}
	ch.closed.Set(true)
	ch.Interrupt()
	if ch.cancelR != nil {
		ch.cancelR.Close()
		ch.cancelW.Close()
	}
	if ch.ownsIn {
		ch.out.Close()
		return ch.in.Close()
	}
	return nil
}

// Size queries the kernel (not the terminal) for the current window size.
func (ch *TtyChannel) Size() (cols int, rows int) {
	ws, err := unix.IoctlGetWinsize(ch.Fd(), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return util.Constrain(util.EnvInt("COLUMNS", defaultWidth), 1, maxFallbackSize),
			util.Constrain(util.EnvInt("LINES", defaultHeight), 1, maxFallbackSize)
	}
	return int(ws.Col), int(ws.Row)
}
