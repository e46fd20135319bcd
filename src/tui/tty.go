// Package tui implements the device-facing half of the terminal layer:
// the byte channel over the tty, the raw-mode guard, the escape-sequence
// decoder, and the capability prober. The terminal is treated as write-only
// and untrusted; apart from the bounded probing phase, nothing in this
// package asks the device for state.
package tui

import (
	"time"

	"github.com/pkg/errors"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// Upper bound applied to COLUMNS/LINES when the kernel cannot answer
	maxFallbackSize = 4096

	// Reads are sliced into short polls so that cancellation and the
	// escape force-flush bound are honored even while waiting.
	readPollInterval = 5 * time.Millisecond

	maxInputChunk = 4 * 1024
)

// ErrReadTimeout is returned by ByteChannel.Read when the deadline passes
// with no bytes available. It is an expected condition, not a failure.
var ErrReadTimeout = errors.New("read timeout")

// ErrReadCancelled is returned when a blocked read is interrupted by
// Interrupt or Close.
var ErrReadCancelled = errors.New("read cancelled")

// ByteChannel is a thin wrapper over the raw input/output descriptors.
// Reads are bounded: every call returns within the given timeout even when
// no bytes arrive. Writes are buffered until Flush.
type ByteChannel interface {
	// Read returns whatever bytes are available within the timeout.
	// It returns ErrReadTimeout when the deadline passes with nothing to
	// read, and a permanent error when the descriptor is broken.
	Read(timeout time.Duration) ([]byte, error)

	// Write appends to the output buffer. No bytes reach the device
	// until Flush.
	Write(b []byte) (int, error)

	// Flush writes the buffered output to the device.
	Flush() error

	// Interrupt unblocks a concurrent Read before its timeout.
	Interrupt()

	// Close releases the underlying descriptors. Reads and writes after
	// Close fail.
	Close() error
}
