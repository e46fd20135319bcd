package terminal

import (
	"time"

	"github.com/berrym/lusush-sub003/src/util"
)

const (
	// Escape disambiguation: how long a lone ESC may sit in the decoder
	// before it is surfaced as a keypress
	defaultEscDelay = 100 * time.Millisecond
	minEscDelay     = 10 * time.Millisecond
	maxEscDelay     = 2 * time.Second

	// Capability cache entries older than this are reprobed
	cacheMaxAge = 30 * 24 * time.Hour

	// Suspend/resume gives the shell a moment to settle before raw mode
	// is re-entered
	resumeSettleDelay = 10 * time.Millisecond
)

// session events delivered out of band through the event box
const (
	EvtResize util.EventType = iota
	EvtResume
	EvtShutdown
)

const (
	ExitOk        = 0
	ExitError     = 2
	ExitInterrupt = 130
)
