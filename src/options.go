package terminal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/berrym/lusush-sub003/src/tui"
	"github.com/berrym/lusush-sub003/src/util"
)

// Options configures a session. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Input and Output override the controlling terminal. Leave nil to
	// let the session open the tty device itself.
	Input  *os.File
	Output *os.File

	// EscDelay bounds how long a lone ESC is held back waiting for the
	// rest of a sequence. ESCDELAY (ncurses convention, milliseconds)
	// overrides the default.
	EscDelay time.Duration

	// Probing controls. A zero timeout selects the built-in default;
	// NoProbe skips the query phase entirely and relies on environment
	// heuristics alone.
	ProbeTimeout time.Duration
	ProbeBudget  time.Duration
	NoProbe      bool

	// ForceMode overrides mode selection when non-empty
	// ("minimal", "native", "enhanced", "multiplexed").
	ForceMode string

	// Feature toggles. They can only narrow what the capability profile
	// allows, never widen it.
	Mouse          bool
	FocusEvents    bool
	BracketedPaste bool

	// CachePath is the capability cache file. Empty disables caching.
	CachePath string

	Logger *slog.Logger
}

// DefaultOptions builds the option set from the environment.
func DefaultOptions() *Options {
	opts := &Options{
		EscDelay:       defaultEscDelay,
		Mouse:          true,
		FocusEvents:    true,
		BracketedPaste: true,
		CachePath:      defaultCachePath(),
		Logger:         defaultLogger(),
	}
	if ms := util.EnvInt("ESCDELAY", 0); ms > 0 {
		opts.EscDelay = util.DurWithin(
			time.Duration(ms)*time.Millisecond, minEscDelay, maxEscDelay)
	}
	if ms := util.EnvInt("LUSUSH_PROBE_TIMEOUT", 0); ms > 0 {
		opts.ProbeTimeout = time.Duration(ms) * time.Millisecond
	}
	if len(os.Getenv("LUSUSH_NO_PROBE")) > 0 {
		opts.NoProbe = true
	}
	opts.ForceMode = strings.ToLower(os.Getenv("LUSUSH_TERM_MODE"))
	return opts
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lusush", "capabilities.json")
}

// defaultLogger writes debug records to $LUSUSH_TERM_LOG when set and
// discards them otherwise. Logging to the terminal itself would corrupt
// the raw-mode display.
func defaultLogger() *slog.Logger {
	if path := os.Getenv("LUSUSH_TERM_LOG"); len(path) > 0 {
		if file, err := os.OpenFile(path,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			return slog.New(slog.NewTextHandler(file,
				&slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseMode maps a ForceMode string to an integration mode.
func parseMode(name string) (tui.IntegrationMode, bool) {
	switch name {
	case "minimal":
		return tui.ModeMinimal, true
	case "native":
		return tui.ModeNative, true
	case "enhanced":
		return tui.ModeEnhanced, true
	case "multiplexed":
		return tui.ModeMultiplexed, true
	}
	return tui.ModeMinimal, false
}
