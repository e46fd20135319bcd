package tui

import (
	"os"
	"strings"
)

// ColorDepth is the color capability of the peer.
type ColorDepth int

const (
	ColorNone ColorDepth = iota
	Color16
	Color256
	ColorTrue
)

var colorNames = [...]string{
	ColorNone: "none",
	Color16:   "16",
	Color256:  "256",
	ColorTrue: "truecolor",
}

func (c ColorDepth) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "none"
}

// Reliability records how much of the profile was confirmed by the device
// itself, as opposed to guessed from the environment.
type Reliability int

const (
	// Heuristic means no probe was answered; the profile is a guess
	Heuristic Reliability = iota
	// Reliable means the identification probe was answered
	Reliable
)

func (r Reliability) String() string {
	if r == Reliable {
		return "reliable"
	}
	return "heuristic"
}

// Profile is the capability record of one terminal peer. It is built once
// (environment seeding, optionally refined by probing) and never mutated;
// re-detection constructs a new Profile.
type Profile struct {
	TermName string // $TERM
	Program  string // terminal program name, from the environment
	ID       string // primary device attributes response
	Version  string // terminal name/version reported by the device

	Color            ColorDepth
	CursorQuery      bool
	BracketedPaste   bool
	FocusEvents      bool
	Mouse            bool
	EnhancedKeyboard bool
	SyncOutput       bool

	Reliability Reliability
}

// CacheKey identifies the peer for profile caching. It is built purely from
// environment strings so that it is available before any probing.
func (p Profile) CacheKey() string {
	return p.TermName + "/" + p.Program
}

// Environment is the set of signals available without touching the device.
type Environment struct {
	Interactive bool
	Term        string
	Program     string
	Multiplexer string // "tmux", "screen" or ""
	ColorTerm   string
	NoColor     bool
}

// terminals known to support bracketed paste, focus reporting and SGR mouse
var modernPrograms = map[string]bool{
	"ghostty":   true,
	"kitty":     true,
	"wezterm":   true,
	"iterm.app": true,
	"alacritty": true,
	"vscode":    true,
	"foot":      true,
	"contour":   true,
}

// DetectEnvironment inspects environment variables only; no I/O. The
// interactive flag comes from the caller because only the caller knows
// which descriptor the session will actually read from.
func DetectEnvironment(interactive bool) Environment {
	env := Environment{
		Interactive: interactive,
		Term:        os.Getenv("TERM"),
		Program:     strings.ToLower(os.Getenv("TERM_PROGRAM")),
		ColorTerm:   strings.ToLower(os.Getenv("COLORTERM")),
		NoColor:     len(os.Getenv("NO_COLOR")) > 0,
	}

	// Multiplexer markers win over whatever the inner terminal reports,
	// since the multiplexer is the peer we are actually talking to
	if len(os.Getenv("TMUX")) > 0 || env.Program == "tmux" {
		env.Multiplexer = "tmux"
	} else if len(os.Getenv("STY")) > 0 ||
		strings.HasPrefix(env.Term, "screen") {
		env.Multiplexer = "screen"
	}

	if env.Program == "" {
		switch {
		case env.Term == "xterm-ghostty":
			env.Program = "ghostty"
		case env.Term == "xterm-kitty",
			len(os.Getenv("KITTY_WINDOW_ID")) > 0:
			env.Program = "kitty"
		case strings.HasPrefix(env.Term, "alacritty"):
			env.Program = "alacritty"
		case len(os.Getenv("ITERM_SESSION_ID")) > 0,
			os.Getenv("LC_TERMINAL") == "iTerm2":
			env.Program = "iterm.app"
		case len(os.Getenv("WEZTERM_EXECUTABLE")) > 0:
			env.Program = "wezterm"
		}
	}
	return env
}

// SeedProfile builds the heuristic baseline profile from environment
// signals. Probing refines this profile; it never starts from scratch, so
// an entirely silent peer still leaves the session with sane defaults.
func SeedProfile(env Environment) Profile {
	p := Profile{
		TermName:    env.Term,
		Program:     env.Program,
		Reliability: Heuristic,
	}
	if !env.Interactive {
		return p
	}

	switch {
	case env.NoColor:
		p.Color = ColorNone
	case env.ColorTerm == "truecolor" || env.ColorTerm == "24bit":
		p.Color = ColorTrue
	case strings.Contains(env.Term, "256"):
		p.Color = Color256
	case len(env.Term) > 0 && env.Term != "dumb":
		p.Color = Color16
	}

	if modernPrograms[env.Program] {
		p.BracketedPaste = true
		p.FocusEvents = true
		p.Mouse = true
	} else if strings.HasPrefix(env.Term, "xterm") ||
		strings.HasPrefix(env.Term, "tmux") ||
		strings.HasPrefix(env.Term, "screen") {
		p.BracketedPaste = true
		p.Mouse = true
	}

	if env.Multiplexer != "" {
		// Focus and mouse reports conflict with multiplexer
		// pass-through often enough to default them off
		p.FocusEvents = false
		p.Mouse = false
	}
	return p
}
