package tui

// IntegrationMode is the control strategy chosen for a session. It is a
// closed set, selected once per session by SelectMode.
type IntegrationMode int

const (
	// ModeMinimal makes no interactivity assumptions: line-buffered
	// input, no raw mode, no queries. Pipes and harnesses land here.
	ModeMinimal IntegrationMode = iota
	// ModeNative is full raw-mode control of an interactive terminal
	ModeNative
	// ModeEnhanced is Native plus modern protocol features
	// (synchronized output, enhanced keyboard)
	ModeEnhanced
	// ModeMultiplexed operates inside tmux/screen with conservative
	// feature use
	ModeMultiplexed
)

var modeNames = [...]string{
	ModeMinimal:     "minimal",
	ModeNative:      "native",
	ModeEnhanced:    "enhanced",
	ModeMultiplexed: "multiplexed",
}

func (m IntegrationMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "minimal"
}

// Interactive reports whether the mode permits raw-mode control.
func (m IntegrationMode) Interactive() bool {
	return m != ModeMinimal
}

// SelectMode maps a capability profile and environment signals to an
// integration mode. It is pure and total: every input yields exactly one
// mode, and re-running it with the same inputs yields the same answer.
func SelectMode(profile Profile, env Environment) IntegrationMode {
	if !env.Interactive {
		return ModeMinimal
	}
	if env.Multiplexer != "" {
		return ModeMultiplexed
	}
	if profile.Reliability == Reliable &&
		(profile.SyncOutput || profile.EnhancedKeyboard) {
		return ModeEnhanced
	}
	return ModeNative
}
