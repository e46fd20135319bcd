// Package terminal manages the shell's relationship with its terminal: it
// detects what the peer can do, picks an integration mode, owns raw mode,
// and turns the raw byte stream into typed input events. The terminal is
// treated as write-only and untrusted; the package never blocks on it and
// never assumes a query will be answered.
package terminal

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/berrym/lusush-sub003/src/tui"
	"github.com/berrym/lusush-sub003/src/util"
)

// SessionState is the controller's lifecycle position.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateProbing
	StateModeSelected
	StateRawActive
	StateSuspended
	StateClosed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateProbing:       "probing",
	StateModeSelected:  "mode-selected",
	StateRawActive:     "raw-active",
	StateSuspended:     "suspended",
	StateClosed:        "closed",
}

func (s SessionState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Session is the terminal controller. One session owns the tty for the
// lifetime of the interactive program; all reads, writes and mode changes
// go through it.
type Session struct {
	opts     *Options
	ch       tui.ByteChannel
	tty      *tui.TtyChannel
	decoder  *tui.Decoder
	guard    *tui.RawModeGuard
	cache    *ProfileCache
	eventBox *util.EventBox

	env     tui.Environment
	profile tui.Profile
	mode    tui.IntegrationMode

	mutex        sync.Mutex
	state        SessionState
	pasting      bool
	pendingSince time.Time
	cols, rows   int

	seq     uint64
	sigChan chan os.Signal
	closed  *util.AtomicBool
}

// OpenSession detects the terminal, selects the integration mode, and for
// interactive modes enters raw mode. It never blocks for longer than the
// probe budget; against a pipe or a silent peer it degrades rather than
// fails.
func OpenSession(opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.EscDelay <= 0 {
		opts.EscDelay = defaultEscDelay
	}
	opts.EscDelay = util.DurWithin(opts.EscDelay, minEscDelay, maxEscDelay)
	s := &Session{
		opts:     opts,
		decoder:  tui.NewDecoder(),
		cache:    NewProfileCache(opts.CachePath),
		eventBox: util.NewEventBox(),
		state:    StateUninitialized,
		closed:   util.NewAtomicBool(false),
	}

	if err := s.openChannel(); err != nil {
		return nil, err
	}

	interactive := s.tty != nil && s.tty.IsTerminal()
	s.env = tui.DetectEnvironment(interactive)
	s.profile = tui.SeedProfile(s.env)
	opts.Logger.Debug("environment detected",
		"interactive", interactive,
		"term", s.env.Term,
		"program", s.env.Program,
		"multiplexer", s.env.Multiplexer)

	if interactive {
		if err := s.initInteractive(); err != nil {
			s.ch.Close()
			return nil, err
		}
	} else {
		s.selectMode()
	}

	s.cols, s.rows = s.size()
	return s, nil
}

func (s *Session) openChannel() error {
	if s.opts.Input != nil {
		if s.opts.Output == nil {
			s.opts.Output = os.Stderr
		}
		tty := tui.NewTtyChannel(s.opts.Input, s.opts.Output)
		s.tty = tty
		s.ch = tty
		return nil
	}
	tty, err := tui.OpenTtyChannel()
	if err != nil {
		// No controlling terminal at all; fall back to stdio so the
		// session still works in minimal mode
		out := os.Stderr
		if util.ToTty() {
			out = os.Stdout
		}
		tty = tui.NewTtyChannel(os.Stdin, out)
	}
	s.tty = tty
	s.ch = tty
	return nil
}

// initInteractive runs the probing phase and activates the selected mode.
// Raw mode is required before the first query goes out: without it the
// responses would be echoed and line-buffered.
func (s *Session) initInteractive() error {
	guard, err := tui.EnterRawMode(s.tty.Fd())
	if err != nil {
		return &ModeEntryError{Mode: tui.ModeNative, Err: err}
	}
	s.guard = guard

	if !s.opts.NoProbe {
		s.state = StateProbing
		if cached, found := s.cache.Find(s.profile.CacheKey()); found {
			s.opts.Logger.Debug("capability cache hit",
				"key", s.profile.CacheKey())
			s.profile = cached
		} else {
			prober := tui.NewProber(s.ch,
				s.opts.ProbeTimeout, s.opts.ProbeBudget, s.opts.Logger)
			s.profile = prober.Run(s.profile)
			s.decoder.Feed(prober.Leftover())
			if err := s.cache.Store(s.profile); err != nil {
				s.opts.Logger.Debug("capability cache write failed",
					"error", err)
			}
		}
	}

	s.selectMode()
	if !s.mode.Interactive() {
		// Forced minimal on a real terminal: restore and stay cooked
		s.guard.Release()
		s.guard = nil
		return nil
	}

	s.writeModeSequences(true)
	if err := s.ch.Flush(); err != nil {
		s.guard.Release()
		return &ChannelError{Op: "flush", Err: err}
	}
	s.watchSignals()
	s.state = StateRawActive
	s.opts.Logger.Debug("session active",
		"mode", s.mode.String(),
		"reliability", s.profile.Reliability.String())
	return nil
}

func (s *Session) selectMode() {
	if forced, ok := parseMode(s.opts.ForceMode); ok {
		s.mode = forced
	} else {
		s.mode = tui.SelectMode(s.profile, s.env)
	}
	s.state = StateModeSelected
	s.opts.Logger.Debug("mode selected", "mode", s.mode.String())
}

// writeModeSequences queues the enable (or disable) sequences for every
// feature the profile and options agree on. Multiplexed mode stays
// conservative: bracketed paste only.
func (s *Session) writeModeSequences(enable bool) {
	set := func(seq string, reset string) {
		if enable {
			s.ch.Write([]byte(seq))
		} else {
			s.ch.Write([]byte(reset))
		}
	}
	if s.opts.BracketedPaste && s.profile.BracketedPaste {
		set("\x1b[?2004h", "\x1b[?2004l")
	}
	if s.mode == tui.ModeMultiplexed {
		return
	}
	if s.opts.FocusEvents && s.profile.FocusEvents {
		set("\x1b[?1004h", "\x1b[?1004l")
	}
	if s.opts.Mouse && s.profile.Mouse {
		set("\x1b[?1002h\x1b[?1006h", "\x1b[?1006l\x1b[?1002l")
	}
	if s.mode == tui.ModeEnhanced && s.profile.EnhancedKeyboard {
		set("\x1b[>1u", "\x1b[<u")
	}
}

func (s *Session) watchSignals() {
	s.sigChan = make(chan os.Signal, 4)
	notifyOnResize(s.sigChan)
	notifyOnCont(s.sigChan)
	go func() {
		for sig := range s.sigChan {
			switch sig {
			case syscall.SIGWINCH:
				s.eventBox.Set(EvtResize, nil)
			case syscall.SIGCONT:
				s.eventBox.Set(EvtResume, nil)
			}
			// Unblock a waiting NextEvent so it sees the signal
			s.ch.Interrupt()
		}
	}()
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Mode returns the integration mode selected at startup.
func (s *Session) Mode() tui.IntegrationMode {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.mode
}

// Profile returns the capability profile the session operates under.
func (s *Session) Profile() tui.Profile {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.profile
}

// Size returns the window size as of the last resize.
func (s *Session) Size() (cols int, rows int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cols, s.rows
}

func (s *Session) size() (int, int) {
	return s.tty.Size()
}

// NextEvent returns the next input event, waiting at most timeout. It
// returns ErrTimeout when nothing arrives in time and ErrSessionClosed
// after Close. Out-of-band conditions (resize, resume after suspend) are
// delivered as events in arrival order.
func (s *Session) NextEvent(timeout time.Duration) (Event, error) {
	if s.closed.Get() {
		return Event{}, ErrSessionClosed
	}
	deadline := time.Now().Add(timeout)

	for {
		if _, ok := s.eventBox.Take(EvtShutdown); ok {
			return Event{}, ErrSessionClosed
		}
		if event, ok := s.takeSignalEvent(); ok {
			return s.stamp(event), nil
		}
		if event, ok := s.nextDecoded(); ok {
			return s.stamp(event), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Event{}, ErrTimeout
		}

		// While an escape sequence is in flight, cap the wait so the
		// lone-ESC bound is honored
		wait := remaining
		if s.decoder.InEscape() {
			flushAt := s.pendingSince.Add(s.opts.EscDelay)
			wait = util.DurWithin(time.Until(flushAt), 0, remaining)
		}

		data, err := s.ch.Read(wait)
		switch {
		case err == nil:
			s.decoder.Feed(data)
		case err == tui.ErrReadTimeout:
			if s.decoder.InEscape() &&
				!time.Now().Before(s.pendingSince.Add(s.opts.EscDelay)) {
				if event, ok := s.flushPending(); ok {
					return s.stamp(event), nil
				}
			}
		case err == tui.ErrReadCancelled:
			if s.closed.Get() {
				return Event{}, ErrSessionClosed
			}
			// A signal interrupted the read; loop to pick it up
		default:
			return Event{}, &ChannelError{Op: "read", Err: err}
		}
	}
}

// stamp assigns the next sequence number. NextEvent is single-consumer, so
// a plain counter suffices; the numbers expose any reordering to the caller.
func (s *Session) stamp(event Event) Event {
	s.seq++
	event.Seq = s.seq
	return event
}

func (s *Session) takeSignalEvent() (Event, bool) {
	if _, ok := s.eventBox.Take(EvtResume); ok {
		if err := s.Resume(); err != nil {
			s.opts.Logger.Debug("resume failed", "error", err)
		}
		return Event{Type: EventResume, When: time.Now()}, true
	}
	if _, ok := s.eventBox.Take(EvtResize); ok {
		cols, rows := s.size()
		s.mutex.Lock()
		s.cols, s.rows = cols, rows
		s.mutex.Unlock()
		return Event{
			Type: EventResize,
			When: time.Now(),
			Cols: cols,
			Rows: rows,
		}, true
	}
	return Event{}, false
}

// nextDecoded drains the decoder until a token converts to an event.
// Tokens that carry no meaning for the caller (paste markers already
// folded into state) are consumed silently.
func (s *Session) nextDecoded() (Event, bool) {
	for {
		tok, ok := s.decoder.Next()
		if !ok {
			if s.decoder.InEscape() {
				if s.pendingSince.IsZero() {
					s.pendingSince = time.Now()
				}
			} else {
				s.pendingSince = time.Time{}
			}
			return Event{}, false
		}
		if event, ok := s.eventFromToken(tok); ok {
			return event, true
		}
	}
}

func (s *Session) flushPending() (Event, bool) {
	tok, ok := s.decoder.FlushPending()
	s.pendingSince = time.Time{}
	if !ok {
		return Event{}, false
	}
	raw := append([]byte(nil), tok.Raw...)
	if len(raw) == 1 && raw[0] == 0x1b {
		return Event{
			Type: EventKey,
			When: time.Now(),
			Key:  tui.KeyEvent{Sym: tui.SymEsc},
			Raw:  raw,
		}, true
	}
	// A truncated sequence from a misbehaving peer; surface it rather
	// than reinterpret it as keystrokes
	return Event{Type: EventUnknown, When: time.Now(), Raw: raw}, true
}

func (s *Session) eventFromToken(tok tui.Token) (Event, bool) {
	now := time.Now()
	raw := append([]byte(nil), tok.Raw...)

	if tok.Type == tui.TokenText {
		text := string(tok.Text)
		if s.pasting {
			return Event{Type: EventPasteText, When: now, Text: text, Raw: raw}, true
		}
		return Event{Type: EventText, When: now, Text: text, Raw: raw}, true
	}

	seq := tok.Seq
	if begin, ok := tui.PasteBoundaryFromSequence(seq); ok {
		s.pasting = begin
		if begin {
			return Event{Type: EventPasteBegin, When: now, Raw: raw}, true
		}
		return Event{Type: EventPasteEnd, When: now, Raw: raw}, true
	}
	if s.pasting {
		// Everything between the paste markers is data, not commands
		return Event{Type: EventPasteText, When: now, Text: string(raw), Raw: raw}, true
	}
	if gained, ok := tui.FocusFromSequence(seq); ok {
		return Event{Type: EventFocus, When: now, Gained: gained, Raw: raw}, true
	}
	if mouse, ok := tui.MouseFromSequence(seq); ok {
		return Event{Type: EventMouse, When: now, Mouse: mouse, Raw: raw}, true
	}
	if key, ok := tui.KeyFromSequence(seq); ok {
		return Event{Type: EventKey, When: now, Key: key, Raw: raw}, true
	}
	if isDeviceReport(seq) {
		return Event{Type: EventCapability, When: now, Raw: raw}, true
	}
	return Event{Type: EventUnknown, When: now, Raw: raw}, true
}

// isDeviceReport recognizes unsolicited answers to queries (ours or a
// previous process's) so they are not mistaken for typed input.
func isDeviceReport(seq tui.Sequence) bool {
	if seq.Kind == tui.KindDCS {
		return true
	}
	if seq.Kind != tui.KindCSI {
		return false
	}
	switch seq.Final {
	case 'R', 'c', 'y':
		return true
	case 'u':
		return seq.Private == '?'
	}
	return false
}

// WriteOutput queues bytes for the terminal. Nothing is transmitted until
// Flush so a redraw can be batched into one write.
func (s *Session) WriteOutput(b []byte) (int, error) {
	if s.closed.Get() {
		return 0, ErrSessionClosed
	}
	return s.ch.Write(b)
}

// WriteString queues a string for the terminal.
func (s *Session) WriteString(str string) (int, error) {
	return s.WriteOutput([]byte(str))
}

// Flush transmits the queued output.
func (s *Session) Flush() error {
	if s.closed.Get() {
		return ErrSessionClosed
	}
	if err := s.ch.Flush(); err != nil {
		return &ChannelError{Op: "flush", Err: err}
	}
	return nil
}

// Suspend leaves raw mode and withdraws the feature sequences so a child
// process (or the stopped shell's parent) sees a normal cooked terminal.
func (s *Session) Suspend() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.state != StateRawActive {
		return ErrNotInteractive
	}
	s.writeModeSequences(false)
	if err := s.ch.Flush(); err != nil {
		return &ChannelError{Op: "flush", Err: err}
	}
	if err := s.guard.Suspend(); err != nil {
		return err
	}
	s.state = StateSuspended
	s.opts.Logger.Debug("session suspended")
	return nil
}

// Resume re-enters raw mode after Suspend and re-arms the feature
// sequences. The terminal may have changed hands in between, so the
// sequences are re-sent unconditionally.
func (s *Session) Resume() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.state != StateSuspended {
		return nil
	}
	time.Sleep(resumeSettleDelay)
	if err := s.guard.Resume(); err != nil {
		return &ModeEntryError{Mode: s.mode, Err: err}
	}
	s.writeModeSequences(true)
	if err := s.ch.Flush(); err != nil {
		return &ChannelError{Op: "flush", Err: err}
	}
	s.state = StateRawActive
	s.opts.Logger.Debug("session resumed")
	return nil
}

// Stop suspends the session and delivers SIGSTOP to the process group,
// the ctrl-z handoff to the controlling shell. The shell's SIGCONT on fg
// re-enters raw mode through the resume path and NextEvent surfaces an
// EventResume.
func (s *Session) Stop() error {
	if err := s.Suspend(); err != nil {
		return err
	}
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	notifyStop(p)
	return nil
}

// RefreshCapabilities reprobes the terminal, replacing the profile and
// reselecting the mode. Only useful after something may have changed
// underneath the session, such as a tmux attach from a different client.
func (s *Session) RefreshCapabilities() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.state != StateRawActive {
		return ErrNotInteractive
	}
	prober := tui.NewProber(s.ch,
		s.opts.ProbeTimeout, s.opts.ProbeBudget, s.opts.Logger)
	s.profile = prober.Run(tui.SeedProfile(s.env))
	s.decoder.Feed(prober.Leftover())
	if err := s.cache.Store(s.profile); err != nil {
		s.opts.Logger.Debug("capability cache write failed", "error", err)
	}
	previous := s.mode
	s.selectMode()
	s.state = StateRawActive
	if s.mode != previous {
		s.writeModeSequences(true)
		return s.ch.Flush()
	}
	return nil
}

// Close restores the terminal and releases the session. It is idempotent
// and safe to call from any state; restoring twice is a no-op.
func (s *Session) Close() error {
	if !s.closed.CompareAndSet(false, true) {
		return nil
	}
	// Wake a NextEvent blocked in a read so it observes the shutdown
	s.eventBox.Set(EvtShutdown, nil)
	s.ch.Interrupt()
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.sigChan != nil {
		stopSignals(s.sigChan)
		close(s.sigChan)
	}
	if s.state == StateRawActive {
		s.writeModeSequences(false)
		s.ch.Flush()
	}
	if s.guard != nil {
		s.guard.Release()
	}
	err := s.ch.Close()
	s.state = StateClosed
	s.opts.Logger.Debug("session closed")
	return err
}
