package tui

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/berrym/lusush-sub003/src/util"
)

const (
	// DefaultProbeTimeout bounds a single query/response round-trip
	DefaultProbeTimeout = 100 * time.Millisecond
	// DefaultProbeBudget bounds the whole probing phase; startup must
	// not stall noticeably even against a completely silent peer
	DefaultProbeBudget = 800 * time.Millisecond
)

// A probe is one bounded query/response exchange. recognize inspects a
// decoded sequence and, when it is this probe's answer, records the
// capability on the profile and reports true.
type probe struct {
	name      string
	query     string
	recognize func(profile *Profile, seq Sequence) bool
}

// The probe order is fixed: identification first, so that even a peer that
// answers nothing else still upgrades the profile to Reliable as early as
// the budget allows.
var probes = []probe{
	{
		name:  "identify",
		query: "\x1b[c",
		recognize: func(profile *Profile, seq Sequence) bool {
			if seq.Kind != KindCSI || seq.Private != '?' || seq.Final != 'c' {
				return false
			}
			parts := make([]string, 0, len(seq.Params))
			for _, p := range seq.Params {
				parts = append(parts, strconv.Itoa(p))
			}
			profile.ID = "?" + strings.Join(parts, ";")
			return true
		},
	},
	{
		name:  "version",
		query: "\x1b[>0q",
		recognize: func(profile *Profile, seq Sequence) bool {
			if seq.Kind != KindDCS {
				return false
			}
			payload := string(seq.Payload)
			if !strings.HasPrefix(payload, ">|") {
				return false
			}
			profile.Version = strings.TrimSuffix(payload[2:], "\x07")
			return true
		},
	},
	{
		name:  "cursor",
		query: "\x1b[6n",
		recognize: func(profile *Profile, seq Sequence) bool {
			if seq.Kind != KindCSI || seq.Final != 'R' || len(seq.Params) < 2 {
				return false
			}
			profile.CursorQuery = true
			return true
		},
	},
	{
		name:  "sync-output",
		query: "\x1b[?2026$p",
		recognize: func(profile *Profile, seq Sequence) bool {
			if seq.Kind != KindCSI || seq.Private != '?' ||
				seq.Inter != '$' || seq.Final != 'y' ||
				seq.Param(0, 0) != 2026 {
				return false
			}
			switch seq.Param(1, 0) {
			case 1, 2:
				profile.SyncOutput = true
			}
			return true
		},
	},
	{
		name:  "kitty-keyboard",
		query: "\x1b[?u",
		recognize: func(profile *Profile, seq Sequence) bool {
			if seq.Kind != KindCSI || seq.Private != '?' || seq.Final != 'u' {
				return false
			}
			profile.EnhancedKeyboard = true
			return true
		},
	},
}

// Prober runs the bounded probing phase. It owns a private decoder so that
// response fragments never contaminate the session's main input decoder;
// ordinary input that arrives interleaved with responses is preserved and
// handed back through Leftover.
type Prober struct {
	ch       ByteChannel
	timeout  time.Duration
	budget   time.Duration
	log      *slog.Logger
	leftover []byte
}

// NewProber returns a prober over the given channel. Zero durations select
// the defaults; the budget is clamped so total startup latency stays
// bounded no matter how the per-probe timeout is tuned.
func NewProber(ch ByteChannel, timeout, budget time.Duration, log *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if budget <= 0 {
		budget = DefaultProbeBudget
	}
	budget = util.DurWithin(budget, timeout, time.Second)
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Prober{ch: ch, timeout: timeout, budget: budget, log: log}
}

// Run executes the probe list sequentially and returns a new profile
// refining the seed. Timeouts are expected and absorbed here: a silent
// peer degrades to the seeded heuristics, never to an empty profile.
func (p *Prober) Run(seed Profile) Profile {
	profile := seed
	deadline := time.Now().Add(p.budget)

	answered := make(map[string]bool)
	for i, pr := range probes {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.log.Debug("probe budget exhausted",
				"skipped", len(probes)-i)
			break
		}
		if answered[pr.name] {
			continue
		}
		if !p.runProbe(&profile, pr, answered,
			util.DurWithin(p.timeout, 0, remaining)) {
			// Channel broken; probing cannot continue
			break
		}
	}

	if answered["identify"] {
		profile.Reliability = Reliable
	} else {
		profile.Reliability = Heuristic
	}
	p.log.Debug("probing complete",
		"reliability", profile.Reliability.String(),
		"id", profile.ID,
		"version", profile.Version)
	return profile
}

// runProbe performs one exchange. Answers belonging to earlier probes
// (late, interleaved responses) are still recognized and credited, so one
// slow reply does not invalidate the rest of the phase. The return value
// is false only when the channel itself failed.
func (p *Prober) runProbe(profile *Profile, pr probe, answered map[string]bool, timeout time.Duration) bool {
	if _, err := p.ch.Write([]byte(pr.query)); err != nil {
		return false
	}
	if err := p.ch.Flush(); err != nil {
		return false
	}

	decoder := NewDecoder()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.log.Debug("probe timed out", "probe", pr.name)
			p.stashPending(decoder)
			return true
		}
		data, err := p.ch.Read(remaining)
		if err != nil {
			// Whatever the decoder still holds (the start of a keystroke
			// that straddled the deadline) belongs to the session
			p.stashPending(decoder)
			if err == ErrReadTimeout {
				p.log.Debug("probe timed out", "probe", pr.name)
				return true
			}
			p.log.Debug("probe read failed",
				"probe", pr.name, "error", err)
			return false
		}
		decoder.Feed(data)
		done := false
		for {
			tok, ok := decoder.Next()
			if !ok {
				break
			}
			if p.dispatch(profile, tok, answered) && answered[pr.name] {
				done = true
			}
		}
		if done {
			p.stashPending(decoder)
			return true
		}
	}
}

// dispatch routes a token produced during probing: responses update the
// profile, everything else is kept for the session's main decoder.
func (p *Prober) dispatch(profile *Profile, tok Token, answered map[string]bool) bool {
	if tok.Type == TokenControl {
		for _, pr := range probes {
			if pr.recognize(profile, tok.Seq) {
				answered[pr.name] = true
				return true
			}
		}
	}
	p.leftover = append(p.leftover, tok.Raw...)
	return false
}

func (p *Prober) stashPending(decoder *Decoder) {
	if tok, ok := decoder.Pending(); ok {
		p.leftover = append(p.leftover, tok.Raw...)
	}
}

// Leftover returns the ordinary input bytes that arrived interleaved with
// probe responses, in arrival order. The session feeds them to its main
// decoder before the first device read so no keystroke is lost.
func (p *Prober) Leftover() []byte {
	return p.leftover
}

// DescribeProbes returns the probe names in execution order. Diagnostic
// only.
func DescribeProbes() string {
	names := make([]string, len(probes))
	for i, pr := range probes {
		names[i] = pr.name
	}
	return strings.Join(names, ",")
}
