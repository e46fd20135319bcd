package tui

import (
	"unicode/utf8"
)

const (
	// ASCII codes
	escByte = 0x1b
	belByte = 0x07
	delByte = 0x7f

	maxSequenceLength = 64
	maxStringPayload  = 1024
	maxStringLength   = 2 * maxStringPayload
)

// TokenType discriminates the decoder's output variants.
type TokenType int

const (
	// TokenText is a run of printable bytes (UTF-8 passed through as-is)
	TokenText TokenType = iota
	// TokenControl is a completed control or escape sequence
	TokenControl
	// TokenIncomplete is a partial sequence awaiting more bytes
	TokenIncomplete
)

// SequenceKind classifies a completed control sequence.
type SequenceKind int

const (
	KindUnknown SequenceKind = iota
	KindC0                   // single C0 control byte or DEL
	KindAlt                  // ESC <ch>
	KindCSI                  // ESC [ ...
	KindSS3                  // ESC O ...
	KindOSC                  // ESC ] ... BEL/ST
	KindDCS                  // ESC P ... ST
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindC0:      "c0",
	KindAlt:     "alt",
	KindCSI:     "csi",
	KindSS3:     "ss3",
	KindOSC:     "osc",
	KindDCS:     "dcs",
}

func (k SequenceKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Sequence is the parsed form of a control sequence. For KindC0 and KindAlt
// only Final is set. For KindOSC/KindDCS the Payload holds the string body.
type Sequence struct {
	Kind    SequenceKind
	Private byte // leading '?', '>', '<' or '=' in a CSI
	Params  []int
	Inter   byte // intermediate byte such as '$'
	Final   byte
	Payload []byte
}

// Param returns the i-th parameter or the given default when absent.
func (s Sequence) Param(i int, defaultValue int) int {
	if i < len(s.Params) {
		return s.Params[i]
	}
	return defaultValue
}

// Token is the decoder's unit of output. Raw always holds the exact bytes
// the token was decoded from; callers that need the bytes beyond the current
// iteration must copy them.
type Token struct {
	Type TokenType
	Seq  Sequence
	Text []byte
	Raw  []byte
}

type decodeState int

const (
	ground decodeState = iota
	escapeSeen
	collectingParameters
	collectingString
)

// Decoder turns the incoming byte stream into Tokens. It never blocks and
// never performs I/O; when the bytes seen so far do not form a complete
// token it simply reports nothing and waits for more. The ambiguity between
// a lone ESC keypress and the start of a sequence is resolved by the caller
// through FlushPending after a bounded wait.
type Decoder struct {
	state    decodeState
	buf      []byte // fed, not yet examined
	hold     []byte // examined bytes of the in-flight run or sequence
	seq      Sequence
	curParam int
	inParam  bool
	inEscape bool // ESC seen inside a string sequence (possible ST)
}

// NewDecoder returns a decoder in the Ground state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends bytes read from the device. It performs no decoding.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next emits the next completed token, or ok=false when the fed bytes do
// not contain one. Partial input is held internally; see Pending.
func (d *Decoder) Next() (Token, bool) {
	for len(d.buf) > 0 {
		b := d.buf[0]
		tok, emitted, consumed := d.step(b)
		if consumed {
			d.buf = d.buf[1:]
		}
		if emitted {
			return tok, true
		}
	}
	if d.state == ground && len(d.hold) > 0 {
		return d.takeCompleteText()
	}
	return Token{}, false
}

// Pending returns the bytes held for an incomplete token, wrapped as a
// TokenIncomplete, or ok=false when nothing is held.
func (d *Decoder) Pending() (Token, bool) {
	if len(d.hold) == 0 {
		return Token{}, false
	}
	raw := append([]byte(nil), d.hold...)
	return Token{Type: TokenIncomplete, Raw: raw}, true
}

// InEscape reports whether the held bytes start an unfinished escape
// sequence. The caller applies the force-flush bound to this condition.
func (d *Decoder) InEscape() bool {
	return d.state != ground
}

// FlushPending force-emits the held bytes as literal text and returns the
// decoder to Ground. This is how a lone ESC keypress (or a sequence cut off
// by a misbehaving peer) finally surfaces.
func (d *Decoder) FlushPending() (Token, bool) {
	if len(d.hold) == 0 {
		return Token{}, false
	}
	raw := d.hold
	d.reset()
	return Token{Type: TokenText, Text: raw, Raw: raw}, true
}

func (d *Decoder) reset() {
	d.state = ground
	d.hold = nil
	d.seq = Sequence{}
	d.curParam = 0
	d.inParam = false
	d.inEscape = false
}

// step examines a single byte. It returns the emitted token (if any) and
// whether the byte was consumed; an unconsumed byte is re-examined on the
// next iteration, after the preceding token has been emitted.
func (d *Decoder) step(b byte) (Token, bool, bool) {
	switch d.state {
	case ground:
		return d.stepGround(b)
	case escapeSeen:
		return d.stepEscape(b)
	case collectingParameters:
		return d.stepParameters(b)
	case collectingString:
		return d.stepString(b)
	}
	return Token{}, false, true
}

func (d *Decoder) stepGround(b byte) (Token, bool, bool) {
	if b == escByte || b < 0x20 || b == delByte {
		if len(d.hold) > 0 {
			// Terminate the text run first; the control byte stays
			// queued and is re-examined afterwards.
			raw := d.hold
			d.hold = nil
			return Token{Type: TokenText, Text: raw, Raw: raw}, true, false
		}
		if b == escByte {
			d.state = escapeSeen
			d.hold = append(d.hold, b)
			return Token{}, false, true
		}
		raw := []byte{b}
		return Token{
			Type: TokenControl,
			Seq:  Sequence{Kind: KindC0, Final: b},
			Raw:  raw,
		}, true, true
	}
	d.hold = append(d.hold, b)
	return Token{}, false, true
}

func (d *Decoder) stepEscape(b byte) (Token, bool, bool) {
	d.hold = append(d.hold, b)
	switch {
	case b == '[':
		d.state = collectingParameters
		d.seq = Sequence{Kind: KindCSI}
	case b == 'O':
		d.state = collectingParameters
		d.seq = Sequence{Kind: KindSS3}
	case b == ']':
		d.state = collectingString
		d.seq = Sequence{Kind: KindOSC}
	case b == 'P':
		d.state = collectingString
		d.seq = Sequence{Kind: KindDCS}
	case b == 'X' || b == '^' || b == '_':
		// SOS/PM/APC; collected so the bytes are not mistaken for text,
		// surfaced as an unknown sequence
		d.state = collectingString
		d.seq = Sequence{Kind: KindUnknown}
	default:
		// ESC <ch>: Meta/Alt-prefixed key, including ESC ESC
		raw := d.hold
		d.reset()
		return Token{
			Type: TokenControl,
			Seq:  Sequence{Kind: KindAlt, Final: b},
			Raw:  raw,
		}, true, true
	}
	return Token{}, false, true
}

func (d *Decoder) stepParameters(b byte) (Token, bool, bool) {
	if b == escByte || len(d.hold) >= maxSequenceLength {
		// Broken or runaway sequence; surface what we have and start over
		return d.abort(b)
	}
	d.hold = append(d.hold, b)
	switch {
	case b >= '0' && b <= '9':
		d.curParam = d.curParam*10 + int(b-'0')
		d.inParam = true
	case b == ';' || b == ':':
		d.seq.Params = append(d.seq.Params, d.curParam)
		d.curParam = 0
		d.inParam = true
	case b >= 0x3c && b <= 0x3f: // < = > ?
		if d.seq.Private == 0 && !d.inParam {
			d.seq.Private = b
		}
	case b >= 0x20 && b <= 0x2f:
		d.seq.Inter = b
	case b >= 0x40 && b <= 0x7e:
		if d.inParam {
			d.seq.Params = append(d.seq.Params, d.curParam)
		}
		d.seq.Final = b
		tok := Token{Type: TokenControl, Seq: d.seq, Raw: d.hold}
		d.resetKeepNothing()
		return tok, true, true
	default:
		// C0 or stray byte inside a parameter sequence
		d.hold = d.hold[:len(d.hold)-1]
		return d.abort(b)
	}
	return Token{}, false, true
}

func (d *Decoder) stepString(b byte) (Token, bool, bool) {
	if d.inEscape {
		if b == '\\' { // ST
			d.hold = append(d.hold, b)
			tok := Token{Type: TokenControl, Seq: d.seq, Raw: d.hold}
			d.resetKeepNothing()
			return tok, true, true
		}
		// ESC followed by something other than ST: close the string and
		// re-examine from EscapeSeen so the new sequence is not lost
		tok := Token{Type: TokenControl, Seq: d.seq, Raw: d.hold[:len(d.hold)-1]}
		d.hold = []byte{escByte}
		d.state = escapeSeen
		d.seq = Sequence{}
		d.curParam = 0
		d.inParam = false
		d.inEscape = false
		return tok, true, false
	}
	if len(d.hold) >= maxStringLength {
		// Runaway string; surface what we have and start over
		return d.abort(b)
	}
	d.hold = append(d.hold, b)
	switch b {
	case belByte:
		tok := Token{Type: TokenControl, Seq: d.seq, Raw: d.hold}
		d.resetKeepNothing()
		return tok, true, true
	case escByte:
		d.inEscape = true
	default:
		if len(d.seq.Payload) < maxStringPayload {
			d.seq.Payload = append(d.seq.Payload, b)
		}
	}
	return Token{}, false, true
}

// abort emits the malformed in-flight sequence as KindUnknown and
// re-examines the offending byte from Ground.
func (d *Decoder) abort(b byte) (Token, bool, bool) {
	raw := d.hold
	d.resetKeepNothing()
	return Token{
		Type: TokenControl,
		Seq:  Sequence{Kind: KindUnknown, Payload: raw},
		Raw:  raw,
	}, true, false
}

func (d *Decoder) resetKeepNothing() {
	d.state = ground
	d.hold = nil
	d.seq = Sequence{}
	d.curParam = 0
	d.inParam = false
	d.inEscape = false
}

// takeCompleteText emits the held text run up to the last complete UTF-8
// codepoint. A trailing partial codepoint stays held until its continuation
// bytes arrive (or FlushPending gives up on them).
func (d *Decoder) takeCompleteText() (Token, bool) {
	cut := len(d.hold)
	for i := len(d.hold) - 1; i >= 0 && i >= len(d.hold)-utf8.UTFMax; i-- {
		if d.hold[i] < utf8.RuneSelf {
			break
		}
		if utf8.RuneStart(d.hold[i]) {
			if !utf8.FullRune(d.hold[i:]) {
				cut = i
			}
			break
		}
	}
	if cut == 0 {
		return Token{}, false
	}
	raw := d.hold[:cut]
	d.hold = d.hold[cut:]
	if len(d.hold) == 0 {
		d.hold = nil
	}
	return Token{Type: TokenText, Text: raw, Raw: raw}, true
}
