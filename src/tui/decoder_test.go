package tui

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/berrym/lusush-sub003/src/util"
)

func drain(d *Decoder) []Token {
	var tokens []Token
	for {
		tok, ok := d.Next()
		if !ok {
			return tokens
		}
		// Raw aliases internal buffers; keep a stable copy
		tok.Raw = append([]byte(nil), tok.Raw...)
		tok.Text = append([]byte(nil), tok.Text...)
		tokens = append(tokens, tok)
	}
}

func decodeAll(input []byte) []Token {
	d := NewDecoder()
	d.Feed(input)
	return drain(d)
}

func decodeOne(t *testing.T, input string) Sequence {
	t.Helper()
	tokens := decodeAll([]byte(input))
	if len(tokens) != 1 {
		t.Fatalf("%q: expected 1 token, got %d", input, len(tokens))
	}
	if tokens[0].Type != TokenControl {
		t.Fatalf("%q: expected control token, got %v", input, tokens[0].Type)
	}
	return tokens[0].Seq
}

func TestDecoderPlainText(t *testing.T) {
	tokens := decodeAll([]byte("hello, world"))
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].Type != TokenText || string(tokens[0].Text) != "hello, world" {
		t.Errorf("unexpected token: %+v", tokens[0])
	}
}

func TestDecoderTextAroundControl(t *testing.T) {
	tokens := decodeAll([]byte("ab\rcd"))
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %+v", len(tokens), tokens)
	}
	if string(tokens[0].Text) != "ab" {
		t.Errorf("first token: %q", tokens[0].Text)
	}
	if tokens[1].Seq.Kind != KindC0 || tokens[1].Seq.Final != '\r' {
		t.Errorf("second token: %+v", tokens[1].Seq)
	}
	if string(tokens[2].Text) != "cd" {
		t.Errorf("third token: %q", tokens[2].Text)
	}
}

func TestDecoderCSI(t *testing.T) {
	seq := decodeOne(t, "\x1b[1;5A")
	if seq.Kind != KindCSI || seq.Final != 'A' {
		t.Errorf("\\x1b[1;5A: %+v", seq)
	}
	if seq.Param(0, 0) != 1 || seq.Param(1, 0) != 5 {
		t.Errorf("params: %v", seq.Params)
	}
}

func TestDecoderCursorReport(t *testing.T) {
	seq := decodeOne(t, "\x1b[24;80R")
	if seq.Kind != KindCSI || seq.Final != 'R' {
		t.Errorf("\\x1b[24;80R: %+v", seq)
	}
	if seq.Param(0, 0) != 24 || seq.Param(1, 0) != 80 {
		t.Errorf("params: %v", seq.Params)
	}
}

func TestDecoderPrivateAndIntermediate(t *testing.T) {
	seq := decodeOne(t, "\x1b[?2026;1$y")
	if seq.Kind != KindCSI || seq.Private != '?' || seq.Inter != '$' || seq.Final != 'y' {
		t.Errorf("\\x1b[?2026;1$y: %+v", seq)
	}
	if seq.Param(0, 0) != 2026 || seq.Param(1, 0) != 1 {
		t.Errorf("params: %v", seq.Params)
	}
}

func TestDecoderSS3(t *testing.T) {
	seq := decodeOne(t, "\x1bOP")
	if seq.Kind != KindSS3 || seq.Final != 'P' {
		t.Errorf("\\x1bOP: %+v", seq)
	}
}

func TestDecoderAlt(t *testing.T) {
	seq := decodeOne(t, "\x1bf")
	if seq.Kind != KindAlt || seq.Final != 'f' {
		t.Errorf("\\x1bf: %+v", seq)
	}
}

func TestDecoderOSC(t *testing.T) {
	seq := decodeOne(t, "\x1b]0;window title\x07")
	if seq.Kind != KindOSC || string(seq.Payload) != "0;window title" {
		t.Errorf("OSC: %+v", seq)
	}
}

func TestDecoderDCSWithST(t *testing.T) {
	seq := decodeOne(t, "\x1bP>|ghostty 1.0.1\x1b\\")
	if seq.Kind != KindDCS || string(seq.Payload) != ">|ghostty 1.0.1" {
		t.Errorf("DCS: %+v", seq)
	}
}

func TestDecoderSplitAcrossFeeds(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("\x1b["))
	if tokens := drain(d); len(tokens) != 0 {
		t.Fatalf("premature tokens: %+v", tokens)
	}
	if !d.InEscape() {
		t.Error("expected InEscape after partial sequence")
	}
	d.Feed([]byte("3~"))
	tokens := drain(d)
	if len(tokens) != 1 || tokens[0].Seq.Final != '~' || tokens[0].Seq.Param(0, 0) != 3 {
		t.Errorf("delete key: %+v", tokens)
	}
}

func TestDecoderLoneEscapeFlush(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{0x1b})
	if tokens := drain(d); len(tokens) != 0 {
		t.Fatalf("lone ESC decoded eagerly: %+v", tokens)
	}
	if !d.InEscape() {
		t.Fatal("expected InEscape")
	}
	tok, ok := d.FlushPending()
	if !ok || tok.Type != TokenText || !bytes.Equal(tok.Raw, []byte{0x1b}) {
		t.Errorf("flush: ok=%v %+v", ok, tok)
	}
	if d.InEscape() {
		t.Error("decoder should be back in ground state")
	}
	// The decoder must still work after a flush
	if seq := decodeOne(t, "\x1b[A"); seq.Final != 'A' {
		t.Errorf("post-flush decode: %+v", seq)
	}
}

func TestDecoderSplitUTF8(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{0xc3})
	if tokens := drain(d); len(tokens) != 0 {
		t.Fatalf("partial rune emitted: %+v", tokens)
	}
	d.Feed([]byte{0xa9})
	tokens := drain(d)
	if len(tokens) != 1 || string(tokens[0].Text) != "é" {
		t.Errorf("split rune: %+v", tokens)
	}
}

func TestDecoderMalformedPreserved(t *testing.T) {
	// A C0 byte inside a parameter sequence aborts it; no byte may be
	// dropped on the floor
	input := []byte("\x1b[12\x01x")
	tokens := decodeAll(input)
	var raw []byte
	for _, tok := range tokens {
		raw = append(raw, tok.Raw...)
	}
	if !bytes.Equal(raw, input) {
		t.Errorf("bytes lost: fed %q, tokens carry %q", input, raw)
	}
	if tokens[0].Seq.Kind != KindUnknown {
		t.Errorf("first token should be unknown: %+v", tokens[0].Seq)
	}
}

func TestDecoderRunawaySequence(t *testing.T) {
	input := []byte("\x1b[")
	for i := 0; i < maxSequenceLength+8; i++ {
		input = append(input, '1', ';')
	}
	tokens := decodeAll(input)
	if len(tokens) == 0 || tokens[0].Seq.Kind != KindUnknown {
		t.Errorf("runaway sequence not aborted: %+v", tokens)
	}
}

func TestDecoderRunawayString(t *testing.T) {
	// A never-terminated OSC must not buffer forever; the decoder gives
	// up at the length bound and resyncs on the remaining bytes.
	input := append([]byte("\x1b]52;"), bytes.Repeat([]byte{'a'}, 3*maxStringLength)...)
	d := NewDecoder()
	d.Feed(input)
	tokens := drain(d)
	if len(tokens) == 0 || tokens[0].Seq.Kind != KindUnknown {
		t.Fatalf("runaway string not aborted: %+v", tokens)
	}
	if len(tokens[0].Raw) > maxStringLength {
		t.Errorf("abort held %d bytes, bound is %d", len(tokens[0].Raw), maxStringLength)
	}
	if held, ok := d.Pending(); ok && len(held.Raw) > maxStringLength {
		t.Errorf("decoder still holds %d bytes", len(held.Raw))
	}
	var total int
	for _, tok := range tokens {
		total += len(tok.Raw)
	}
	if held, ok := d.Pending(); ok {
		total += len(held.Raw)
	}
	if total != len(input) {
		t.Errorf("bytes lost during abort: %d of %d accounted for", total, len(input))
	}
}

func TestDecoderEscapeInsideString(t *testing.T) {
	// OSC terminated not by ST but by the start of another sequence
	tokens := decodeAll([]byte("\x1b]0;abc\x1b[A"))
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %+v", len(tokens), tokens)
	}
	if tokens[0].Seq.Kind != KindOSC || string(tokens[0].Seq.Payload) != "0;abc" {
		t.Errorf("osc token: %+v", tokens[0].Seq)
	}
	if tokens[1].Seq.Kind != KindCSI || tokens[1].Seq.Final != 'A' {
		t.Errorf("csi token: %+v", tokens[1].Seq)
	}
}

// Feeding the same stream in different chunkings, draining after every
// feed the way the read loop does, must never lose a byte and must yield
// the same control sequences regardless of where the chunks fall. Text may
// be split differently, so it is compared by content, not token count.
func TestDecoderChunkInvariance(t *testing.T) {
	input := []byte("abc\x1b[1;5Cdef\x1b]0;tï\x07\x1bOPgh\ré")

	describe := func(tokens []Token) (string, string) {
		controls := ""
		raw := []byte{}
		for _, tok := range tokens {
			raw = append(raw, tok.Raw...)
			if tok.Type == TokenControl {
				controls += fmt.Sprintf("%v/%c/%v;",
					tok.Seq.Kind, tok.Seq.Final, tok.Seq.Params)
			}
		}
		return controls, string(raw)
	}

	wantControls, wantRaw := describe(decodeAll(input))
	if wantRaw != string(input) {
		t.Fatalf("baseline lost bytes: %q", wantRaw)
	}
	for size := 1; size <= len(input); size++ {
		d := NewDecoder()
		var tokens []Token
		for i := 0; i < len(input); i += size {
			end := util.Min(i+size, len(input))
			d.Feed(input[i:end])
			tokens = append(tokens, drain(d)...)
		}
		gotControls, gotRaw := describe(tokens)
		if gotControls != wantControls {
			t.Errorf("chunk size %d: controls %s, want %s",
				size, gotControls, wantControls)
		}
		if gotRaw != string(input) {
			t.Errorf("chunk size %d: bytes lost, got %q", size, gotRaw)
		}
	}
}
