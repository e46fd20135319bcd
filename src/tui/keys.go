package tui

import (
	"strings"
)

// KeySym identifies a special (non-character) key.
type KeySym int

const (
	SymNone KeySym = iota
	SymRune
	SymEnter
	SymTab
	SymBackTab
	SymBackspace
	SymEsc
	SymUp
	SymDown
	SymRight
	SymLeft
	SymHome
	SymEnd
	SymInsert
	SymDelete
	SymPgUp
	SymPgDn
	SymF1
	SymF2
	SymF3
	SymF4
	SymF5
	SymF6
	SymF7
	SymF8
	SymF9
	SymF10
	SymF11
	SymF12
)

var symNames = [...]string{
	SymNone:      "none",
	SymRune:      "rune",
	SymEnter:     "enter",
	SymTab:       "tab",
	SymBackTab:   "shift-tab",
	SymBackspace: "backspace",
	SymEsc:       "esc",
	SymUp:        "up",
	SymDown:      "down",
	SymRight:     "right",
	SymLeft:      "left",
	SymHome:      "home",
	SymEnd:       "end",
	SymInsert:    "insert",
	SymDelete:    "delete",
	SymPgUp:      "page-up",
	SymPgDn:      "page-down",
	SymF1:        "f1",
	SymF2:        "f2",
	SymF3:        "f3",
	SymF4:        "f4",
	SymF5:        "f5",
	SymF6:        "f6",
	SymF7:        "f7",
	SymF8:        "f8",
	SymF9:        "f9",
	SymF10:       "f10",
	SymF11:       "f11",
	SymF12:       "f12",
}

// Mod is a bitmask of modifier keys.
type Mod int

const (
	ModShift Mod = 1 << iota
	ModAlt
	ModCtrl
)

// KeyEvent is a single decoded keypress.
type KeyEvent struct {
	Sym  KeySym
	Rune rune
	Mod  Mod
}

// Name returns the canonical kebab-case name of the key, e.g. "ctrl-a",
// "alt-up", "shift-tab", "f5".
func (k KeyEvent) Name() string {
	name := ""
	if k.Mod&ModCtrl > 0 {
		name += "ctrl-"
	}
	if k.Mod&ModAlt > 0 {
		name += "alt-"
	}
	if k.Mod&ModShift > 0 && k.Sym != SymBackTab {
		name += "shift-"
	}
	if k.Sym == SymRune {
		if k.Rune == ' ' {
			return name + "space"
		}
		return name + string(k.Rune)
	}
	if int(k.Sym) < len(symNames) {
		sym := symNames[k.Sym]
		if k.Sym == SymBackTab {
			return sym
		}
		return name + sym
	}
	return strings.TrimSuffix(name, "-")
}

// MouseEvent is a decoded SGR mouse report. Coordinates are zero-based.
type MouseEvent struct {
	X      int
	Y      int
	Left   bool
	Down   bool
	Scroll int // positive is up
	Mod    Mod
}

// xterm encodes modifiers as 1 + bitmask(shift=1, alt=2, ctrl=4)
func modFromParam(p int) Mod {
	if p < 2 {
		return 0
	}
	bits := p - 1
	var mod Mod
	if bits&1 > 0 {
		mod |= ModShift
	}
	if bits&2 > 0 {
		mod |= ModAlt
	}
	if bits&4 > 0 {
		mod |= ModCtrl
	}
	return mod
}

func keyFromC0(b byte) (KeyEvent, bool) {
	switch b {
	case 0x0d:
		return KeyEvent{Sym: SymEnter}, true
	case 0x09:
		return KeyEvent{Sym: SymTab}, true
	case 0x08, delByte:
		return KeyEvent{Sym: SymBackspace}, true
	case escByte:
		return KeyEvent{Sym: SymEsc}, true
	case 0x00:
		return KeyEvent{Sym: SymRune, Rune: ' ', Mod: ModCtrl}, true
	case 0x1c:
		return KeyEvent{Sym: SymRune, Rune: '\\', Mod: ModCtrl}, true
	case 0x1d:
		return KeyEvent{Sym: SymRune, Rune: ']', Mod: ModCtrl}, true
	case 0x1e:
		return KeyEvent{Sym: SymRune, Rune: '^', Mod: ModCtrl}, true
	case 0x1f:
		return KeyEvent{Sym: SymRune, Rune: '/', Mod: ModCtrl}, true
	}
	if b >= 0x01 && b <= 0x1a {
		return KeyEvent{Sym: SymRune, Rune: rune('a' + b - 1), Mod: ModCtrl}, true
	}
	return KeyEvent{}, false
}

var csiLetterKeys = map[byte]KeySym{
	'A': SymUp,
	'B': SymDown,
	'C': SymRight,
	'D': SymLeft,
	'H': SymHome,
	'F': SymEnd,
	'Z': SymBackTab,
}

var csiTildeKeys = map[int]KeySym{
	1:  SymHome,
	2:  SymInsert,
	3:  SymDelete,
	4:  SymEnd,
	5:  SymPgUp,
	6:  SymPgDn,
	7:  SymHome,
	8:  SymEnd,
	11: SymF1,
	12: SymF2,
	13: SymF3,
	14: SymF4,
	15: SymF5,
	17: SymF6,
	18: SymF7,
	19: SymF8,
	20: SymF9,
	21: SymF10,
	23: SymF11,
	24: SymF12,
}

var ss3Keys = map[byte]KeySym{
	'A': SymUp,
	'B': SymDown,
	'C': SymRight,
	'D': SymLeft,
	'H': SymHome,
	'F': SymEnd,
	'P': SymF1,
	'Q': SymF2,
	'R': SymF3,
	'S': SymF4,
	'M': SymEnter, // keypad
}

// KeyFromSequence maps a control sequence to a keypress. ok is false for
// sequences that are not keys (reports, focus and paste markers, mouse).
func KeyFromSequence(seq Sequence) (KeyEvent, bool) {
	switch seq.Kind {
	case KindC0:
		return keyFromC0(seq.Final)
	case KindAlt:
		if seq.Final == escByte {
			return KeyEvent{Sym: SymEsc}, true
		}
		if seq.Final == delByte || seq.Final == 0x08 {
			return KeyEvent{Sym: SymBackspace, Mod: ModAlt}, true
		}
		if seq.Final < 0x20 {
			key, ok := keyFromC0(seq.Final)
			if ok {
				key.Mod |= ModAlt
			}
			return key, ok
		}
		return KeyEvent{Sym: SymRune, Rune: rune(seq.Final), Mod: ModAlt}, true
	case KindSS3:
		if sym, found := ss3Keys[seq.Final]; found {
			return KeyEvent{Sym: sym}, true
		}
	case KindCSI:
		if seq.Private != 0 {
			return csiPrivateKey(seq)
		}
		switch seq.Final {
		case '~':
			sym, found := csiTildeKeys[seq.Param(0, 0)]
			if !found {
				return KeyEvent{}, false
			}
			return KeyEvent{Sym: sym, Mod: modFromParam(seq.Param(1, 1))}, true
		case 'u':
			return csiUKey(seq)
		default:
			sym, found := csiLetterKeys[seq.Final]
			if !found {
				return KeyEvent{}, false
			}
			return KeyEvent{Sym: sym, Mod: modFromParam(seq.Param(1, 1))}, true
		}
	}
	return KeyEvent{}, false
}

// csiUKey decodes the enhanced-keyboard (CSI u) encoding: the first
// parameter is the codepoint, the second the modifier code.
func csiUKey(seq Sequence) (KeyEvent, bool) {
	code := seq.Param(0, 0)
	mod := modFromParam(seq.Param(1, 1))
	switch code {
	case 0:
		return KeyEvent{}, false
	case 13:
		return KeyEvent{Sym: SymEnter, Mod: mod}, true
	case 9:
		return KeyEvent{Sym: SymTab, Mod: mod}, true
	case 27:
		return KeyEvent{Sym: SymEsc, Mod: mod}, true
	case 127:
		return KeyEvent{Sym: SymBackspace, Mod: mod}, true
	}
	return KeyEvent{Sym: SymRune, Rune: rune(code), Mod: mod}, true
}

func csiPrivateKey(seq Sequence) (KeyEvent, bool) {
	// No private-parameter sequence maps to a key; they are reports and
	// mouse events, classified elsewhere
	return KeyEvent{}, false
}

// FocusFromSequence recognizes focus-in (CSI I) and focus-out (CSI O).
func FocusFromSequence(seq Sequence) (gained bool, ok bool) {
	if seq.Kind != KindCSI || seq.Private != 0 || len(seq.Params) != 0 {
		return false, false
	}
	switch seq.Final {
	case 'I':
		return true, true
	case 'O':
		return false, true
	}
	return false, false
}

// PasteBoundaryFromSequence recognizes the bracketed-paste markers
// CSI 200~ and CSI 201~.
func PasteBoundaryFromSequence(seq Sequence) (begin bool, ok bool) {
	if seq.Kind != KindCSI || seq.Final != '~' {
		return false, false
	}
	switch seq.Param(0, 0) {
	case 200:
		return true, true
	case 201:
		return false, true
	}
	return false, false
}

// MouseFromSequence decodes an SGR (1006) mouse report:
// CSI < b ; x ; y M/m
func MouseFromSequence(seq Sequence) (MouseEvent, bool) {
	if seq.Kind != KindCSI || seq.Private != '<' ||
		(seq.Final != 'M' && seq.Final != 'm') || len(seq.Params) < 3 {
		return MouseEvent{}, false
	}
	b := seq.Param(0, 0)
	me := MouseEvent{
		X:    seq.Param(1, 1) - 1,
		Y:    seq.Param(2, 1) - 1,
		Down: seq.Final == 'M',
	}
	if b&4 > 0 {
		me.Mod |= ModShift
	}
	if b&8 > 0 {
		me.Mod |= ModAlt
	}
	if b&16 > 0 {
		me.Mod |= ModCtrl
	}
	if b&64 > 0 {
		if b&1 == 0 {
			me.Scroll = 1
		} else {
			me.Scroll = -1
		}
		me.Down = false
		return me, true
	}
	me.Left = b&3 == 0
	return me, true
}
