package tui

import (
	"testing"
)

func keyOf(t *testing.T, input string) KeyEvent {
	t.Helper()
	key, ok := KeyFromSequence(decodeOne(t, input))
	if !ok {
		t.Fatalf("%q: not recognized as a key", input)
	}
	return key
}

func TestKeyNames(t *testing.T) {
	check := func(input string, name string) {
		if got := keyOf(t, input).Name(); got != name {
			t.Errorf("%q: got %q, want %q", input, got, name)
		}
	}
	check("\x01", "ctrl-a")
	check("\x1a", "ctrl-z")
	check("\x00", "ctrl-space")
	check("\r", "enter")
	check("\t", "tab")
	check("\x7f", "backspace")
	check("\x1b\x1b", "esc")
	check("\x1bf", "alt-f")
	check("\x1b\x7f", "alt-backspace")
	check("\x1b[A", "up")
	check("\x1b[B", "down")
	check("\x1b[C", "right")
	check("\x1b[D", "left")
	check("\x1b[H", "home")
	check("\x1b[F", "end")
	check("\x1b[Z", "shift-tab")
	check("\x1b[1;5A", "ctrl-up")
	check("\x1b[1;3D", "alt-left")
	check("\x1b[1;2C", "shift-right")
	check("\x1b[3~", "delete")
	check("\x1b[2~", "insert")
	check("\x1b[5~", "page-up")
	check("\x1b[6~", "page-down")
	check("\x1b[7~", "home")
	check("\x1b[8~", "end")
	check("\x1b[3;5~", "ctrl-delete")
	check("\x1bOA", "up")
	check("\x1bOP", "f1")
	check("\x1bOS", "f4")
	check("\x1b[15~", "f5")
	check("\x1b[24~", "f12")
}

func TestKeyCSIU(t *testing.T) {
	key := keyOf(t, "\x1b[97;5u")
	if key.Sym != SymRune || key.Rune != 'a' || key.Mod != ModCtrl {
		t.Errorf("csi-u ctrl-a: %+v", key)
	}
	key = keyOf(t, "\x1b[13;3u")
	if key.Sym != SymEnter || key.Mod != ModAlt {
		t.Errorf("csi-u alt-enter: %+v", key)
	}
}

func TestKeyNonKeysRejected(t *testing.T) {
	for _, input := range []string{
		"\x1b[24;80R",      // cursor report
		"\x1b[?62;4c",      // device attributes
		"\x1b[I",           // focus in
		"\x1b[200~",        // paste begin
		"\x1b[<0;5;7M",     // mouse
		"\x1b[?2026;1$y",   // mode report
		"\x1b]0;title\x07", // osc
	} {
		if key, ok := KeyFromSequence(decodeOne(t, input)); ok {
			t.Errorf("%q wrongly decoded as key %+v", input, key)
		}
	}
}

func TestFocusFromSequence(t *testing.T) {
	gained, ok := FocusFromSequence(decodeOne(t, "\x1b[I"))
	if !ok || !gained {
		t.Errorf("focus-in: gained=%v ok=%v", gained, ok)
	}
	gained, ok = FocusFromSequence(decodeOne(t, "\x1b[O"))
	if !ok || gained {
		t.Errorf("focus-out: gained=%v ok=%v", gained, ok)
	}
	if _, ok := FocusFromSequence(decodeOne(t, "\x1b[A")); ok {
		t.Error("arrow mistaken for focus event")
	}
}

func TestPasteBoundaryFromSequence(t *testing.T) {
	begin, ok := PasteBoundaryFromSequence(decodeOne(t, "\x1b[200~"))
	if !ok || !begin {
		t.Errorf("paste begin: begin=%v ok=%v", begin, ok)
	}
	begin, ok = PasteBoundaryFromSequence(decodeOne(t, "\x1b[201~"))
	if !ok || begin {
		t.Errorf("paste end: begin=%v ok=%v", begin, ok)
	}
	if _, ok := PasteBoundaryFromSequence(decodeOne(t, "\x1b[3~")); ok {
		t.Error("delete mistaken for paste boundary")
	}
}

func TestMouseFromSequence(t *testing.T) {
	me, ok := MouseFromSequence(decodeOne(t, "\x1b[<0;10;5M"))
	if !ok || !me.Down || !me.Left || me.X != 9 || me.Y != 4 {
		t.Errorf("left press: ok=%v %+v", ok, me)
	}
	me, ok = MouseFromSequence(decodeOne(t, "\x1b[<0;10;5m"))
	if !ok || me.Down {
		t.Errorf("left release: ok=%v %+v", ok, me)
	}
	me, ok = MouseFromSequence(decodeOne(t, "\x1b[<64;1;1M"))
	if !ok || me.Scroll != 1 {
		t.Errorf("scroll up: ok=%v %+v", ok, me)
	}
	me, ok = MouseFromSequence(decodeOne(t, "\x1b[<65;1;1M"))
	if !ok || me.Scroll != -1 {
		t.Errorf("scroll down: ok=%v %+v", ok, me)
	}
	me, ok = MouseFromSequence(decodeOne(t, "\x1b[<16;3;3M"))
	if !ok || me.Mod&ModCtrl == 0 {
		t.Errorf("ctrl press: ok=%v %+v", ok, me)
	}
	if _, ok := MouseFromSequence(decodeOne(t, "\x1b[1;5A")); ok {
		t.Error("arrow mistaken for mouse event")
	}
}
