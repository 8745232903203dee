package input

import "testing"

func decodeAll(t *testing.T, chunks ...string) []Event {
	t.Helper()
	d := NewDecoder()
	var out []Event
	for _, c := range chunks {
		out = append(out, d.Feed([]byte(c))...)
	}
	return out
}

func TestPlainRuneKey(t *testing.T) {
	evs := decodeAll(t, "a")
	if len(evs) != 1 || evs[0].Kind != KindKey || evs[0].Key.Rune != 'a' {
		t.Fatalf("expected a single 'a' key event, got %+v", evs)
	}
}

func TestCtrlLetter(t *testing.T) {
	evs := decodeAll(t, string([]byte{0x03}))
	if len(evs) != 1 || evs[0].Key.Mods&ModCtrl == 0 || evs[0].Key.Rune != 'c' {
		t.Fatalf("expected Ctrl+C, got %+v", evs)
	}
}

func TestArrowUp(t *testing.T) {
	evs := decodeAll(t, "\x1b[A")
	if len(evs) != 1 || evs[0].Key.Name != "Up" {
		t.Fatalf("expected Up arrow, got %+v", evs)
	}
}

func TestArrowUpWithShift(t *testing.T) {
	evs := decodeAll(t, "\x1b[1;2A")
	if len(evs) != 1 || evs[0].Key.Name != "Up" || !evs[0].Key.Mods.Has(ModShift) {
		t.Fatalf("expected shift+Up, got %+v", evs)
	}
}

func TestKittyKeyWithModsAndRepeat(t *testing.T) {
	evs := decodeAll(t, "\x1b[97;5:2u")
	if len(evs) != 1 {
		t.Fatalf("expected one event, got %d", len(evs))
	}
	k := evs[0].Key
	if k.Rune != 'a' || !k.Mods.Has(ModCtrl) || k.Action != KeyRepeat {
		t.Errorf("unexpected kitty key decode: %+v", k)
	}
}

func TestKittyPressThenReleasePreservesRaw(t *testing.T) {
	press := "\x1b[97;1;1u"
	release := "\x1b[97;1;3u"
	evs := decodeAll(t, press+release)
	if len(evs) != 2 {
		t.Fatalf("expected two events, got %d", len(evs))
	}
	if evs[0].Key.Rune != 'a' || evs[0].Key.Action != KeyPress {
		t.Errorf("unexpected first event: %+v", evs[0].Key)
	}
	if evs[1].Key.Rune != 'a' || evs[1].Key.Action != KeyRelease {
		t.Errorf("unexpected second event: %+v", evs[1].Key)
	}
	if evs[0].Key.Mods != 0 || evs[1].Key.Mods != 0 {
		t.Errorf("expected all modifiers false, got %v and %v", evs[0].Key.Mods, evs[1].Key.Mods)
	}
	if string(evs[0].Raw) != press || string(evs[1].Raw) != release {
		t.Errorf("raw bytes not preserved: %q, %q", evs[0].Raw, evs[1].Raw)
	}
}

func TestRawConcatenationMatchesInput(t *testing.T) {
	in := "\x1b[97;1;1ux\x1b[A\x1b[<0;3;4M"
	evs := decodeAll(t, in)
	var got []byte
	for _, ev := range evs {
		got = append(got, ev.Raw...)
	}
	if string(got) != in {
		t.Errorf("concatenated raw %q does not reconstruct input %q", got, in)
	}
}

func TestShiftTabCSIZ(t *testing.T) {
	evs := decodeAll(t, "\x1b[Z")
	if len(evs) != 1 || evs[0].Key.Name != "Tab" || !evs[0].Key.Mods.Has(ModShift) {
		t.Fatalf("expected shift+Tab from CSI Z, got %+v", evs)
	}
}

func TestSGRMousePress(t *testing.T) {
	evs := decodeAll(t, "\x1b[<0;10;5M")
	if len(evs) != 1 || evs[0].Kind != KindMouse {
		t.Fatalf("expected a mouse event, got %+v", evs)
	}
	m := evs[0].Mouse
	if m.X != 9 || m.Y != 4 || m.Button != ButtonLeft || m.Action != MouseDown {
		t.Errorf("unexpected mouse decode: %+v", m)
	}
}

func TestSGRMouseRelease(t *testing.T) {
	evs := decodeAll(t, "\x1b[<0;10;5m")
	if len(evs) != 1 || evs[0].Mouse.Action != MouseUp {
		t.Fatalf("expected mouse-up, got %+v", evs)
	}
}

func TestBracketedPasteSpansChunks(t *testing.T) {
	evs := decodeAll(t, "\x1b[200~hello", " world", "\x1b[201~")
	if len(evs) != 1 || evs[0].Kind != KindPaste {
		t.Fatalf("expected one paste event, got %+v", evs)
	}
	if evs[0].Paste.Text != "hello world" {
		t.Errorf("unexpected paste text: %q", evs[0].Paste.Text)
	}
}

func TestFocusInOut(t *testing.T) {
	evs := decodeAll(t, "\x1b[I\x1b[O")
	if len(evs) != 2 || !evs[0].Focus.Focused || evs[1].Focus.Focused {
		t.Fatalf("expected focus-in then focus-out, got %+v", evs)
	}
}

func TestAltKey(t *testing.T) {
	evs := decodeAll(t, "\x1bx")
	if len(evs) != 1 || evs[0].Key.Rune != 'x' || !evs[0].Key.Mods.Has(ModAlt) {
		t.Fatalf("expected Alt+x, got %+v", evs)
	}
}
