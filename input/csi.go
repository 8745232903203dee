package input

import "strconv"

// dispatchCSI interprets a completed CSI sequence (params accumulated in
// d.params, intermediates in d.inter) once the final byte arrives.
func (d *Decoder) dispatchCSI(final byte) (Event, bool) {
	raw := append([]byte(nil), d.rawSeq...)
	d.rawSeq = nil

	if len(d.params) >= 2 && d.params[0] == '_' && d.params[1] == 'O' {
		return d.dispatchSS3(final, raw)
	}

	fields := splitParams(d.params)
	sgrMouse := containsByte(d.inter, '<')

	switch {
	case (final == 'M' || final == 'm') && sgrMouse:
		return d.sgrMouse(fields, final == 'M', raw)
	case final == 'M' && !sgrMouse:
		d.st = stateX10Mouse
		d.mouseRaw = d.mouseRaw[:0]
		d.mousePrefix = raw
		return Event{}, false
	case final == '~':
		return d.tildeKey(fields, raw)
	case final == 'u':
		return d.kittyKey(fields, raw)
	case final == 'A', final == 'B', final == 'C', final == 'D', final == 'H', final == 'F':
		return d.arrowKey(final, fields, raw)
	case final == 'Z':
		return keyEvent(0, "Tab", ModShift, KeyPress, raw), true
	case final == 'I' && len(fields) == 0:
		return Event{Kind: KindFocus, Raw: raw, Focus: FocusEvent{Focused: true}}, true
	case final == 'O' && len(fields) == 0:
		return Event{Kind: KindFocus, Raw: raw, Focus: FocusEvent{Focused: false}}, true
	default:
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
}

func (d *Decoder) dispatchSS3(final byte, raw []byte) (Event, bool) {
	switch final {
	case 'A':
		return keyEvent(0, "Up", 0, KeyPress, raw), true
	case 'B':
		return keyEvent(0, "Down", 0, KeyPress, raw), true
	case 'C':
		return keyEvent(0, "Right", 0, KeyPress, raw), true
	case 'D':
		return keyEvent(0, "Left", 0, KeyPress, raw), true
	case 'H':
		return keyEvent(0, "Home", 0, KeyPress, raw), true
	case 'F':
		return keyEvent(0, "End", 0, KeyPress, raw), true
	case 'P':
		return keyEvent(0, "F1", 0, KeyPress, raw), true
	case 'Q':
		return keyEvent(0, "F2", 0, KeyPress, raw), true
	case 'R':
		return keyEvent(0, "F3", 0, KeyPress, raw), true
	case 'S':
		return keyEvent(0, "F4", 0, KeyPress, raw), true
	default:
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
}

func (d *Decoder) arrowKey(final byte, fields [][]int, raw []byte) (Event, bool) {
	names := map[byte]string{'A': "Up", 'B': "Down", 'C': "Right", 'D': "Left", 'H': "Home", 'F': "End"}
	var mods Mod
	if len(fields) >= 2 && len(fields[1]) >= 1 {
		mods = modFromKitty(fields[1][0])
	}
	return keyEvent(0, names[final], mods, KeyPress, raw), true
}

// tildeKeys maps the numeric code preceding a '~' final byte to a named
// function key. The bracketed-paste markers 200 and 201 are not in the
// map; tildeKey handles them before the lookup.
var tildeKeys = map[int]string{
	2: "Insert", 3: "Delete", 5: "PageUp", 6: "PageDown",
	15: "F5", 17: "F6", 18: "F7", 19: "F8", 20: "F9", 21: "F10", 23: "F11", 24: "F12",
}

func (d *Decoder) tildeKey(fields [][]int, raw []byte) (Event, bool) {
	if len(fields) == 0 || len(fields[0]) == 0 {
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
	code := fields[0][0]
	if code == 200 {
		d.st = statePasteAccumulate
		d.pasteBuf = d.pasteBuf[:0]
		d.pastePrefix = raw
		return Event{}, false
	}
	if code == 201 {
		return Event{}, false
	}
	name, ok := tildeKeys[code]
	if !ok {
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
	var mods Mod
	if len(fields) >= 2 && len(fields[1]) >= 1 {
		mods = modFromKitty(fields[1][0])
	}
	return keyEvent(0, name, mods, KeyPress, raw), true
}

// kittyKey interprets a CSI ... u sequence under the Kitty keyboard
// protocol: field 0 is the unicode codepoint (its first subfield), field
// 1 is mods[:event-type]. Some terminals report the event type as a
// third ';'-separated field instead of a ':' subfield of the modifiers;
// both spellings are accepted.
func (d *Decoder) kittyKey(fields [][]int, raw []byte) (Event, bool) {
	if len(fields) == 0 || len(fields[0]) == 0 {
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
	r := rune(fields[0][0])
	var mods Mod
	eventType := 1
	if len(fields) >= 2 {
		if len(fields[1]) >= 1 {
			mods = modFromKitty(fields[1][0])
		}
		if len(fields[1]) >= 2 {
			eventType = fields[1][1]
		}
	}
	if len(fields) >= 3 && len(fields[2]) >= 1 {
		eventType = fields[2][0]
	}
	action := KeyPress
	switch eventType {
	case 2:
		action = KeyRepeat
	case 3:
		action = KeyRelease
	}
	// Functional codepoints keep their canonical names so applications
	// match on the same key regardless of whether Kitty mode is active.
	var name string
	switch r {
	case 9:
		name = "Tab"
	case 13:
		name = "Enter"
	case 27:
		name = "Escape"
	case 127:
		name = "Backspace"
	}
	if name != "" {
		return keyEvent(0, name, mods, action, raw), true
	}
	return keyEvent(r, "", mods, action, raw), true
}

// modFromKitty converts the Kitty protocol's 1-based modifier field into
// a Mod bitmask (the protocol stores mods+1 so that 0 means "absent").
func modFromKitty(field int) Mod {
	if field <= 0 {
		return 0
	}
	return Mod(field - 1)
}

func (d *Decoder) sgrMouse(fields [][]int, pressed bool, raw []byte) (Event, bool) {
	if len(fields) < 3 || len(fields[0]) == 0 || len(fields[1]) == 0 || len(fields[2]) == 0 {
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
	cb := fields[0][0]
	x := fields[1][0] - 1
	y := fields[2][0] - 1
	button, action, mods := decodeMouseByte(cb, pressed)
	return Event{Kind: KindMouse, Raw: raw, Mouse: MouseEvent{X: x, Y: y, Button: button, Action: action, Mods: mods}}, true
}

func decodeMouseByte(cb int, pressed bool) (MouseButton, MouseAction, Mod) {
	var mods Mod
	if cb&4 != 0 {
		mods |= ModShift
	}
	if cb&8 != 0 {
		mods |= ModAlt
	}
	if cb&16 != 0 {
		mods |= ModCtrl
	}
	motion := cb&32 != 0
	low := cb &^ (4 | 8 | 16 | 32)

	var button MouseButton
	switch {
	case cb&64 != 0:
		if low&1 != 0 {
			button = ButtonWheelDown
		} else {
			button = ButtonWheelUp
		}
		return button, MouseDown, mods
	case low == 0:
		button = ButtonLeft
	case low == 1:
		button = ButtonMiddle
	case low == 2:
		button = ButtonRight
	default:
		button = ButtonNone
	}

	switch {
	case motion && button != ButtonNone:
		return button, MouseDrag, mods
	case motion:
		return ButtonNone, MouseMove, mods
	case !pressed:
		return button, MouseUp, mods
	default:
		return button, MouseDown, mods
	}
}

func containsByte(b []byte, target byte) bool {
	for _, c := range b {
		if c == target {
			return true
		}
	}
	return false
}

// splitParams splits the raw ';'-delimited parameter bytes into fields,
// each further split on ':' subparameters (used by Kitty's
// keycode:shifted:base and mods:event-type encodings).
func splitParams(raw []byte) [][]int {
	if len(raw) == 0 {
		return nil
	}
	var fields [][]int
	start := 0
	flush := func(end int) {
		fields = append(fields, splitSub(raw[start:end]))
		start = end + 1
	}
	for i, b := range raw {
		if b == ';' {
			flush(i)
		}
	}
	flush(len(raw))
	return fields
}

func splitSub(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	var out []int
	start := 0
	flush := func(end int) {
		if end > start {
			if n, err := strconv.Atoi(string(raw[start:end])); err == nil {
				out = append(out, n)
			}
		}
		start = end + 1
	}
	for i, b := range raw {
		if b == ':' {
			flush(i)
		}
	}
	flush(len(raw))
	return out
}
