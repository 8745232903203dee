package input

import "unicode/utf8"

// state is the decoder's current position in the escape-sequence grammar.
// A minimal byte scanner only needs to distinguish "saw ESC" from "saw
// CSI"; this enumerates the full set a Kitty-keyboard- and
// mouse-reporting-aware terminal needs.
type state int

const (
	stateGround state = iota
	stateEscape
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateOscString
	stateDcsString
	statePasteAccumulate
	stateX10Mouse
)

const pasteEndMarker = "\x1b[201~"

// Decoder is a byte-at-a-time state machine. Feed bytes as they arrive
// from the terminal (or a cancelreader-backed background goroutine); each
// call returns zero or more completed events.
type Decoder struct {
	st      state
	utf8buf []byte

	params []byte
	inter  []byte
	rawSeq []byte // ESC.. bytes of the escape sequence being assembled

	oscBuf []byte
	dcsBuf []byte

	pasteBuf []byte

	mouseRaw    []byte // accumulates legacy X10's 3 post-'M' bytes
	mousePrefix []byte // rawSeq snapshot ("ESC [ M") at the point X10 mode was entered
	pastePrefix []byte // "ESC [ 200 ~" bytes that opened the current paste
}

// NewDecoder returns a decoder in the ground state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed processes one incoming chunk and returns the events it completed.
// Bytes that only advance partial state (e.g. the ESC of a not-yet-
// complete CSI sequence) produce no event until the sequence resolves.
func (d *Decoder) Feed(chunk []byte) []Event {
	var out []Event
	for _, b := range chunk {
		if ev, ok := d.feedByte(b); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (d *Decoder) feedByte(b byte) (Event, bool) {
	switch d.st {
	case stateGround:
		return d.ground(b)
	case stateEscape:
		return d.escape(b)
	case stateCsiEntry, stateCsiParam, stateCsiIntermediate:
		return d.csi(b)
	case stateOscString:
		return d.osc(b)
	case stateDcsString:
		return d.dcs(b)
	case statePasteAccumulate:
		return d.pasteByte(b)
	case stateX10Mouse:
		return d.x10MouseByte(b)
	default:
		d.st = stateGround
		return Event{}, false
	}
}

func (d *Decoder) ground(b byte) (Event, bool) {
	switch {
	case b == 0x1b:
		d.st = stateEscape
		return Event{}, false
	case b < 0x20 && b != 0x09 && b != 0x0d && b != 0x0a:
		// C0 control other than Tab/CR/LF: Ctrl+<letter>.
		return keyEvent(rune(b+0x60), "", ModCtrl, KeyPress, []byte{b}), true
	case b == 0x7f:
		return keyEvent(0, "Backspace", 0, KeyPress, []byte{b}), true
	case b == 0x09:
		return keyEvent(0, "Tab", 0, KeyPress, []byte{b}), true
	case b == 0x0d:
		return keyEvent(0, "Enter", 0, KeyPress, []byte{b}), true
	default:
		return d.groundUTF8(b)
	}
}

// groundUTF8 assembles multi-byte UTF-8 runes byte by byte.
func (d *Decoder) groundUTF8(b byte) (Event, bool) {
	d.utf8buf = append(d.utf8buf, b)
	if !utf8.FullRune(d.utf8buf) {
		return Event{}, false
	}
	r, size := utf8.DecodeRune(d.utf8buf)
	raw := append([]byte(nil), d.utf8buf[:size]...)
	d.utf8buf = d.utf8buf[size:]
	if r == utf8.RuneError && size <= 1 {
		d.utf8buf = nil
		return Event{}, false
	}
	return keyEvent(r, "", 0, KeyPress, raw), true
}

func (d *Decoder) escape(b byte) (Event, bool) {
	switch b {
	case '[':
		d.st = stateCsiEntry
		d.params = d.params[:0]
		d.inter = d.inter[:0]
		d.rawSeq = append([]byte(nil), 0x1b, b)
		return Event{}, false
	case ']':
		d.st = stateOscString
		d.oscBuf = d.oscBuf[:0]
		d.rawSeq = append([]byte(nil), 0x1b, b)
		return Event{}, false
	case 'P':
		d.st = stateDcsString
		d.dcsBuf = d.dcsBuf[:0]
		d.rawSeq = append([]byte(nil), 0x1b, b)
		return Event{}, false
	case 'O':
		// SS3: the next byte alone names an arrow or F1-F4 key.
		d.st = stateCsiEntry
		d.params = append(d.params[:0], '_', 'O')
		d.inter = d.inter[:0]
		d.rawSeq = append([]byte(nil), 0x1b, b)
		return Event{}, false
	default:
		d.st = stateGround
		if b < 0x80 {
			return keyEvent(rune(b), "", ModAlt, KeyPress, []byte{0x1b, b}), true
		}
		return Event{}, false
	}
}

// maxSeqLen bounds an in-flight escape sequence; a terminal never sends a
// legitimate CSI sequence anywhere near this long, so exceeding it means
// garbage on the wire rather than a slow multi-byte arrival.
const maxSeqLen = 256

func (d *Decoder) csi(b byte) (Event, bool) {
	d.rawSeq = append(d.rawSeq, b)
	if len(d.rawSeq) > maxSeqLen {
		raw := d.rawSeq
		d.st = stateGround
		d.rawSeq = nil
		return Event{Kind: KindUnknown, Raw: raw}, true
	}
	switch {
	case b >= '0' && b <= '9', b == ';', b == ':', b == '-':
		d.st = stateCsiParam
		d.params = append(d.params, b)
		return Event{}, false
	case b == '<' && len(d.params) == 0:
		// SGR mouse prefix; keep it out of the numeric param buffer by
		// recording it in inter instead.
		d.inter = append(d.inter, b)
		return Event{}, false
	case b >= 0x20 && b <= 0x2f:
		d.st = stateCsiIntermediate
		d.inter = append(d.inter, b)
		return Event{}, false
	case b >= 0x40 && b <= 0x7e:
		d.st = stateGround
		return d.dispatchCSI(b)
	default:
		d.st = stateGround
		return Event{}, false
	}
}

// osc consumes an OSC string up to BEL or ST. The completed sequence is
// surfaced as an unknown event carrying its exact raw bytes — palette
// responses are read by the palette package on its own reader, so by the
// time an OSC reaches this decoder it is debug material, not a key.
func (d *Decoder) osc(b byte) (Event, bool) {
	d.rawSeq = append(d.rawSeq, b)
	if b == 0x07 || (b == '\\' && len(d.oscBuf) > 0 && d.oscBuf[len(d.oscBuf)-1] == 0x1b) {
		return d.finishString()
	}
	d.oscBuf = append(d.oscBuf, b)
	return d.checkOverflow()
}

func (d *Decoder) dcs(b byte) (Event, bool) {
	d.rawSeq = append(d.rawSeq, b)
	if b == '\\' && len(d.dcsBuf) > 0 && d.dcsBuf[len(d.dcsBuf)-1] == 0x1b {
		return d.finishString()
	}
	d.dcsBuf = append(d.dcsBuf, b)
	return d.checkOverflow()
}

func (d *Decoder) finishString() (Event, bool) {
	raw := d.rawSeq
	d.st = stateGround
	d.rawSeq = nil
	d.oscBuf = d.oscBuf[:0]
	d.dcsBuf = d.dcsBuf[:0]
	return Event{Kind: KindUnknown, Raw: raw}, true
}

// checkOverflow aborts an unreasonably long string sequence, emitting
// what accumulated so far as a raw-input debug event and returning the
// state machine to ground.
func (d *Decoder) checkOverflow() (Event, bool) {
	if len(d.rawSeq) <= maxSeqLen {
		return Event{}, false
	}
	return d.finishString()
}

func (d *Decoder) pasteByte(b byte) (Event, bool) {
	d.pasteBuf = append(d.pasteBuf, b)
	if len(d.pasteBuf) >= len(pasteEndMarker) &&
		string(d.pasteBuf[len(d.pasteBuf)-len(pasteEndMarker):]) == pasteEndMarker {
		text := d.pasteBuf[:len(d.pasteBuf)-len(pasteEndMarker)]
		d.st = stateGround
		raw := append(append([]byte(nil), d.pastePrefix...), d.pasteBuf...)
		ev := Event{Kind: KindPaste, Raw: raw, Paste: PasteEvent{Text: string(text)}}
		d.pasteBuf = nil
		return ev, true
	}
	return Event{}, false
}

// x10MouseByte accumulates the three legacy X10 report bytes (button,
// x+32, y+32) that follow a bare CSI M with no SGR '<' prefix.
func (d *Decoder) x10MouseByte(b byte) (Event, bool) {
	d.mouseRaw = append(d.mouseRaw, b)
	if len(d.mouseRaw) < 3 {
		return Event{}, false
	}
	d.st = stateGround
	raw := append(append([]byte(nil), d.mousePrefix...), d.mouseRaw...)
	cb := int(d.mouseRaw[0]) - 32
	x := int(d.mouseRaw[1]) - 32 - 1
	y := int(d.mouseRaw[2]) - 32 - 1
	button, action, mods := decodeMouseByte(cb, true)
	return Event{Kind: KindMouse, Raw: raw, Mouse: MouseEvent{X: x, Y: y, Button: button, Action: action, Mods: mods}}, true
}

func keyEvent(r rune, name string, mods Mod, action KeyAction, raw []byte) Event {
	return Event{Kind: KindKey, Raw: raw, Key: KeyEvent{Rune: r, Name: name, Mods: mods, Action: action}}
}
