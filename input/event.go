// Package input turns a raw byte stream from a terminal into structured
// key, mouse, paste and focus events. A byte-level escape scanner only
// needs to tell ESC from CSI; this is a full state machine covering
// CSI/OSC/DCS sequences, SGR and X10 mouse reporting, the Kitty keyboard
// protocol and bracketed paste.
package input

// KeyAction distinguishes a fresh key press from an OS-level autorepeat
// or a release, as reported under the Kitty keyboard protocol's
// disambiguation flag.
type KeyAction int

const (
	KeyPress KeyAction = iota
	KeyRepeat
	KeyRelease
)

// Mod is a bitmask of modifier keys, matching the Kitty keyboard
// protocol's modifier encoding (bit 0 = shift ... bit 5 = meta, bit 7 =
// num lock).
type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModAlt
	ModCtrl
	ModSuper
	ModHyper
	ModMeta
	ModCapsLock
	ModNumLock
)

func (m Mod) Has(bit Mod) bool { return m&bit != 0 }

// KeyEvent is one keyboard event.
type KeyEvent struct {
	Rune   rune
	Name   string // non-empty for named keys without a printable rune (e.g. "Enter", "F5")
	Mods   Mod
	Action KeyAction
}

// MouseButton identifies which button, if any, produced a mouse event.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	ButtonWheelUp
	ButtonWheelDown
	ButtonWheelLeft
	ButtonWheelRight
)

// MouseAction distinguishes press, release and motion (including drag,
// which is motion with a button held).
type MouseAction int

const (
	MouseDown MouseAction = iota
	MouseUp
	MouseMove
	MouseDrag
	// The decoder never produces MouseDragEnd, MouseOver or MouseOut. The
	// router synthesizes MouseOver and MouseOut as the pointer crosses
	// hit-grid cells belonging to different ids; MouseDragEnd is only
	// accepted by the router, which ends a drag on it as on MouseUp.
	MouseDragEnd
	MouseOver
	MouseOut
)

// MouseEvent is one mouse event, in 0-based cell coordinates.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Mods   Mod
}

// PasteEvent carries the full accumulated text of a bracketed paste.
type PasteEvent struct {
	Text string
}

// FocusEvent reports the terminal gaining or losing focus.
type FocusEvent struct {
	Focused bool
}

// ResizeEvent reports a SIGWINCH-driven terminal size change.
type ResizeEvent struct {
	Width, Height int
}

// Event is the union of everything the decoder can produce. Exactly one
// of the typed fields is non-nil/non-zero-valued per the Kind. Raw holds
// the exact input bytes that produced the event, so a debug facility or
// test can reconstruct what the terminal actually sent; for a KindUnknown
// event it is the only payload.
type Event struct {
	Kind   Kind
	Raw    []byte
	Key    KeyEvent
	Mouse  MouseEvent
	Paste  PasteEvent
	Focus  FocusEvent
	Resize ResizeEvent
}

// Kind tags which field of Event is populated.
type Kind int

const (
	KindKey Kind = iota
	KindMouse
	KindPaste
	KindFocus
	KindResize
	KindUnknown
)
