package terminal

import (
	"strings"
	"testing"
)

func TestEnableBytesFullOptionSet(t *testing.T) {
	opts := Options{
		AlternateScreen: true,
		Mouse:           true,
		MouseMovement:   true,
		FocusReports:    true,
		BracketedPaste:  true,
		KittyKeyboard:   true,
		HideCursor:      true,
	}
	got := string(enableBytes(opts))
	for _, seq := range []string{
		"\x1b[?1049h", "\x1b[?1000h", "\x1b[?1006h", "\x1b[?1003h",
		"\x1b[?1004h", "\x1b[?2004h", "\x1b[>1u", "\x1b[?25l",
	} {
		if !strings.Contains(got, seq) {
			t.Errorf("expected enable stream to contain %q, got %q", seq, got)
		}
	}
	if strings.Index(got, "\x1b[?1049h") > strings.Index(got, "\x1b[?1000h") {
		t.Errorf("alternate screen should enable before mouse reporting")
	}
}

func TestDisableReversesEnableOrder(t *testing.T) {
	opts := Options{AlternateScreen: true, Mouse: true, HideCursor: true}
	got := string(disableBytes(opts))
	if strings.Index(got, "\x1b[?25h") > strings.Index(got, "\x1b[?1049l") {
		t.Errorf("expected cursor show before leaving alternate screen in the disable sequence, got %q", got)
	}
}

func TestNoOptionsProduceNoBytes(t *testing.T) {
	if len(enableBytes(Options{})) != 0 {
		t.Errorf("expected zero bytes for an empty option set")
	}
	if len(disableBytes(Options{})) != 0 {
		t.Errorf("expected zero bytes for an empty option set")
	}
}
