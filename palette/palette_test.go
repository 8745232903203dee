package palette

import "testing"

func TestParseOSCColor(t *testing.T) {
	c, ok := parseOSCColor("\x1b]11;rgb:1a1a/2b2b/3c3c\x07")
	if !ok {
		t.Fatalf("expected a parsed color")
	}
	if c[0] != float32(0x1a)/255 {
		t.Errorf("unexpected red channel: %v", c[0])
	}
}

func TestParseOSCColorMalformed(t *testing.T) {
	if _, ok := parseOSCColor("\x1b]11;not-a-color\x07"); ok {
		t.Fatalf("expected malformed response to fail parsing")
	}
}

func TestNewQueryCachesNothingInitially(t *testing.T) {
	q := New(0)
	if len(q.cache) != 0 {
		t.Errorf("expected an empty cache on construction")
	}
}
