package cellbuf

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	b := New(10, 5)
	b.SetCell(2, 1, "a", RGB(255, 0, 0), Default, AttrBold)
	c := b.Get(2, 1)
	if c.Grapheme != "a" || c.Attr&AttrBold == 0 {
		t.Errorf("set/get failed: %+v", c)
	}
}

func TestResizePreservesOverlap(t *testing.T) {
	b := New(10, 10)
	b.SetCell(0, 0, "x", Default, Default, 0)
	b.Resize(5, 5)
	if b.Width != 5 || b.Height != 5 {
		t.Errorf("resize failed: %dx%d", b.Width, b.Height)
	}
	if b.Get(0, 0).Grapheme != "x" {
		t.Errorf("resize should preserve overlapping content")
	}
}

func TestResizeGrowPreservesExisting(t *testing.T) {
	b := New(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			b.SetCell(x, y, "z", Default, Default, 0)
		}
	}
	b.Resize(6, 6)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if b.Get(x, y).Grapheme != "z" {
				t.Errorf("cell (%d,%d) changed after grow", x, y)
			}
		}
	}
	if b.Get(4, 4).Grapheme != " " {
		t.Errorf("newly exposed cell should be blank, got %q", b.Get(4, 4).Grapheme)
	}
}

func TestWriteOutsideScissorIsNoop(t *testing.T) {
	b := New(10, 10)
	b.PushScissor(0, 0, 3, 3)
	b.SetCell(5, 5, "x", Default, Default, 0)
	if b.Get(5, 5).Grapheme == "x" {
		t.Errorf("write fully outside scissor rect should be a no-op")
	}
}

func TestPushPopScissorIsNoop(t *testing.T) {
	b := New(10, 10)
	before := append([]rect(nil), b.scissors...)
	b.PushScissor(1, 1, 2, 2)
	b.PopScissor()
	if len(b.scissors) != len(before) {
		t.Errorf("push/pop should restore the scissor stack")
	}
}

func TestPopBelowRootIsNoop(t *testing.T) {
	b := New(4, 4)
	b.PopScissor()
	if len(b.scissors) == 0 {
		t.Fatalf("scissor stack must never be empty")
	}
	if b.top() != (rect{0, 0, 4, 4}) {
		t.Errorf("popping below root should leave the full rect")
	}
}

func TestWideGraphemeAtRightEdgeBecomesSpace(t *testing.T) {
	b := New(10, 1)
	b.SetCell(9, 0, "字", Default, Default, 0)
	if b.Get(9, 0).Grapheme != " " {
		t.Errorf("wide grapheme clipped at the right edge should render as a space, got %q", b.Get(9, 0).Grapheme)
	}
	if b.Get(9, 0).Continuation {
		t.Errorf("no continuation cell should exist past the buffer edge")
	}
}

func TestContinuationCellOverwriteResetsLeftHalf(t *testing.T) {
	b := New(10, 1)
	b.SetCell(2, 0, "字", Default, Default, 0)
	if !b.Get(3, 0).Continuation {
		t.Fatalf("expected a continuation cell at x=3")
	}
	b.SetCell(3, 0, "y", Default, Default, 0)
	if b.Get(2, 0).Grapheme != " " {
		t.Errorf("writing into a continuation cell must reset the left half to a space, got %q", b.Get(2, 0).Grapheme)
	}
}

func TestDrawTextClipsAtScissorRightEdge(t *testing.T) {
	b := New(10, 3)
	b.PushScissor(0, 0, 10, 3)
	b.DrawText(0, 0, "0123456789ABCDEF", Default, Default, 0)
	for x := 0; x < 10; x++ {
		want := rune('0' + x)
		if got := b.Get(x, 0).Grapheme; got != string(want) {
			t.Errorf("x=%d: got %q want %q", x, got, string(want))
		}
	}
}

func TestFillRectReplacesOpaque(t *testing.T) {
	b := New(5, 5)
	b.SetCell(1, 1, "x", Default, Default, AttrBold)
	b.FillRect(0, 0, 5, 5, RGB(0, 0, 0))
	c := b.Get(1, 1)
	if c.Grapheme != " " || c.Attr != 0 {
		t.Errorf("opaque fill_rect should replace the whole cell, got %+v", c)
	}
}

func TestDrawBoxTitle(t *testing.T) {
	b := New(20, 5)
	b.DrawBox(0, 0, 20, 5, SideAll, BorderSingle, Default, Default, "hi", TitleLeft)
	if b.Get(0, 0).Grapheme != "┌" {
		t.Errorf("expected top-left corner glyph, got %q", b.Get(0, 0).Grapheme)
	}
	if b.Get(1, 0).Grapheme != " " {
		t.Errorf("title should start with a one-cell gap, got %q", b.Get(1, 0).Grapheme)
	}
}

func TestAlphaCompositeOver(t *testing.T) {
	dst := RGB(0, 0, 0)
	src := Color{1, 1, 1, 0.5}
	out := Over(src, dst)
	if out[3] != 1 {
		t.Errorf("compositing over an opaque background must stay opaque, got a=%v", out[3])
	}
	if out[0] < 0.4 || out[0] > 0.6 {
		t.Errorf("expected ~50%% white over black, got r=%v", out[0])
	}
}

func TestParseColorForms(t *testing.T) {
	cases := []string{"", "#ff0000", "rgb(255,0,0)", "rgba(255,0,0,0.5)", "red", "bright_blue"}
	for _, s := range cases {
		if _, ok := ParseColor(s); !ok {
			t.Errorf("ParseColor(%q) should succeed", s)
		}
	}
	if _, ok := ParseColor("not-a-color-!!"); ok {
		t.Errorf("ParseColor should reject garbage input")
	}
}
