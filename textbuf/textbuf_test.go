package textbuf

import (
	"testing"

	"cellscape/cellbuf"
)

func TestAppendAndLineTable(t *testing.T) {
	b := New()
	b.Append("hello\nworld", cellbuf.Default, cellbuf.Default, 0)
	if got := b.LineCount(); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	if b.LineStart(0) != 0 || b.LineStart(1) != 6 {
		t.Errorf("unexpected line starts: %d, %d", b.LineStart(0), b.LineStart(1))
	}
	if b.LineWidth(0) != 5 || b.LineWidth(1) != 5 {
		t.Errorf("unexpected line widths: %d, %d", b.LineWidth(0), b.LineWidth(1))
	}
}

func TestWrapEmptyBufferYieldsOneLine(t *testing.T) {
	b := New()
	lines := b.Wrap(10, WrapChar)
	if len(lines) != 1 || lines[0].Start != 0 || lines[0].End != 0 {
		t.Errorf("wrap on empty buffer should yield one empty visual line, got %+v", lines)
	}
}

func TestWrapWordFallsBackToCharForOverlongWord(t *testing.T) {
	b := New()
	b.Append("a supercalifragilisticexpialidocious word", cellbuf.Default, cellbuf.Default, 0)
	lines := b.Wrap(8, WrapWord)
	if len(lines) < 2 {
		t.Fatalf("expected the overlong word to be split across multiple visual lines, got %d", len(lines))
	}
	for _, l := range lines {
		if l.Width > 8 {
			t.Errorf("visual line width %d exceeds column budget 8", l.Width)
		}
	}
}

func TestSelectionSetThenClearRestoresDraw(t *testing.T) {
	b := New()
	b.Append("hello world", cellbuf.RGB(255, 255, 255), cellbuf.Default, 0)

	before := cellbuf.New(20, 1)
	b.Draw(before, 0, 0, 0, 0, 20, 1, WrapNone)

	b.SelectionSet(0, 5, cellbuf.RGB(0, 0, 0), cellbuf.RGB(255, 255, 255))
	b.SelectionClear()

	after := cellbuf.New(20, 1)
	b.Draw(after, 0, 0, 0, 0, 20, 1, WrapNone)

	for x := 0; x < 11; x++ {
		if before.Get(x, 0) != after.Get(x, 0) {
			t.Errorf("cell %d differs after selection set+clear round trip", x)
		}
	}
}

func TestSelectionOutOfRangeIsClamped(t *testing.T) {
	b := New()
	b.Append("hi", cellbuf.Default, cellbuf.Default, 0)
	b.SelectionSet(-5, 500, cellbuf.Default, cellbuf.Default)
	if b.selStart != 0 || b.selEnd != 2 {
		t.Errorf("selection offsets should clamp to buffer bounds, got [%d,%d]", b.selStart, b.selEnd)
	}
}

func TestReplaceInvalidatesLineTable(t *testing.T) {
	b := New()
	b.Append("abc\ndef", cellbuf.Default, cellbuf.Default, 0)
	b.Replace(1, 2, "\n", cellbuf.Default, cellbuf.Default, 0)
	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines after replace introduced a newline, got %d", b.LineCount())
	}
}

func TestDrawAppliesSelectionOverlay(t *testing.T) {
	b := New()
	base := cellbuf.RGB(1, 2, 3)
	sel := cellbuf.RGB(9, 9, 9)
	b.Append("abc", base, cellbuf.Default, 0)
	b.SelectionSet(1, 2, sel, cellbuf.Default)

	dst := cellbuf.New(3, 1)
	b.Draw(dst, 0, 0, 0, 0, 3, 1, WrapNone)

	if dst.Get(0, 0).Fg != base {
		t.Errorf("cell outside selection should keep base style")
	}
	if dst.Get(1, 0).Fg != sel {
		t.Errorf("cell inside selection should use selection fg")
	}
}
