package diff

import (
	"bytes"
	"testing"

	"cellscape/cellbuf"

	"github.com/charmbracelet/x/vt"
)

// TestFlushRoundTripsThroughAVT100Emulator drives the exact byte stream
// Flush produces through a real VT100 state machine (the same emulator
// tinyrange-cc uses to back its GPU terminal view) and checks the
// emulator's own cell grid ends up matching what was asked for, rather
// than just asserting on the escape bytes themselves.
func TestFlushRoundTripsThroughAVT100Emulator(t *testing.T) {
	prev := cellbuf.New(10, 3)
	next := cellbuf.New(10, 3)
	next.DrawText(2, 1, "Hi", cellbuf.RGB(255, 0, 0), cellbuf.Default, 0)

	var buf bytes.Buffer
	if _, err := Flush(&buf, prev, next, false); err != nil {
		t.Fatalf("flush: %v", err)
	}

	emu := vt.NewSafeEmulator(10, 3)
	defer emu.Close()
	if _, err := emu.Write(buf.Bytes()); err != nil {
		t.Fatalf("emulator write: %v", err)
	}

	wantCells := []struct {
		x, y int
		ch   string
	}{
		{2, 1, "H"},
		{3, 1, "i"},
	}
	for _, wc := range wantCells {
		cell := emu.CellAt(wc.x, wc.y)
		if cell == nil {
			t.Fatalf("expected a cell at (%d,%d), got none", wc.x, wc.y)
		}
		if cell.Content != wc.ch {
			t.Errorf("cell (%d,%d): got content %q, want %q", wc.x, wc.y, cell.Content, wc.ch)
		}
	}
}

// TestFlushLeavesUnchangedCellsAloneInTheEmulator verifies that a second
// flush with no further changes produces no bytes, so the emulator's grid
// (already converged in the first round trip) is left exactly as-is.
func TestFlushLeavesUnchangedCellsAloneInTheEmulator(t *testing.T) {
	prev := cellbuf.New(6, 1)
	next := cellbuf.New(6, 1)
	next.DrawText(0, 0, "ok", cellbuf.RGB(0, 200, 0), cellbuf.Default, 0)

	var first bytes.Buffer
	if _, err := Flush(&first, prev, next, false); err != nil {
		t.Fatalf("first flush: %v", err)
	}

	emu := vt.NewSafeEmulator(6, 1)
	defer emu.Close()
	if _, err := emu.Write(first.Bytes()); err != nil {
		t.Fatalf("emulator write: %v", err)
	}

	var second bytes.Buffer
	n, err := Flush(&second, next, next, false)
	if err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no bytes for an unchanged buffer, got %d", n)
	}

	cell := emu.CellAt(0, 0)
	if cell == nil || cell.Content != "o" {
		t.Errorf("expected the emulator's grid to still show the first flush's content")
	}
}
