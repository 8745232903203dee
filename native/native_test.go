package native

import (
	"testing"

	"cellscape/cellbuf"
)

func TestPureGoDrawTextAndDiffFlush(t *testing.T) {
	p := NewPureGo()
	prev := p.CreateBuffer(10, 1)
	next := p.CreateBuffer(10, 1)
	p.DrawText(next, 0, 0, "hi", cellbuf.RGB(255, 0, 0), cellbuf.Default, 0)

	n, err := p.DiffFlush(prev, next, false)
	if err != nil {
		t.Fatalf("diff flush: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected nonzero bytes for a changed buffer")
	}
}

func TestPureGoDestroyBufferRemovesHandle(t *testing.T) {
	p := NewPureGo()
	b := p.CreateBuffer(5, 5)
	p.DestroyBuffer(b)
	if p.buf(b) != nil {
		t.Fatalf("expected the handle to be gone after destroy")
	}
}

func TestPureGoBlitCopiesCells(t *testing.T) {
	p := NewPureGo()
	src := p.CreateBuffer(3, 1)
	dst := p.CreateBuffer(5, 1)
	p.DrawText(src, 0, 0, "ab", cellbuf.RGB(1, 2, 3), cellbuf.RGB(4, 5, 6), 0)

	p.Blit(dst, src, 1, 0)

	if got := p.buf(dst).Get(1, 0).Grapheme; got != "a" {
		t.Fatalf("expected blit to copy the source glyph, got %q", got)
	}
}

func TestPureGoHitGridRoundTrip(t *testing.T) {
	p := NewPureGo()
	p.HitClear(4, 2)
	p.HitAdd(1, 1, 7, 0)

	id, ok := p.HitQuery(1, 1)
	if !ok || id != 7 {
		t.Fatalf("expected id 7 at (1,1), got %d ok=%v", id, ok)
	}
	if _, ok := p.HitQuery(0, 0); ok {
		t.Fatalf("expected no hit at an unregistered cell")
	}
}
