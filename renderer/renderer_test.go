package renderer

import (
	"bufio"
	"testing"

	"cellscape/cellbuf"
	"cellscape/config"
	"cellscape/hitgrid"
	"cellscape/layout"
	"cellscape/scene"
)

// newTestRenderer builds a Renderer with its buffers wired up directly,
// bypassing Start (which needs a real terminal fd).
func newTestRenderer(w, h int) *Renderer {
	tree := scene.NewTree(nil)
	r := New(config.Default(), tree)
	r.next = cellbuf.New(w, h)
	r.prev = cellbuf.New(w, h)
	r.hit = hitgrid.New(w, h)
	r.tree.Compute(w, h)
	r.sink = bufio.NewWriterSize(discard{}, 4096)
	return r
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestRenderOnceAdvancesFrameCountAndSwapsBuffers(t *testing.T) {
	r := newTestRenderer(10, 3)
	n := r.tree.NewNode(nil, "a")
	n.SetStyle(layout.Style{Width: layout.Cells(10), Height: layout.Cells(3)})
	n.Render = func(ctx *scene.RenderContext, buf *cellbuf.Buffer) {
		buf.DrawText(0, 0, "hi", cellbuf.RGB(255, 0, 0), cellbuf.Default, 0)
	}
	n.MarkDirty()

	r.renderOnce(true)

	if r.Stats().FrameCount != 1 {
		t.Fatalf("expected frame count 1, got %d", r.Stats().FrameCount)
	}
	if r.Stats().LastBytes == 0 {
		t.Fatalf("expected nonzero bytes written for a dirty frame")
	}
	// After the swap, prev must reflect what was just drawn.
	c := r.prev.Get(0, 0)
	if c.Grapheme != "h" {
		t.Fatalf("expected prev buffer to carry the drawn glyph, got %q", c.Grapheme)
	}
}

func TestRenderOnceRunsPostProcessFiltersBeforeDiff(t *testing.T) {
	r := newTestRenderer(5, 1)
	var sawWidth int
	r.UsePostProcess(func(buf *cellbuf.Buffer) { sawWidth = buf.Width })

	r.renderOnce(true)

	if sawWidth != 5 {
		t.Fatalf("expected post-process filter to see width 5, got %d", sawWidth)
	}
}

func TestRequestRenderSetsDirtyWithoutForce(t *testing.T) {
	r := newTestRenderer(4, 4)
	r.RequestRender()
	r.mu.Lock()
	dirty, force := r.dirty, r.forceNext
	r.mu.Unlock()
	if !dirty || force {
		t.Fatalf("expected dirty=true force=false, got dirty=%v force=%v", dirty, force)
	}
}

func TestForceRenderSetsBothFlags(t *testing.T) {
	r := newTestRenderer(4, 4)
	r.ForceRender()
	r.mu.Lock()
	dirty, force := r.dirty, r.forceNext
	r.mu.Unlock()
	if !dirty || !force {
		t.Fatalf("expected dirty=true force=true, got dirty=%v force=%v", dirty, force)
	}
}

func TestApplyPendingResizeGrowsAllBuffers(t *testing.T) {
	r := newTestRenderer(4, 4)
	r.handleResize(10, 6)
	r.applyPendingResize()

	if r.next.Width != 10 || r.next.Height != 6 {
		t.Fatalf("expected next resized to 10x6, got %dx%d", r.next.Width, r.next.Height)
	}
	if r.hit.Width != 10 || r.hit.Height != 6 {
		t.Fatalf("expected hit grid resized to 10x6, got %dx%d", r.hit.Width, r.hit.Height)
	}
	r.mu.Lock()
	force := r.forceNext
	r.mu.Unlock()
	if !force {
		t.Fatalf("expected a resize to force the next frame")
	}
}

func TestApplyPendingResizeToZeroKeepsBuffers(t *testing.T) {
	r := newTestRenderer(4, 4)
	r.handleResize(0, 6)
	r.applyPendingResize()

	if r.next.Width != 4 {
		t.Fatalf("expected zero-dimension resize to leave buffers untouched, got width %d", r.next.Width)
	}
}

func TestCopyBufferMatchesSourceContents(t *testing.T) {
	src := cellbuf.New(3, 2)
	src.DrawText(0, 0, "x", cellbuf.RGB(1, 2, 3), cellbuf.Default, 0)
	dst := cellbuf.New(3, 2)

	copyBuffer(dst, src)

	if dst.Get(0, 0).Grapheme != "x" {
		t.Fatalf("expected copied buffer to carry source contents")
	}
}

func TestNewAppliesConfigDefaults(t *testing.T) {
	r := New(config.Default(), nil)
	if r.opts.TargetFPS != 60 {
		t.Fatalf("expected default 60fps, got %d", r.opts.TargetFPS)
	}
	if r.tree == nil || r.rt == nil {
		t.Fatalf("expected New to build a default tree and router when tree is nil")
	}
}

