package scene

import (
	"testing"

	"cellscape/cellbuf"
	"cellscape/hitgrid"
	"cellscape/input"
	"cellscape/layout"
)

func TestNewNodeAttachesUnderParent(t *testing.T) {
	tr := NewTree(nil)
	child := tr.NewNode(nil, "child")
	if child.Parent() != tr.Root() {
		t.Fatalf("expected child's parent to be root")
	}
	if len(tr.Root().Children()) != 1 {
		t.Fatalf("expected root to have one child")
	}
}

func TestRenderOrderSortsByZThenInsertion(t *testing.T) {
	tr := NewTree(nil)
	a := tr.NewNode(nil, "a")
	b := tr.NewNode(nil, "b")
	c := tr.NewNode(nil, "c")
	tr.SetZ(a, 5)

	order := tr.RenderOrder(tr.Root())
	if len(order) != 3 || order[0] != b || order[1] != c || order[2] != a {
		t.Fatalf("expected [b, c, a] by (z, seq), got %v", idsOf(order))
	}
}

func idsOf(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

func TestDestroyRemovesFromParentAndClearsFocus(t *testing.T) {
	tr := NewTree(nil)
	a := tr.NewNode(nil, "a")
	a.SetFocusable(true)
	tr.SetFocus(a)

	tr.Destroy(a)

	if tr.Focus() != nil {
		t.Errorf("expected focus cleared after destroying the focused node")
	}
	if len(tr.Root().Children()) != 0 {
		t.Errorf("expected root to have no children after destroy")
	}
}

func TestTabOrderSkipsNonFocusableAndInvisible(t *testing.T) {
	tr := NewTree(nil)
	a := tr.NewNode(nil, "a")
	a.SetFocusable(true)
	b := tr.NewNode(nil, "b")
	b.SetFocusable(true)
	b.SetVisible(false)
	tr.NewNode(nil, "c") // not focusable

	order := tr.TabOrder()
	if len(order) != 1 || order[0] != a {
		t.Fatalf("expected only 'a' in tab order, got %v", idsOf(order))
	}
}

func TestAttachAfterDestroyIsNoop(t *testing.T) {
	tr := NewTree(nil)
	a := tr.NewNode(nil, "a")
	tr.Destroy(a)

	attached := false
	a.OnAttach = func(*Node) { attached = true }
	tr.Attach(a, nil)

	if attached {
		t.Errorf("a destroyed node must not fire OnAttach")
	}
	if len(tr.Root().Children()) != 0 {
		t.Errorf("a destroyed node must not reappear under a parent")
	}
	if a.Parent() != nil {
		t.Errorf("a destroyed node must stay detached")
	}
}

func TestOverflowHiddenClipsChildDraw(t *testing.T) {
	tr := NewTree(nil)
	parent := tr.NewNode(nil, "parent")
	parent.SetStyle(layout.Style{Width: layout.Cells(10), Height: layout.Cells(3)})
	parent.SetOverflow(OverflowHidden)
	child := tr.NewNode(parent, "child")
	child.SetStyle(layout.Style{Width: layout.Cells(10), Height: layout.Cells(1)})
	child.Render = func(ctx *RenderContext, buf *cellbuf.Buffer) {
		buf.DrawText(0, 0, "0123456789ABCDEF", cellbuf.Default, cellbuf.Default, 0)
	}

	tr.Compute(20, 3)
	buf := cellbuf.New(20, 3)
	hit := hitgrid.New(20, 3)
	tr.Draw(buf, hit, 0, 1, true)

	for x := 0; x < 10; x++ {
		want := string(rune('0' + x))
		if got := buf.Get(x, 0).Grapheme; got != want {
			t.Errorf("x=%d: got %q want %q", x, got, want)
		}
	}
	for x := 10; x < 20; x++ {
		if buf.Get(x, 0).Grapheme != " " {
			t.Errorf("x=%d: expected the scissor to discard the write, got %q", x, buf.Get(x, 0).Grapheme)
		}
	}
}

func TestRunLifecycleVisitsVisibleNodesOnly(t *testing.T) {
	tr := NewTree(nil)
	var visited []string
	mk := func(id string) *Node {
		n := tr.NewNode(nil, id)
		n.OnLifecycle = func(n *Node) { visited = append(visited, n.ID()) }
		return n
	}
	mk("a")
	hidden := mk("b")
	hidden.SetVisible(false)

	tr.RunLifecycle()
	if len(visited) != 1 || visited[0] != "a" {
		t.Fatalf("expected lifecycle to visit only visible nodes, got %v", visited)
	}
}

func TestDrawRegistersHitGridAndClearsDirty(t *testing.T) {
	tr := NewTree(nil)
	engine := tr.engine
	engine.SetStyle(tr.Root().LayoutNode(), layout.Style{Width: layout.Cells(10), Height: layout.Cells(5)})
	a := tr.NewNode(nil, "a")
	engine.SetStyle(a.LayoutNode(), layout.Style{Width: layout.Cells(4), Height: layout.Cells(2)})
	a.OnMouse = func(n *Node, _ input.MouseEvent) bool { return false }
	a.Render = func(ctx *RenderContext, buf *cellbuf.Buffer) {
		buf.DrawText(ctx.Rect.X, ctx.Rect.Y, "hi", cellbuf.Default, cellbuf.Default, 0)
	}

	tr.Compute(10, 5)
	buf := cellbuf.New(10, 5)
	hit := hitgrid.New(10, 5)
	tr.Draw(buf, hit, 0, 1, true)

	if a.Dirty() {
		t.Errorf("node should no longer be dirty after a full draw")
	}
	if id, ok := hit.Query(0, 0); !ok || id != "a" {
		t.Errorf("expected hit grid to resolve (0,0) to node 'a', got %q, %v", id, ok)
	}
}
