package scene

import (
	"cellscape/cellbuf"
	"cellscape/hitgrid"
)

// Compute runs the tree's layout engine over the whole tree within the
// given viewport, then fires OnResize on every node whose rect changed
// since the last computed size.
func (t *Tree) Compute(width, height int) {
	t.engine.Compute(t.root.layoutNode, width, height)
	t.root.dirtyLayout = false
	t.needsLayout = false
	t.fireResizes(t.root)
}

func (t *Tree) fireResizes(n *Node) {
	rect := t.engine.Read(n.layoutNode)
	if rect.W != n.lastRect.W || rect.H != n.lastRect.H {
		if n.OnResize != nil {
			n.OnResize(n, rect.W, rect.H)
		}
		n.dirtySelf = true
	}
	n.lastRect = rect
	for _, c := range n.children {
		t.fireResizes(c)
	}
}

// Draw walks the tree in z-order and calls each visible node's Render
// callback with its absolute rect clipped into buf's scissor stack, and
// registers its rect into hit for mouse dispatch. Only nodes that are
// dirty, or whose ancestor chain is dirty, are visited when full is
// false — a full redraw always visits everything.
func (t *Tree) Draw(buf *cellbuf.Buffer, hit *hitgrid.Grid, dt float64, frame uint64, full bool) {
	t.drawNode(t.root, buf, hit, dt, frame, full)
}

func (t *Tree) drawNode(n *Node, buf *cellbuf.Buffer, hit *hitgrid.Grid, dt float64, frame uint64, full bool) {
	if !n.visible {
		return
	}
	rect := t.engine.Read(n.layoutNode)

	// A node with overflow hidden or scroll clips itself and its whole
	// subtree to its box; visible overflow draws unclipped.
	clips := n.overflow != OverflowVisible
	if clips {
		buf.PushScissor(rect.X, rect.Y, rect.W, rect.H)
	}

	if full || n.Dirty() {
		if n.Render != nil {
			ctx := &RenderContext{Rect: rect, DT: dt, Hit: hit, Frame: frame, RequestFrame: t.RequestFrame}
			if n.parent != nil {
				ctx.ParentRect = t.engine.Read(n.parent.layoutNode)
			}
			n.Render(ctx, buf)
		}
		if n.OnMouse != nil || n.OnKey != nil {
			hit.AddRect(rect.X, rect.Y, rect.W, rect.H, n.id, n.z)
		}
		n.clearDirty()
	} else if n.OnMouse != nil || n.OnKey != nil {
		// Not dirty, but still mouse-reachable: the hit grid is rebuilt
		// every frame regardless of dirty state since it has no memory
		// of its own.
		hit.AddRect(rect.X, rect.Y, rect.W, rect.H, n.id, n.z)
	}

	for _, c := range t.RenderOrder(n) {
		t.drawNode(c, buf, hit, dt, frame, full || n.dirtyChildren)
	}
	n.dirtyChildren = false

	if clips {
		buf.PopScissor()
	}
}

// ByID finds a node anywhere in the tree by id, depth-first. The router
// calls it to turn a hit-grid id into a node on every mouse event.
func (t *Tree) ByID(id string) *Node {
	var found *Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if found != nil {
			return
		}
		if n.id == id {
			found = n
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return found
}
