// Package scene implements the renderable tree: capability-based nodes
// (no inheritance — a Node is whatever callbacks it sets), z-ordered
// traversal, dirty-flag invalidation and attach/detach/destroy lifecycle.
// Rather than a one-off walk over a fixed document tree (a markdown
// AST, say), this is a general scene graph driven by the layout package
// for geometry and the hitgrid package for mouse dispatch.
package scene

import (
	"cellscape/cellbuf"
	"cellscape/hitgrid"
	"cellscape/input"
	"cellscape/layout"

	"github.com/google/btree"
)

// RenderContext is handed to a Node's Render callback: the destination
// buffer's matching absolute rect, a delta time for animation, and the
// frame's hit grid to register mouse-reachable cells into.
type RenderContext struct {
	Rect       layout.Rect
	ParentRect layout.Rect
	DT         float64
	Hit        *hitgrid.Grid
	Frame      uint64

	// RequestFrame schedules another frame without forcing one mid-
	// cycle; wired to the renderer's request_render by the frame loop.
	RequestFrame func()
}

// Overflow controls whether a node clips its subtree to its own rect
// during composition. Hidden and Scroll open a scissor rect; Visible
// lets children draw past the box.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// Node is one entry in the scene graph. Every behavior is an optional
// callback; a Node with only Render set is a pure drawable, one with
// only OnMouse set is an invisible hit target, and so on — there is no
// base class to inherit from.
type Node struct {
	id    string
	tree  *Tree
	seq   uint64
	z     int
	zItem zItem

	parent   *Node
	children []*Node

	layoutNode layout.Node

	visible   bool
	focusable bool
	destroyed bool
	overflow  Overflow
	lastRect  layout.Rect

	dirtySelf, dirtyChildren, dirtyLayout bool

	Render      func(ctx *RenderContext, buf *cellbuf.Buffer)
	OnMouse     func(n *Node, ev input.MouseEvent) (stopPropagation bool)
	OnKey       func(n *Node, ev input.KeyEvent) (stopPropagation bool)
	OnPaste     func(n *Node, ev input.PasteEvent) (stopPropagation bool)
	OnFocus     func(n *Node)
	OnBlur      func(n *Node)
	OnResize    func(n *Node, w, h int)
	OnAttach    func(n *Node)
	OnDetach    func(n *Node)
	OnLifecycle func(n *Node)
}

// ID returns the node's stable identifier, as registered into the hit
// grid and reported by focus/blur callbacks.
func (n *Node) ID() string { return n.id }

// Z returns the node's current z-index among its siblings.
func (n *Node) Z() int { return n.z }

// Parent returns the owning node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in insertion (document) order —
// the order layout and tab traversal use. Render order is separate; see
// Tree.RenderOrder.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Visible reports whether the node (and therefore its subtree) takes
// part in rendering and hit-testing this frame.
func (n *Node) Visible() bool { return n.visible }

// SetVisible toggles the node's participation in render/hit-test and
// marks it dirty.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.markDirtySelf()
}

// Overflow reports the node's clipping mode.
func (n *Node) Overflow() Overflow { return n.overflow }

// SetOverflow switches the node's clipping mode; Hidden and Scroll make
// composition open a scissor rect over the node's box.
func (n *Node) SetOverflow(o Overflow) {
	if n.overflow == o {
		return
	}
	n.overflow = o
	n.markDirtySelf()
}

// Focusable reports whether the node participates in tab traversal and
// can receive keyboard focus.
func (n *Node) Focusable() bool { return n.focusable }

// SetFocusable toggles tab-traversal eligibility.
func (n *Node) SetFocusable(f bool) { n.focusable = f }

// LayoutNode exposes the node's handle into the active layout.Engine, so
// callers can call engine.SetStyle(n.LayoutNode(), ...) directly.
func (n *Node) LayoutNode() layout.Node { return n.layoutNode }

// Rect returns the node's absolute computed rect, read from the tree's
// layout engine.
func (n *Node) Rect() layout.Rect {
	return n.tree.engine.Read(n.layoutNode)
}

func (n *Node) markDirtySelf() {
	n.dirtySelf = true
	n.bubbleDirtyChildren()
}

func (n *Node) bubbleDirtyChildren() {
	for p := n.parent; p != nil; p = p.parent {
		if p.dirtyChildren {
			return
		}
		p.dirtyChildren = true
	}
}

// MarkDirty flags the node for redraw next frame.
func (n *Node) MarkDirty() { n.markDirtySelf() }

// MarkLayoutDirty flags the node's subtree as needing a fresh layout
// pass (called after SetStyle on its layout node).
func (n *Node) MarkLayoutDirty() {
	n.dirtyLayout = true
	n.tree.needsLayout = true
	n.bubbleDirtyChildren()
}

// SetStyle applies a layout style through the tree's engine and marks
// the node layout-dirty, so the next frame recomputes before composing.
func (n *Node) SetStyle(style layout.Style) {
	n.tree.engine.SetStyle(n.layoutNode, style)
	abs := style.Position == layout.PositionAbsolute
	if abs != n.zItem.abs {
		if n.parent != nil {
			bt := n.tree.zOf(n.parent)
			bt.Delete(n.zItem)
			n.zItem.abs = abs
			bt.ReplaceOrInsert(n.zItem)
		} else {
			n.zItem.abs = abs
		}
	}
	n.MarkLayoutDirty()
}

// Dirty reports whether the node itself needs redraw this frame.
func (n *Node) Dirty() bool { return n.dirtySelf || n.dirtyLayout }

// clearDirty resets this node's own flags after it has been rendered;
// dirtyChildren is cleared by the tree walk once every child is visited.
func (n *Node) clearDirty() {
	n.dirtySelf = false
	n.dirtyLayout = false
}

// zItem is the btree element ordering siblings by (z, flow-before-
// absolute, insertion sequence) — equal z-index renders in the order
// nodes were attached, with absolute-positioned siblings after flow
// siblings so overlays land on top, per the hit grid's "ties go to the
// later writer" rule operating on a stable base ordering.
type zItem struct {
	z   int
	abs bool
	seq uint64
	n   *Node
}

func lessZ(a, b zItem) bool {
	if a.z != b.z {
		return a.z < b.z
	}
	if a.abs != b.abs {
		return !a.abs
	}
	return a.seq < b.seq
}

// Tree owns the whole scene graph: the root node, the shared layout
// engine, and per-node z-order indices keyed by parent.
type Tree struct {
	root   *Node
	engine layout.Engine
	nextID uint64

	zIndex map[*Node]*btree.BTreeG[zItem] // keyed by parent; nil key = root's siblings (unused)
	focus  *Node

	needsLayout bool

	// RequestFrame, when set by the renderer, is handed to every
	// RenderContext so widgets can ask for a next-frame update.
	RequestFrame func()
}

// NewTree creates a tree with a root node sized by the caller's layout
// engine (FlexEngine if engine is nil).
func NewTree(engine layout.Engine) *Tree {
	if engine == nil {
		engine = layout.NewFlexEngine()
	}
	t := &Tree{engine: engine, zIndex: map[*Node]*btree.BTreeG[zItem]{}}
	root := &Node{tree: t, id: "root", visible: true}
	root.layoutNode = engine.NewNode(nil)
	t.root = root
	return t
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// NewNode allocates a node as a child of parent (the root if parent is
// nil) with a fresh layout node. A new node has no OnAttach callback yet,
// so none fires here; OnAttach fires on a later Attach.
func (t *Tree) NewNode(parent *Node, id string) *Node {
	if parent == nil {
		parent = t.root
	}
	t.nextID++
	n := &Node{
		tree:       t,
		id:         id,
		seq:        t.nextID,
		parent:     parent,
		visible:    true,
		layoutNode: t.engine.NewNode(parent.layoutNode),
	}
	parent.children = append(parent.children, n)
	n.z = 0
	n.zItem = zItem{z: 0, seq: n.seq, n: n}
	t.zOf(parent).ReplaceOrInsert(n.zItem)
	parent.markDirtySelf()
	t.needsLayout = true
	if n.OnAttach != nil {
		n.OnAttach(n)
	}
	return n
}

func (t *Tree) zOf(parent *Node) *btree.BTreeG[zItem] {
	bt, ok := t.zIndex[parent]
	if !ok {
		bt = btree.NewG(32, lessZ)
		t.zIndex[parent] = bt
	}
	return bt
}

// SetZ changes n's z-index among its siblings, re-indexing it into the
// parent's z-order btree.
func (t *Tree) SetZ(n *Node, z int) {
	if n.parent == nil || n.z == z {
		return
	}
	bt := t.zOf(n.parent)
	bt.Delete(n.zItem)
	n.z = z
	n.zItem = zItem{z: z, abs: n.zItem.abs, seq: n.seq, n: n}
	bt.ReplaceOrInsert(n.zItem)
	n.parent.markDirtySelf()
}

// Detach removes n from its parent's child list without destroying it;
// n can be reattached with Attach. Fires OnDetach.
func (t *Tree) Detach(n *Node) {
	if n.parent == nil {
		return
	}
	p := n.parent
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	t.zOf(p).Delete(n.zItem)
	p.markDirtySelf()
	t.needsLayout = true
	n.parent = nil
	if n.OnDetach != nil {
		n.OnDetach(n)
	}
}

// Attach reparents a previously detached node under parent. A destroyed
// node must not reappear: its layout node is already released, so
// attaching one is a no-op.
func (t *Tree) Attach(n *Node, parent *Node) {
	if n.destroyed || n.parent != nil {
		return
	}
	if parent == nil {
		parent = t.root
	}
	n.parent = parent
	parent.children = append(parent.children, n)
	t.zOf(parent).ReplaceOrInsert(n.zItem)
	parent.markDirtySelf()
	t.needsLayout = true
	if n.OnAttach != nil {
		n.OnAttach(n)
	}
}

// Destroy detaches n, releases its children recursively and its layout
// engine resources, and clears it from focus if focused.
func (t *Tree) Destroy(n *Node) {
	if n.destroyed {
		return
	}
	for _, c := range append([]*Node(nil), n.children...) {
		t.Destroy(c)
	}
	if n.parent != nil {
		t.Detach(n)
	}
	if t.focus == n {
		t.focus = nil
	}
	delete(t.zIndex, n)
	t.engine.Release(n.layoutNode)
	n.destroyed = true
}

// RenderOrder returns n's children sorted by (z, flow before absolute,
// insertion sequence), ascending — the order Draw composes them in so a
// later z wins overlapping cells.
func (t *Tree) RenderOrder(n *Node) []*Node {
	bt, ok := t.zIndex[n]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, bt.Len())
	bt.Ascend(func(item zItem) bool {
		out = append(out, item.n)
		return true
	})
	return out
}

// TabOrder returns every focusable node in the tree in document
// (insertion) order, depth-first — independent of z-index, per the
// router's tab-traversal contract.
func (t *Tree) TabOrder() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.focusable && n.visible {
			out = append(out, n)
		}
		for _, c := range n.children {
			if c.visible {
				walk(c)
			}
		}
	}
	walk(t.root)
	return out
}

// DocumentOrder returns every node in depth-first pre-order regardless
// of visibility or focusability. The router uses it to resume tab
// traversal from a node that has since been hidden, which TabOrder no
// longer contains.
func (t *Tree) DocumentOrder() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// NeedsLayout reports whether any mutation since the last Compute
// invalidated layout.
func (t *Tree) NeedsLayout() bool { return t.needsLayout }

// RunLifecycle fires OnLifecycle over the visible tree, letting nodes
// commit buffer rewrites streamed in between frames before layout and
// composition run.
func (t *Tree) RunLifecycle() {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.visible {
			return
		}
		if n.OnLifecycle != nil {
			n.OnLifecycle(n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
}

// Focus returns the currently focused node, or nil.
func (t *Tree) Focus() *Node { return t.focus }

// SetFocus moves focus to n, firing OnBlur on the previous holder and
// OnFocus on n. Passing nil clears focus.
func (t *Tree) SetFocus(n *Node) {
	if t.focus == n {
		return
	}
	prev := t.focus
	t.focus = n
	if prev != nil && prev.OnBlur != nil {
		prev.OnBlur(prev)
	}
	if n != nil && n.OnFocus != nil {
		n.OnFocus(n)
	}
}
