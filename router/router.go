// Package router implements the focus and event router: bubbling
// mouse dispatch through the hit grid, independent drag tracking, focus-
// chain keyboard dispatch, and document-order tab traversal. Rather
// than calling a single widget's OnKey directly, it bubbles events
// through an arbitrary tree with no capture phase.
package router

import (
	"cellscape/hitgrid"
	"cellscape/input"
	"cellscape/scene"
)

// Router owns per-frame mouse state (the active drag, the previous
// frame's hit id per cell) so it can synthesize over/out and keep a drag
// bound to its originating node independent of the hit grid.
type Router struct {
	tree *scene.Tree

	dragNode   *scene.Node
	dragButton input.MouseButton

	prevHit map[[2]int]string
}

// New returns a router dispatching into tree.
func New(tree *scene.Tree) *Router {
	return &Router{tree: tree, prevHit: map[[2]int]string{}}
}

// DispatchMouse resolves ev against hit, then bubbles it from the hit
// node up to the root, stopping at the first handler that returns true.
// A down starts a drag that subsequent drag events stay bound to even
// after the pointer leaves the node's rect.
func (r *Router) DispatchMouse(ev input.MouseEvent, hit *hitgrid.Grid) {
	cell := [2]int{ev.X, ev.Y}
	id, ok := hit.Query(ev.X, ev.Y)

	switch ev.Action {
	case input.MouseDown:
		// Wheel reports arrive as down events with no matching up; they
		// never start a drag.
		if ok && isDragButton(ev.Button) {
			if n := r.tree.ByID(id); n != nil && n.Visible() {
				r.dragNode = n
				r.dragButton = ev.Button
			}
		}
		r.bubble(id, ok, ev)
	case input.MouseDrag:
		if r.dragNode != nil {
			// The drag stays bound to its originating node; over/out for
			// whatever the pointer is now above are held back until
			// release, so we skip syncOverOut entirely here.
			r.deliver(r.dragNode, ev)
			return
		}
		r.bubble(id, ok, ev)
	case input.MouseUp, input.MouseDragEnd:
		if r.dragNode != nil {
			r.deliver(r.dragNode, ev)
			r.dragNode = nil
			break
		}
		r.bubble(id, ok, ev)
	default:
		r.bubble(id, ok, ev)
	}

	r.syncOverOut(cell, id, ok, ev)
}

// syncOverOut compares this cell's hit id against last frame's and
// synthesizes over/out on the ids that differ. During an
// active drag, over/out for the dragged node's former rect are
// suppressed until release.
func (r *Router) syncOverOut(cell [2]int, id string, ok bool, ev input.MouseEvent) {
	prev, hadPrev := r.prevHit[cell]
	if ok {
		r.prevHit[cell] = id
	} else {
		delete(r.prevHit, cell)
	}
	if !hadPrev && !ok {
		return
	}
	if prev == id {
		return
	}
	if r.dragNode != nil {
		return
	}
	if hadPrev {
		if n := r.tree.ByID(prev); n != nil && n.OnMouse != nil {
			n.OnMouse(n, input.MouseEvent{X: ev.X, Y: ev.Y, Action: input.MouseOut, Mods: ev.Mods})
		}
	}
	if ok {
		if n := r.tree.ByID(id); n != nil && n.OnMouse != nil {
			n.OnMouse(n, input.MouseEvent{X: ev.X, Y: ev.Y, Action: input.MouseOver, Mods: ev.Mods})
		}
	}
}

func isDragButton(b input.MouseButton) bool {
	return b == input.ButtonLeft || b == input.ButtonMiddle || b == input.ButtonRight
}

func (r *Router) bubble(id string, ok bool, ev input.MouseEvent) {
	if !ok {
		return
	}
	n := r.tree.ByID(id)
	if n == nil || !n.Visible() {
		return
	}
	r.deliver(n, ev)
}

// deliver walks from n up to the root, invoking OnMouse on every
// ancestor that has one, until a handler stops propagation.
func (r *Router) deliver(n *scene.Node, ev input.MouseEvent) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.OnMouse == nil {
			continue
		}
		if cur.OnMouse(cur, ev) {
			return
		}
	}
}

// DispatchKey offers ev to the focused node first, bubbling to the root
// if unhandled. Paste events follow the identical path via DispatchPaste.
func (r *Router) DispatchKey(ev input.KeyEvent) {
	focus := r.tree.Focus()
	if focus == nil {
		focus = r.tree.Root()
	}
	for cur := focus; cur != nil; cur = cur.Parent() {
		if cur.OnKey == nil {
			continue
		}
		if cur.OnKey(cur, ev) {
			return
		}
	}
}

// DispatchPaste offers a bracketed-paste event to the focus chain, the
// same path DispatchKey bubbles through.
func (r *Router) DispatchPaste(ev input.PasteEvent) {
	focus := r.tree.Focus()
	if focus == nil {
		focus = r.tree.Root()
	}
	for cur := focus; cur != nil; cur = cur.Parent() {
		if cur.OnPaste == nil {
			continue
		}
		if cur.OnPaste(cur, ev) {
			return
		}
	}
}

// Tab moves focus to the next focusable node in document order
// (depth-first pre-order over visible subtrees); Shift+Tab (reverse=true)
// moves to the previous one. Wraps around at either end. A focus holder
// that has since been hidden is no longer in the tab order itself, but
// traversal still resumes from its document position rather than
// restarting at the top.
func (r *Router) Tab(reverse bool) {
	order := r.tree.TabOrder()
	if len(order) == 0 {
		return
	}
	cur := r.tree.Focus()
	idx := -1
	for i, n := range order {
		if n == cur {
			idx = i
			break
		}
	}
	if idx < 0 && cur != nil {
		// Hidden (or no longer focusable) focus holder: locate the last
		// tab-order node preceding it in document order and continue
		// from there.
		doc := r.tree.DocumentOrder()
		pos := map[*scene.Node]int{}
		for i, n := range doc {
			pos[n] = i
		}
		if curPos, found := pos[cur]; found {
			before := -1
			for i, n := range order {
				if pos[n] < curPos {
					before = i
				}
			}
			if reverse {
				if before < 0 {
					before = len(order) - 1
				}
				r.tree.SetFocus(order[before])
			} else {
				r.tree.SetFocus(order[(before+1)%len(order)])
			}
			return
		}
	}
	var next int
	switch {
	case idx < 0:
		if reverse {
			next = len(order) - 1
		} else {
			next = 0
		}
	case reverse:
		next = (idx - 1 + len(order)) % len(order)
	default:
		next = (idx + 1) % len(order)
	}
	r.tree.SetFocus(order[next])
}

// DispatchFocus routes terminal-level focus gained/lost to the tree's root.
func (r *Router) DispatchFocus(ev input.FocusEvent) {
	root := r.tree.Root()
	if ev.Focused {
		if root.OnFocus != nil {
			root.OnFocus(root)
		}
	} else if root.OnBlur != nil {
		root.OnBlur(root)
	}
}
