package layout

import "math"

// flexNode is the concrete node FlexEngine hands back as a layout.Node.
type flexNode struct {
	style    Style
	parent   *flexNode
	children []*flexNode
	computed Rect
}

// FlexEngine is the in-tree default Engine implementation: a two-pass
// measure (fixed → auto → flex children, row/column direction,
// padding/border deduction) generalized to cover justify/align/wrap,
// absolute positioning, and percentage resolution against the parent
// content box.
type FlexEngine struct{}

// NewFlexEngine constructs the default layout engine.
func NewFlexEngine() *FlexEngine { return &FlexEngine{} }

func (e *FlexEngine) NewNode(parent Node) Node {
	var p *flexNode
	if parent != nil {
		p = parent.(*flexNode)
	}
	n := &flexNode{style: DefaultStyle(), parent: p}
	if p != nil {
		p.children = append(p.children, n)
	}
	return n
}

func (e *FlexEngine) Release(n Node) {
	fn := n.(*flexNode)
	if fn.parent == nil {
		return
	}
	siblings := fn.parent.children
	for i, c := range siblings {
		if c == fn {
			fn.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	fn.parent = nil
}

func (e *FlexEngine) SetStyle(n Node, style Style) {
	n.(*flexNode).style = style
}

func (e *FlexEngine) Compute(n Node, availableW, availableH int) {
	root := n.(*flexNode)
	w := resolveAxis(root.style.Width, availableW, availableW)
	h := resolveAxis(root.style.Height, availableH, availableH)
	w = clampMinMax(w, root.style.MinWidth, root.style.MaxWidth, availableW)
	h = clampMinMax(h, root.style.MinHeight, root.style.MaxHeight, availableH)
	root.computed = Rect{0, 0, w, h}
	layoutChildren(root)
}

func (e *FlexEngine) Read(n Node) Rect {
	return n.(*flexNode).computed
}

// resolveAxis turns a Value into cell units given the parent's content
// size for that axis; Auto falls back to fallback (the available space
// for a root, or the measured content size for a leaf).
func resolveAxis(v Value, parentSize, fallback int) int {
	switch v.Type {
	case UnitCells:
		return roundHalfEven(v.N)
	case UnitPercent:
		return roundHalfEven(float64(parentSize) * v.N / 100)
	default:
		return fallback
	}
}

// roundHalfEven rounds ties toward the even integer; callers always pass
// non-negative cell coordinates, which keeps the top-left bias stable.
func roundHalfEven(v float64) int {
	floor := math.Floor(v)
	diff := v - floor
	switch {
	case diff < 0.5:
		return int(floor)
	case diff > 0.5:
		return int(floor) + 1
	default:
		if int64(floor)%2 == 0 {
			return int(floor)
		}
		return int(floor) + 1
	}
}

func resolveEdge(v Value, basis int) int {
	return resolveAxis(v, basis, 0)
}

// clampMinMax enforces a style's min/max bounds for one axis against the
// parent size used to resolve percentages, per the adapter's "min/max
// bounds" style property.
func clampMinMax(v int, min, max Value, parentSize int) int {
	if min.Type != UnitAuto {
		if lo := resolveAxis(min, parentSize, 0); v < lo {
			v = lo
		}
	}
	if max.Type != UnitAuto {
		if hi := resolveAxis(max, parentSize, v); v > hi {
			v = hi
		}
	}
	return v
}

func paddingOf(s Style, contentW, contentH int) (top, right, bottom, left int) {
	return resolveEdge(s.PaddingTop, contentH), resolveEdge(s.PaddingRight, contentW),
		resolveEdge(s.PaddingBottom, contentH), resolveEdge(s.PaddingLeft, contentW)
}

func marginOf(s Style, parentW, parentH int) (top, right, bottom, left int) {
	return resolveEdge(s.MarginTop, parentH), resolveEdge(s.MarginRight, parentW),
		resolveEdge(s.MarginBottom, parentH), resolveEdge(s.MarginLeft, parentW)
}

// layoutChildren positions n's children within n's already-computed
// content box.
func layoutChildren(n *flexNode) {
	pt, pr, pb, pl := paddingOf(n.style, n.computed.W, n.computed.H)
	contentX := n.computed.X + pl
	contentY := n.computed.Y + pt
	contentW := max0(n.computed.W - pl - pr)
	contentH := max0(n.computed.H - pt - pb)

	var flow, absolute []*flexNode
	for _, c := range n.children {
		if c.style.Position == PositionAbsolute {
			absolute = append(absolute, c)
		} else {
			flow = append(flow, c)
		}
	}

	lines := buildLines(n.style, flow, contentW, contentH)
	placeLines(n.style, lines, contentX, contentY, contentW, contentH)

	for _, c := range flow {
		layoutChildren(c)
	}

	// Absolute children render after flow children at the same z-index
	// and never influence sibling flow; they resolve
	// against the parent's content box directly.
	for _, c := range absolute {
		resolveAbsolute(c, contentX, contentY, contentW, contentH)
		layoutChildren(c)
	}
}

type flexLine struct {
	items      []*flexNode
	mainLen    []int // basis+flex resolved main-axis size per item
	crossLen   []int
	mainMargin []int // total main-axis margin per item
	mainOff    []int // leading main-axis margin per item
	crossOff   []int // leading cross-axis margin per item
	mainSum    int
	crossMax   int
}

// buildLines partitions flow children into wrap lines (a single line when
// Wrap is NoWrap) and resolves each child's basis size along the main
// axis.
func buildLines(s Style, flow []*flexNode, contentW, contentH int) []flexLine {
	mainSize := contentW
	if s.Direction == Column {
		mainSize = contentH
	}
	gap := resolveEdge(s.Gap, mainSize)

	var lines []flexLine
	cur := flexLine{}
	curMain := 0

	for _, c := range flow {
		basis := resolveBasis(c.style, s.Direction, contentW, contentH)
		cross := resolveCross(c.style, s.Direction, contentW, contentH)
		if s.Direction == Row {
			basis = clampMinMax(basis, c.style.MinWidth, c.style.MaxWidth, contentW)
			cross = clampMinMax(cross, c.style.MinHeight, c.style.MaxHeight, contentH)
		} else {
			basis = clampMinMax(basis, c.style.MinHeight, c.style.MaxHeight, contentH)
			cross = clampMinMax(cross, c.style.MinWidth, c.style.MaxWidth, contentW)
		}
		mt, mr, mb, ml := marginOf(c.style, contentW, contentH)
		mainMargin, mainLead, crossMargin, crossLead := ml+mr, ml, mt+mb, mt
		if s.Direction == Column {
			mainMargin, mainLead, crossMargin, crossLead = mt+mb, mt, ml+mr, ml
		}
		addGap := 0
		if len(cur.items) > 0 {
			addGap = gap
		}
		if s.Wrap == WrapLine && len(cur.items) > 0 && curMain+addGap+basis+mainMargin > mainSize {
			cur.mainSum = curMain
			lines = append(lines, cur)
			cur = flexLine{}
			curMain = 0
			addGap = 0
		}
		cur.items = append(cur.items, c)
		cur.mainLen = append(cur.mainLen, basis)
		cur.crossLen = append(cur.crossLen, cross)
		cur.mainMargin = append(cur.mainMargin, mainMargin)
		cur.mainOff = append(cur.mainOff, mainLead)
		cur.crossOff = append(cur.crossOff, crossLead)
		curMain += addGap + basis + mainMargin
		if cross+crossMargin > cur.crossMax {
			cur.crossMax = cross + crossMargin
		}
	}
	if len(cur.items) > 0 {
		cur.mainSum = curMain
		lines = append(lines, cur)
	}

	// Distribute flex grow/shrink within each line against the line's
	// available main-axis space.
	for li := range lines {
		distributeFlex(s, &lines[li], mainSize, gap)
	}
	return lines
}

func resolveBasis(s Style, dir Direction, contentW, contentH int) int {
	if s.Basis.Type != UnitAuto {
		parent := contentW
		if dir == Column {
			parent = contentH
		}
		return resolveAxis(s.Basis, parent, 0)
	}
	if dir == Row {
		return resolveAxis(s.Width, contentW, measureLeaf(s, contentW, contentH).W)
	}
	return resolveAxis(s.Height, contentH, measureLeaf(s, contentW, contentH).H)
}

func resolveCross(s Style, dir Direction, contentW, contentH int) int {
	if dir == Row {
		return resolveAxis(s.Height, contentH, measureLeaf(s, contentW, contentH).H)
	}
	return resolveAxis(s.Width, contentW, measureLeaf(s, contentW, contentH).W)
}

// measureLeaf gives an auto-sized node's fallback box, which is always
// zero: a node's children are not summed and its content is not
// measured, so an auto-sized node gets a size only from flex grow,
// stretch alignment or min bounds.
func measureLeaf(s Style, contentW, contentH int) Rect {
	return Rect{W: 0, H: 0}
}

func distributeFlex(s Style, line *flexLine, mainSize, gap int) {
	remaining := mainSize - line.mainSum

	if remaining > 0 {
		var totalGrow float64
		for _, c := range line.items {
			totalGrow += c.style.GrowFactor
		}
		if totalGrow > 0 {
			for i, c := range line.items {
				share := float64(remaining) * c.style.GrowFactor / totalGrow
				line.mainLen[i] += roundHalfEven(share)
			}
		}
	} else if remaining < 0 {
		var totalShrink float64
		for i, c := range line.items {
			totalShrink += c.style.ShrinkFactor * float64(line.mainLen[i])
		}
		if totalShrink > 0 {
			deficit := float64(-remaining)
			for i, c := range line.items {
				weight := c.style.ShrinkFactor * float64(line.mainLen[i])
				shrink := roundHalfEven(deficit * weight / totalShrink)
				line.mainLen[i] = max0(line.mainLen[i] - shrink)
			}
		}
	}

	line.mainSum = 0
	for i, m := range line.mainLen {
		line.mainSum += m + line.mainMargin[i]
	}
	if len(line.items) > 1 {
		line.mainSum += gap * (len(line.items) - 1)
	}
}

// placeLines positions each line's items along main/cross axes per
// Justify/Align, and stacks lines along the cross axis.
func placeLines(s Style, lines []flexLine, x, y, contentW, contentH int) {
	mainSize, crossSize := contentW, contentH
	if s.Direction == Column {
		mainSize, crossSize = contentH, contentW
	}
	gap := resolveEdge(s.Gap, mainSize)

	crossCursor := 0
	for _, line := range lines {
		mainCursor, mainGap := justifyOffsets(s.Justify, mainSize, line.mainSum, len(line.items), gap)
		for i, c := range line.items {
			mainLen := line.mainLen[i]
			crossLen := line.crossLen[i]
			if s.Align == AlignStretch && crossLen == 0 {
				crossLen = crossSize - crossCursor
			}
			crossOff := alignOffset(s.Align, crossSize-crossCursor, crossLen) + line.crossOff[i]
			mainStart := mainCursor + line.mainOff[i]

			var rx, ry, rw, rh int
			if s.Direction == Row {
				rx, ry = x+mainStart, y+crossCursor+crossOff
				rw, rh = mainLen, crossLen
			} else {
				rx, ry = x+crossCursor+crossOff, y+mainStart
				rw, rh = crossLen, mainLen
			}
			c.computed = Rect{rx, ry, rw, rh}
			mainCursor += mainLen + line.mainMargin[i] + mainGap
		}
		crossCursor += line.crossMax + resolveEdge(s.Gap, crossSize)
	}
}

func justifyOffsets(j Justify, mainSize, used, n int, gap int) (start, between int) {
	free := mainSize - used
	if n <= 0 {
		return 0, gap
	}
	switch j {
	case JustifyEnd:
		return max0(free), gap
	case JustifyCenter:
		return max0(free) / 2, gap
	case JustifySpaceBetween:
		if n <= 1 {
			return 0, gap
		}
		return 0, gap + free/(n-1)
	case JustifySpaceAround:
		unit := 0
		if n > 0 {
			unit = free / n
		}
		return unit / 2, gap + unit
	default:
		return 0, gap
	}
}

func alignOffset(a Align, freeCross, itemCross int) int {
	free := freeCross - itemCross
	switch a {
	case AlignEnd:
		return max0(free)
	case AlignCenter:
		return max0(free) / 2
	default:
		return 0
	}
}

func resolveAbsolute(c *flexNode, contentX, contentY, contentW, contentH int) {
	w := resolveAxis(c.style.Width, contentW, 0)
	h := resolveAxis(c.style.Height, contentH, 0)
	w = clampMinMax(w, c.style.MinWidth, c.style.MaxWidth, contentW)
	h = clampMinMax(h, c.style.MinHeight, c.style.MaxHeight, contentH)
	x := contentX
	y := contentY
	if c.style.HasLeft {
		x = contentX + resolveEdge(c.style.Left, contentW)
	} else if c.style.HasRight {
		x = contentX + contentW - resolveEdge(c.style.Right, contentW) - w
	}
	if c.style.HasTop {
		y = contentY + resolveEdge(c.style.Top, contentH)
	} else if c.style.HasBottom {
		y = contentY + contentH - resolveEdge(c.style.Bottom, contentH) - h
	}
	c.computed = Rect{x, y, w, h}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
