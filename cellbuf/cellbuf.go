package cellbuf

// Attr is a bitmask of independent cell attributes. Rather than a
// struct of separate style booleans merged field by field, it packs
// into a single bit set so a Cell stays a small, copyable value.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrHidden
	AttrStrikethrough
)

// Cell is one character position: a grapheme cluster, its colors and
// attributes, and whether it is the continuation half of a wide grapheme.
type Cell struct {
	Grapheme     string
	Fg           Color
	Bg           Color
	Attr         Attr
	Continuation bool
}

// Opaque reports whether both fg and bg are fully opaque.
func (c Cell) Opaque() bool {
	return c.Fg[3] >= 1 && c.Bg[3] >= 1
}

// blank is the cell resize/clear exposes for newly exposed or cleared area:
// a single space, default fg/bg, no attributes.
func blank(bg Color) Cell {
	return Cell{Grapheme: " ", Fg: Default, Bg: bg}
}

type rect struct{ x, y, w, h int }

func (r rect) right() int  { return r.x + r.w }
func (r rect) bottom() int { return r.y + r.h }

func (r rect) intersect(o rect) rect {
	x0 := max(r.x, o.x)
	y0 := max(r.y, o.y)
	x1 := min(r.right(), o.right())
	y1 := min(r.bottom(), o.bottom())
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return rect{x0, y0, x1 - x0, y1 - y0}
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.right() && y >= r.y && y < r.bottom()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Buffer is a width x height grid of cells plus a LIFO scissor stack, per
// Cell Buffer invariants.
type Buffer struct {
	Width, Height int
	Cells         []Cell

	// RespectAlpha toggles whether writes alpha-composite (true) or
	// replace outright (false); the renderer sets this
	// respect_alpha option.
	RespectAlpha bool

	scissors []rect // scissors[0] is always the full buffer rect
}

// New creates a width x height buffer, fully cleared to (space, default
// fg, default bg, 0), with the scissor stack holding only the root rect.
func New(width, height int) *Buffer {
	b := &Buffer{Width: width, Height: height}
	b.Cells = make([]Cell, width*height)
	b.resetScissors()
	b.clearCells(Default)
	return b
}

func (b *Buffer) resetScissors() {
	b.scissors = []rect{{0, 0, b.Width, b.Height}}
}

// index returns the linear index for (x,y), and whether it is in bounds.
func (b *Buffer) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0, false
	}
	return y*b.Width + x, true
}

// top is the active (innermost) scissor rect.
func (b *Buffer) top() rect {
	return b.scissors[len(b.scissors)-1]
}

// PushScissor intersects (x,y,w,h) with the current top rect and pushes
// the result.
func (b *Buffer) PushScissor(x, y, w, h int) {
	b.scissors = append(b.scissors, b.top().intersect(rect{x, y, w, h}))
}

// PopScissor pops one scissor level. Popping below the root rect is a
// no-op, preserving the "never empty below the root rect" invariant.
func (b *Buffer) PopScissor() {
	if len(b.scissors) > 1 {
		b.scissors = b.scissors[:len(b.scissors)-1]
	}
}

// ClearScissor resets the stack to just the buffer's full rect.
func (b *Buffer) ClearScissor() {
	b.resetScissors()
}

func (b *Buffer) clip(x, y int) bool {
	return b.top().contains(x, y)
}

// Get returns the cell at (x,y), or the zero Cell out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	i, ok := b.index(x, y)
	if !ok {
		return Cell{}
	}
	return b.Cells[i]
}

// rawSet writes a cell ignoring the scissor rect; callers clip first.
func (b *Buffer) rawSet(x, y int, c Cell) {
	i, ok := b.index(x, y)
	if !ok {
		return
	}
	b.Cells[i] = c
}

// resetContinuationLeft restores the left half of a wide grapheme to a
// plain space with its previous style when something writes into what was
// its continuation cell edge policy.
func (b *Buffer) resetContinuationLeft(x, y int) {
	if x <= 0 {
		return
	}
	left := b.Get(x-1, y)
	if left.Grapheme == "" {
		return
	}
	left.Grapheme = " "
	b.rawSet(x-1, y, left)
}

// SetCell writes one cell; if grapheme is wide (per cellbuf.RuneWidth on
// its first rune) it also writes a continuation cell at (x+1). Clipped
// against the scissor top.
func (b *Buffer) SetCell(x, y int, grapheme string, fg, bg Color, attr Attr) {
	if !b.clip(x, y) {
		return
	}
	if grapheme == "" {
		grapheme = " "
	}

	// If we're overwriting a cell that was itself a continuation target,
	// the left half must be invalidated.
	existing := b.Get(x, y)
	if existing.Continuation {
		b.resetContinuationLeft(x, y)
	}

	width := graphemeWidth(grapheme)
	wide := width >= 2

	if wide && !b.clip(x+1, y) {
		// Wide grapheme at the scissor's right edge is replaced by a
		// single space.
		b.rawSet(x, y, Cell{Grapheme: " ", Fg: fg, Bg: bg, Attr: attr})
		return
	}

	b.rawSet(x, y, Cell{Grapheme: grapheme, Fg: fg, Bg: bg, Attr: attr})
	if wide {
		b.rawSet(x+1, y, Cell{Grapheme: "", Fg: fg, Bg: bg, Attr: attr, Continuation: true})
	}
}

func graphemeWidth(g string) int {
	gs := Graphemes(g)
	if len(gs) == 0 {
		return 1
	}
	return gs[0].Width
}

// SetCellAlpha alpha-composites fg over the existing fg and bg over the
// existing bg using Porter-Duff "over"; attributes are replaced, not
// merged.
func (b *Buffer) SetCellAlpha(x, y int, ch string, fg, bg Color, attr Attr) {
	if !b.clip(x, y) {
		return
	}
	existing := b.Get(x, y)
	newFg := Over(fg, existing.Fg)
	newBg := Over(bg, existing.Bg)
	if ch == "" {
		ch = existing.Grapheme
	}
	b.SetCell(x, y, ch, newFg, newBg, attr)
}

// FillRect sets background on a rect. fg is unchanged for non-empty cells
// when bg.a < 1; otherwise the whole cell becomes (space, default fg, bg,
// 0).
func (b *Buffer) FillRect(x, y, w, h int, bg Color) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			if !b.clip(col, row) {
				continue
			}
			if bg[3] < 1 {
				existing := b.Get(col, row)
				existing.Bg = Over(bg, existing.Bg)
				b.rawSet(col, row, existing)
			} else {
				b.rawSet(col, row, blank(bg))
			}
		}
	}
}

// DrawText iterates grapheme clusters of text, stopping at the right edge
// of the scissor rect; a wide grapheme landing exactly on that edge is
// replaced with a single space.
func (b *Buffer) DrawText(x, y int, text string, fg, bg Color, attr Attr) {
	col := x
	limit := b.top().right()
	for _, g := range Graphemes(text) {
		if col >= limit {
			break
		}
		if g.Width >= 2 && col+1 >= limit {
			b.SetCell(col, y, " ", fg, bg, attr)
			break
		}
		b.SetCell(col, y, g.Text, fg, bg, attr)
		col += max(g.Width, 1)
	}
}

// Side bits for DrawBox.
type Side uint8

const (
	SideTop Side = 1 << iota
	SideBottom
	SideLeft
	SideRight
	SideAll = SideTop | SideBottom | SideLeft | SideRight
)

// BorderChars names the eight glyphs a box outline is drawn from.
type BorderChars struct {
	TopLeft, TopRight, BottomLeft, BottomRight string
	Horizontal, Vertical                       string
}

var (
	BorderSingle  = BorderChars{"┌", "┐", "└", "┘", "─", "│"}
	BorderDouble  = BorderChars{"╔", "╗", "╚", "╝", "═", "║"}
	BorderRounded = BorderChars{"╭", "╮", "╰", "╯", "─", "│"}
	BorderHeavy   = BorderChars{"┏", "┓", "┗", "┛", "━", "┃"}
)

// TitleAlign controls where a box's title text lands on the top border.
type TitleAlign int

const (
	TitleLeft TitleAlign = iota
	TitleCenter
	TitleRight
)

// DrawBox draws an outline using the requested sides and border glyphs.
// An optional title overwrites the top border, aligned with a one-cell
// gap on each side of the title text.
func (b *Buffer) DrawBox(x, y, w, h int, sides Side, bc BorderChars, fg, bg Color, title string, align TitleAlign) {
	if w <= 0 || h <= 0 {
		return
	}
	if sides&SideTop != 0 {
		b.SetCell(x, y, bc.TopLeft, fg, bg, 0)
		for i := 1; i < w-1; i++ {
			b.SetCell(x+i, y, bc.Horizontal, fg, bg, 0)
		}
		b.SetCell(x+w-1, y, bc.TopRight, fg, bg, 0)
	}
	if sides&SideBottom != 0 {
		b.SetCell(x, y+h-1, bc.BottomLeft, fg, bg, 0)
		for i := 1; i < w-1; i++ {
			b.SetCell(x+i, y+h-1, bc.Horizontal, fg, bg, 0)
		}
		b.SetCell(x+w-1, y+h-1, bc.BottomRight, fg, bg, 0)
	}
	if sides&SideLeft != 0 {
		for i := 1; i < h-1; i++ {
			b.SetCell(x, y+i, bc.Vertical, fg, bg, 0)
		}
	}
	if sides&SideRight != 0 {
		for i := 1; i < h-1; i++ {
			b.SetCell(x+w-1, y+i, bc.Vertical, fg, bg, 0)
		}
	}
	if title != "" && sides&SideTop != 0 && w >= 4 {
		drawTitle(b, x, y, w, title, fg, bg, align)
	}
}

func drawTitle(b *Buffer, x, y, w int, title string, fg, bg Color, align TitleAlign) {
	text := " " + title + " "
	tw := StringWidth(text)
	maxw := w - 2
	if tw > maxw {
		runes := []rune(text)
		// Truncate to fit, preserving the leading gap.
		for StringWidth(string(runes)) > maxw && len(runes) > 0 {
			runes = runes[:len(runes)-1]
		}
		text = string(runes)
		tw = StringWidth(text)
	}
	var start int
	switch align {
	case TitleCenter:
		start = x + 1 + (maxw-tw)/2
	case TitleRight:
		start = x + w - 1 - tw
	default:
		start = x + 1
	}
	b.DrawText(start, y, text, fg, bg, 0)
}

// Rect is an exported axis-aligned region, used for Blit's optional
// source sub-rect.
type Rect struct{ X, Y, W, H int }

// Blit copies cells from src into b at (dstX, dstY); a srcRect of nil
// copies the whole source buffer. Cells with fully transparent fg and bg
// skip writes entirely.
func (b *Buffer) Blit(src *Buffer, dstX, dstY int, srcRect *Rect) {
	sx, sy, sw, sh := 0, 0, src.Width, src.Height
	if srcRect != nil {
		sx, sy, sw, sh = srcRect.X, srcRect.Y, srcRect.W, srcRect.H
	}
	for row := 0; row < sh; row++ {
		for col := 0; col < sw; col++ {
			c := src.Get(sx+col, sy+row)
			if c.Fg[3] == 0 && c.Bg[3] == 0 {
				continue
			}
			if !b.clip(dstX+col, dstY+row) {
				continue
			}
			b.rawSet(dstX+col, dstY+row, c)
		}
	}
}

// Clear fills every cell with (space, default fg, bg, 0), ignoring the
// scissor stack (it is a whole-buffer reset).
func (b *Buffer) Clear(bg Color) {
	b.clearCells(bg)
}

func (b *Buffer) clearCells(bg Color) {
	blankCell := blank(bg)
	for i := range b.Cells {
		b.Cells[i] = blankCell
	}
}

// Resize changes the buffer's dimensions, preserving the overlapping
// region and filling newly exposed cells with (space, default fg, default
// bg, 0) resize invariant. The scissor stack resets to the new
// full rect.
func (b *Buffer) Resize(width, height int) {
	next := make([]Cell, width*height)
	blankCell := blank(Default)
	for i := range next {
		next[i] = blankCell
	}
	copyW := min(width, b.Width)
	copyH := min(height, b.Height)
	for row := 0; row < copyH; row++ {
		srcOff := row * b.Width
		dstOff := row * width
		copy(next[dstOff:dstOff+copyW], b.Cells[srcOff:srcOff+copyW])
	}
	b.Width, b.Height = width, height
	b.Cells = next
	b.resetScissors()
}
