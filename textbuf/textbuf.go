// Package textbuf stores styled text independently of the cell grid so
// scrolling, wrapping, and selection can be recomputed without re-issuing
// per-character style decisions.
package textbuf

import (
	"unicode/utf8"

	"cellscape/cellbuf"
)

// Run is one styled span of the byte store: [Start,End) plus its style.
type Run struct {
	Start, End int
	Fg, Bg     cellbuf.Color
	Attr       cellbuf.Attr
}

// WrapMode selects how Wrap breaks lines that exceed the column budget.
type WrapMode int

const (
	WrapNone WrapMode = iota
	WrapChar
	WrapWord
)

// VisualLine describes one wrapped display line: its byte range and
// column width.
type VisualLine struct {
	Start, End int
	Width      int
}

// Buffer is the append-only styled run store.
type Buffer struct {
	data []byte
	runs []Run

	lineStarts []int // byte offset of every line head; strictly increasing
	lineWidths []int // visual column width of each line
	finalized  bool

	selStart, selEnd   int
	hasSelection       bool
	selFg, selBg       cellbuf.Color
}

// New returns an empty text buffer.
func New() *Buffer {
	b := &Buffer{}
	b.invalidate()
	return b
}

// Append extends the run list with new styled bytes.
func (b *Buffer) Append(text string, fg, bg cellbuf.Color, attr cellbuf.Attr) {
	start := len(b.data)
	b.data = append(b.data, text...)
	b.runs = append(b.runs, Run{Start: start, End: len(b.data), Fg: fg, Bg: bg, Attr: attr})
	b.invalidate()
}

// Replace edits the byte range [start,end) in place, replacing any runs
// that overlapped it with a single new run of the given style. Overlapping
// line-start entries are invalidated (recomputed on next finalize).
func (b *Buffer) Replace(start, end int, text string, fg, bg cellbuf.Color, attr cellbuf.Attr) {
	start = clamp(start, 0, len(b.data))
	end = clamp(end, start, len(b.data))

	newData := make([]byte, 0, len(b.data)-(end-start)+len(text))
	newData = append(newData, b.data[:start]...)
	newData = append(newData, text...)
	newData = append(newData, b.data[end:]...)

	delta := len(text) - (end - start)
	var newRuns []Run
	for _, r := range b.runs {
		switch {
		case r.End <= start:
			newRuns = append(newRuns, r)
		case r.Start >= end:
			newRuns = append(newRuns, Run{r.Start + delta, r.End + delta, r.Fg, r.Bg, r.Attr})
		// else: run overlaps the replaced range and is dropped, replaced
		// by the single new run below.
		}
	}
	if len(text) > 0 {
		newRuns = append(newRuns, Run{start, start + len(text), fg, bg, attr})
	}
	b.data = newData
	b.runs = newRuns
	b.invalidate()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (b *Buffer) invalidate() {
	b.finalized = false
}

// finalize computes line-start and line-width tables in a single O(n)
// pass over decoded runes, cached until the next Append/Replace. A
// malformed UTF-8 byte is decoded as the replacement rune
// failure modes.
func (b *Buffer) finalize() {
	if b.finalized {
		return
	}
	b.lineStarts = b.lineStarts[:0]
	b.lineWidths = b.lineWidths[:0]

	lineHead := 0
	col := 0
	i := 0
	for i < len(b.data) {
		r, size := utf8.DecodeRune(b.data[i:])
		if r == '\n' {
			b.lineStarts = append(b.lineStarts, lineHead)
			b.lineWidths = append(b.lineWidths, col)
			lineHead = i + size
			col = 0
			i += size
			continue
		}
		col += cellbuf.RuneWidth(r)
		i += size
	}
	b.lineStarts = append(b.lineStarts, lineHead)
	b.lineWidths = append(b.lineWidths, col)

	b.finalized = true
}

// LineCount returns the number of lines, O(1) after finalize.
func (b *Buffer) LineCount() int {
	b.finalize()
	return len(b.lineStarts)
}

// LineStart returns the byte offset of line i's head.
func (b *Buffer) LineStart(i int) int {
	b.finalize()
	if i < 0 || i >= len(b.lineStarts) {
		return len(b.data)
	}
	return b.lineStarts[i]
}

// LineWidth returns the visual column width of line i.
func (b *Buffer) LineWidth(i int) int {
	b.finalize()
	if i < 0 || i >= len(b.lineWidths) {
		return 0
	}
	return b.lineWidths[i]
}

// SelectionSet installs the selection overlay. Out-of-range offsets are
// clamped failure modes.
func (b *Buffer) SelectionSet(start, end int, fg, bg cellbuf.Color) {
	if start > end {
		start, end = end, start
	}
	b.selStart = clamp(start, 0, len(b.data))
	b.selEnd = clamp(end, 0, len(b.data))
	b.selFg, b.selBg = fg, bg
	b.hasSelection = true
}

// SelectionClear removes the overlay; draw then behaves exactly as before
// SelectionSet was called (round-trip property).
func (b *Buffer) SelectionClear() {
	b.hasSelection = false
}

func (b *Buffer) inSelection(offset int) bool {
	return b.hasSelection && offset >= b.selStart && offset < b.selEnd
}

// styleAt returns the run style effective at a byte offset, or the zero
// style if offset falls in a gap (shouldn't happen for well-formed runs).
func (b *Buffer) styleAt(offset int) (fg, bg cellbuf.Color, attr cellbuf.Attr) {
	for _, r := range b.runs {
		if offset >= r.Start && offset < r.End {
			return r.Fg, r.Bg, r.Attr
		}
	}
	return cellbuf.Default, cellbuf.Default, 0
}

// Wrap returns the visual lines for the given column width and mode. The
// result is a finite, restartable slice — callers may re-slice or re-call
// Wrap cheaply since it derives purely from the (cached) line tables.
func (b *Buffer) Wrap(cols int, mode WrapMode) []VisualLine {
	b.finalize()
	if len(b.data) == 0 {
		return []VisualLine{{Start: 0, End: 0, Width: 0}}
	}
	var out []VisualLine
	for li := 0; li < len(b.lineStarts); li++ {
		start := b.lineStarts[li]
		end := len(b.data)
		if li+1 < len(b.lineStarts) {
			end = b.lineStarts[li+1] - 1 // exclude the newline itself
			if end < start {
				end = start
			}
		}
		out = append(out, wrapLine(b.data[start:end], start, cols, mode)...)
	}
	return out
}

func wrapLine(line []byte, base, cols int, mode WrapMode) []VisualLine {
	if cols <= 0 || mode == WrapNone {
		return []VisualLine{{Start: base, End: base + len(line), Width: cellbuf.StringWidth(string(line))}}
	}

	var out []VisualLine
	text := string(line)
	if mode == WrapChar {
		return wrapByCluster(text, base, cols)
	}

	// Word mode: break at whitespace; a single overlong word falls back
	// to char wrap for that segment.
	words := splitKeepDelims(text)
	lineStart := base
	col := 0
	flush := func(endByte int) {
		out = append(out, VisualLine{Start: lineStart, End: base + endByte, Width: col})
	}
	pos := 0
	for _, w := range words {
		ww := cellbuf.StringWidth(w)
		if ww > cols {
			if col > 0 {
				flush(pos)
				lineStart = base + pos
				col = 0
			}
			sub := wrapByCluster(w, base+pos, cols)
			out = append(out, sub...)
			pos += len(w)
			lineStart = base + pos
			col = 0
			continue
		}
		if col+ww > cols && col > 0 {
			flush(pos)
			lineStart = base + pos
			col = 0
		}
		col += ww
		pos += len(w)
	}
	if lineStart != base+pos || len(out) == 0 {
		flush(pos)
	}
	return out
}

func wrapByCluster(text string, base, cols int) []VisualLine {
	var out []VisualLine
	col := 0
	lineStartByte := 0
	byteOff := 0
	for _, g := range cellbuf.Graphemes(text) {
		gw := g.Width
		if col+gw > cols && col > 0 {
			out = append(out, VisualLine{Start: base + lineStartByte, End: base + byteOff, Width: col})
			lineStartByte = byteOff
			col = 0
		}
		col += gw
		byteOff += len(g.Text)
	}
	out = append(out, VisualLine{Start: base + lineStartByte, End: base + byteOff, Width: col})
	return out
}

// splitKeepDelims splits on whitespace runs, keeping the delimiters as
// their own segments so word-wrap reconstruction doesn't lose spacing.
func splitKeepDelims(s string) []string {
	var out []string
	start := 0
	inSpace := false
	for i, r := range s {
		sp := r == ' ' || r == '\t'
		if i == 0 {
			inSpace = sp
			continue
		}
		if sp != inSpace {
			out = append(out, s[start:i])
			start = i
			inSpace = sp
		}
	}
	out = append(out, s[start:])
	return out
}

// Draw blits the visible viewport [scroll_y, scroll_y+view_h) into dst at
// (x,y), applying horizontal scroll and the selection overlay by replacing
// fg/bg with the selection colors for any cell whose underlying byte
// offset lies in the selection range.
func (b *Buffer) Draw(dst *cellbuf.Buffer, x, y, scrollX, scrollY, viewW, viewH int, mode WrapMode) {
	lines := b.Wrap(viewW+scrollX, mode)
	for row := 0; row < viewH; row++ {
		li := scrollY + row
		if li < 0 || li >= len(lines) {
			continue
		}
		b.drawVisualLine(dst, lines[li], x, y+row, scrollX, viewW)
	}
}

func (b *Buffer) drawVisualLine(dst *cellbuf.Buffer, vl VisualLine, x, y, scrollX, viewW int) {
	col := 0
	screenX := x
	text := string(b.data[vl.Start:vl.End])
	offset := vl.Start
	for _, g := range cellbuf.Graphemes(text) {
		gw := g.Width
		if col < scrollX {
			col += gw
			offset += len(g.Text)
			continue
		}
		if screenX >= x+viewW {
			break
		}
		fg, bg, attr := b.styleAt(offset)
		if b.inSelection(offset) {
			fg, bg = b.selFg, b.selBg
		}
		dst.SetCell(screenX, y, g.Text, fg, bg, attr)
		screenX += max(gw, 1)
		col += gw
		offset += len(g.Text)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
