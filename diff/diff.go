// Package diff implements the diff/flush engine: it compares a
// previous cell buffer against a next one and emits the minimal cursor-
// move/SGR/glyph byte stream a terminal needs to see to update only the
// cells that changed. Cursor positioning goes through
// charmbracelet/x/ansi's canonical cursor-position encoding rather than
// a hand-rolled escape builder.
package diff

import (
	"io"

	"cellscape/cellbuf"

	"github.com/charmbracelet/x/ansi"
)

// sgrState is the flusher's model of what the terminal's current graphic
// rendition actually is, so style escapes are only emitted on change.
type sgrState struct {
	set  bool
	fg   cellbuf.Color
	bg   cellbuf.Color
	attr cellbuf.Attr
}

// Flush compares prev against next (equal dimensions required) and writes
// the byte stream that transforms a terminal showing prev into one
// showing next. If force is true every cell is treated as dirty, per
// this step — the recovery path after an I/O failure. It returns the
// number of bytes written and the first write error, if any; the caller
// (renderer) treats any error as fatal to the frame and sets force=true
// on the next one.
func Flush(w io.Writer, prev, next *cellbuf.Buffer, force bool) (int, error) {
	f := &flusher{w: w, width: next.Width, height: next.Height}
	return f.run(prev, next, force)
}

type flusher struct {
	w             io.Writer
	width, height int
	curX, curY    int // -1,-1 means "unknown position"
	style         sgrState
	written       int
	err           error
}

func (f *flusher) run(prev, next *cellbuf.Buffer, force bool) (int, error) {
	f.curX, f.curY = -1, -1
	for y := 0; y < f.height; y++ {
		x := 0
		for x < f.width {
			if !force && cellsEqual(prev.Get(x, y), next.Get(x, y)) {
				x++
				continue
			}
			runEnd := x
			for runEnd < f.width && (force || !cellsEqual(prev.Get(runEnd, y), next.Get(runEnd, y))) {
				runEnd++
			}
			f.emitRun(next, x, y, runEnd)
			if f.err != nil {
				return f.written, f.err
			}
			x = runEnd
		}
	}
	if f.style.set {
		f.write(ansi.ResetStyle)
		f.style = sgrState{}
	}
	return f.written, f.err
}

// emitRun writes one maximal dirty run [startX,endX) on row y.
func (f *flusher) emitRun(next *cellbuf.Buffer, startX, y, endX int) {
	col := startX
	for col < endX {
		c := next.Get(col, y)
		if c.Continuation {
			// Wide-grapheme continuation cells are never emitted
			// directly; they were already covered by the base cell's
			// glyph write .
			col++
			continue
		}
		if f.curX != col || f.curY != y {
			f.write(ansi.CursorPosition(col+1, y+1))
			f.curX, f.curY = col, y
		}
		f.applyStyle(c.Fg, c.Bg, c.Attr)
		glyph := c.Grapheme
		if glyph == "" {
			glyph = " "
		}
		f.write(glyph)
		f.curX += runeWidth(c)
		col++
		// advance past a continuation cell the base cell implied
		if col < endX && next.Get(col, y).Continuation {
			col++
		}
	}
}

func runeWidth(c cellbuf.Cell) int {
	if c.Continuation {
		return 0
	}
	gs := cellbuf.Graphemes(c.Grapheme)
	if len(gs) == 0 {
		return 1
	}
	return gs[0].Width
}

func cellsEqual(a, b cellbuf.Cell) bool {
	return a.Grapheme == b.Grapheme && a.Fg == b.Fg && a.Bg == b.Bg && a.Attr == b.Attr && a.Continuation == b.Continuation
}

// applyStyle emits an SGR sequence only when fg, bg or attrs differ from
// the flusher's tracked state. SGR parameters are cumulative on a real
// terminal, so anything that was on and is now off needs its own unset
// code — dropping it from the parameter list leaves it active. Parameter
// order within a single escape is fixed (fg, bg, attr codes ascending)
// for byte-level reproducibility.
func (f *flusher) applyStyle(fg, bg cellbuf.Color, attr cellbuf.Attr) {
	if f.style.set && f.style.fg == fg && f.style.bg == bg && f.style.attr == attr {
		return
	}
	var off cellbuf.Attr
	var fgCleared, bgCleared bool
	if f.style.set {
		off = f.style.attr &^ attr
		fgCleared = f.style.fg[3] > 0 && fg[3] <= 0
		bgCleared = f.style.bg[3] > 0 && bg[3] <= 0
	}
	params := sgrParams(fg, bg, attr, off, fgCleared, bgCleared)
	if len(params) == 0 {
		if f.style.set {
			f.write(ansi.ResetStyle)
		}
	} else {
		f.write(params)
	}
	f.style = sgrState{set: true, fg: fg, bg: bg, attr: attr}
}

// attrBits lists attribute bits in ascending order together with their
// SGR "set" parameter fixed ordering rule.
var attrBits = []struct {
	bit   cellbuf.Attr
	param string
}{
	{cellbuf.AttrBold, "1"},
	{cellbuf.AttrDim, "2"},
	{cellbuf.AttrItalic, "3"},
	{cellbuf.AttrUnderline, "4"},
	{cellbuf.AttrBlink, "5"},
	{cellbuf.AttrInverse, "7"},
	{cellbuf.AttrHidden, "8"},
	{cellbuf.AttrStrikethrough, "9"},
}

// attrOffParam is the SGR unset code for each attribute bit. Bold and
// dim share code 22; when only one of the pair turns off, the survivor
// is re-listed by the additive on-codes below, so 22-then-1 (or 22-
// then-2) restores it within the same escape.
var attrOffParam = []struct {
	bit   cellbuf.Attr
	param string
}{
	{cellbuf.AttrBold | cellbuf.AttrDim, "22"},
	{cellbuf.AttrItalic, "23"},
	{cellbuf.AttrUnderline, "24"},
	{cellbuf.AttrBlink, "25"},
	{cellbuf.AttrInverse, "27"},
	{cellbuf.AttrHidden, "28"},
	{cellbuf.AttrStrikethrough, "29"},
}

// sgrParams builds one escape sequence: fg, then bg, then attribute
// codes ascending — unset codes for bits in off, then the on bits of
// attr. A color that went from set back to the terminal default emits
// 39/49 rather than silently staying at its previous value. Each unset
// is a single specific code, strictly shorter than a full reset plus
// re-applying every surviving parameter.
func sgrParams(fg, bg cellbuf.Color, attr, off cellbuf.Attr, fgCleared, bgCleared bool) string {
	var parts []string
	if fg[3] > 0 {
		parts = append(parts, "38;2;"+itoa(int(fg[0]*255))+";"+itoa(int(fg[1]*255))+";"+itoa(int(fg[2]*255)))
	} else if fgCleared {
		parts = append(parts, "39")
	}
	if bg[3] > 0 {
		parts = append(parts, "48;2;"+itoa(int(bg[0]*255))+";"+itoa(int(bg[1]*255))+";"+itoa(int(bg[2]*255)))
	} else if bgCleared {
		parts = append(parts, "49")
	}
	for _, ab := range attrOffParam {
		if off&ab.bit != 0 {
			parts = append(parts, ab.param)
		}
	}
	for _, ab := range attrBits {
		if attr&ab.bit != 0 {
			parts = append(parts, ab.param)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	out := "\x1b["
	for i, p := range parts {
		if i > 0 {
			out += ";"
		}
		out += p
	}
	return out + "m"
}

func itoa(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	if n == 0 {
		return "0"
	}
	var buf [3]byte
	i := 3
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (f *flusher) write(s string) {
	if f.err != nil || s == "" {
		return
	}
	n, err := io.WriteString(f.w, s)
	f.written += n
	f.err = err
}
