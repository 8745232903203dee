package cellbuf

import (
	"github.com/rivo/uniseg"
	"github.com/unilibs/uniwidth"
)

// RuneWidth returns the terminal column width of a single rune: 2 for wide
// CJK/emoji codepoints, 1 for normal printable runes, 0 for combining
// marks and control codes. An unassigned codepoint is treated as width 1.
func RuneWidth(r rune) int {
	if r == 0 {
		return 1 // null codepoint is replaced by space by the caller
	}
	w := uniwidth.RuneWidth(r)
	if w < 0 {
		return 1
	}
	return w
}

// StringWidth sums RuneWidth across codepoints; used for quick content
// measurement where grapheme clustering isn't required.
func StringWidth(s string) int {
	return uniwidth.StringWidth(s)
}

// Grapheme is one user-perceived character from a grapheme cluster
// iteration pass: its text, and the column width it occupies (0, 1 or 2).
type Grapheme struct {
	Text  string
	Width int
}

// Graphemes splits text into grapheme clusters using uniseg's boundary
// rules, so combining marks attach to the preceding base rather than
// consuming a cell of their own.
func Graphemes(text string) []Grapheme {
	var out []Grapheme
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		w := clusterWidth(cluster)
		out = append(out, Grapheme{Text: cluster, Width: w})
	}
	return out
}

// clusterWidth is the display width of a full grapheme cluster: the width
// of its base rune, since combining marks by definition contribute 0.
func clusterWidth(cluster string) int {
	width := 0
	first := true
	for _, r := range cluster {
		if first {
			width = RuneWidth(r)
			first = false
			continue
		}
		// Combining marks and variation selectors within the cluster
		// never add width; only the base rune's width counts.
	}
	if width < 0 {
		width = 1
	}
	return width
}
