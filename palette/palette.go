// Package palette implements runtime color queries: OSC 10/11/4;n
// queries for the terminal's foreground, background and indexed-color
// palette, cached after first resolution and bounded by the same
// capability-probe timeouts the terminal controller uses.
package palette

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	"cellscape/cellbuf"
	"cellscape/logx"

	"github.com/charmbracelet/colorprofile"
)

// Query owns the cached results of OSC palette probes. It is a lifecycle-
// scoped service created when the renderer starts and discarded when it
// stops, never a process-wide singleton.
type Query struct {
	mu      sync.Mutex
	cache   map[int]cellbuf.Color
	fg, bg  *cellbuf.Color
	profile colorprofile.Profile
}

// New returns an empty, unpopulated query cache.
func New(profile colorprofile.Profile) *Query {
	return &Query{cache: map[int]cellbuf.Color{}, profile: profile}
}

// Foreground returns the terminal's default foreground color, querying
// it via OSC 10 on first call and caching the result thereafter.
func (q *Query) Foreground(w io.Writer, r *bufio.Reader) cellbuf.Color {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fg != nil {
		return *q.fg
	}
	c, ok := q.queryOSCLocked(w, r, "\x1b]10;?\x07")
	if !ok {
		c = cellbuf.RGB(255, 255, 255)
	}
	q.fg = &c
	return c
}

// Background returns the terminal's default background color, via OSC 11.
func (q *Query) Background(w io.Writer, r *bufio.Reader) cellbuf.Color {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.bg != nil {
		return *q.bg
	}
	c, ok := q.queryOSCLocked(w, r, "\x1b]11;?\x07")
	if !ok {
		c = cellbuf.RGB(0, 0, 0)
	}
	q.bg = &c
	return c
}

// Indexed returns the 256-color palette entry n, via OSC 4;n;?.
func (q *Query) Indexed(w io.Writer, r *bufio.Reader, n int) cellbuf.Color {
	q.mu.Lock()
	defer q.mu.Unlock()
	if c, ok := q.cache[n]; ok {
		return c
	}
	c, ok := q.queryOSCLocked(w, r, fmt.Sprintf("\x1b]4;%d;?\x07", n))
	if !ok {
		c = cellbuf.Default
	}
	q.cache[n] = c
	return c
}

// queryOSCLocked writes query, reads the terminal's OSC response within a
// bounded 150ms window ("100-200 ms" capability-probe timeout), and
// parses an "rgb:rrrr/gggg/bbbb" reply. On timeout or malformed response
// the capability is recorded as unsupported and downgraded silently.
func (q *Query) queryOSCLocked(w io.Writer, r *bufio.Reader, query string) (cellbuf.Color, bool) {
	if _, err := io.WriteString(w, query); err != nil {
		logx.Recoverable(logx.KindIOFailure, "palette", "OSC query write failed")
		return cellbuf.Color{}, false
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\a')
		ch <- result{line, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return cellbuf.Color{}, false
		}
		c, ok := parseOSCColor(res.line)
		if !ok {
			logx.Recoverable(logx.KindUnsupportedCap, "palette", "malformed OSC color response")
		}
		return c, ok
	case <-time.After(150 * time.Millisecond):
		logx.Recoverable(logx.KindUnsupportedCap, "palette", "OSC color query timed out")
		return cellbuf.Color{}, false
	}
}

// parseOSCColor extracts an "rgb:rrrr/gggg/bbbb" payload from an OSC
// response terminated by BEL or ST, returning its 8-bit-truncated RGB.
func parseOSCColor(line string) (cellbuf.Color, bool) {
	i := indexOf(line, "rgb:")
	if i < 0 {
		return cellbuf.Color{}, false
	}
	rest := line[i+4:]
	var r16, g16, b16 int
	n, err := fmt.Sscanf(rest, "%x/%x/%x", &r16, &g16, &b16)
	if err != nil || n != 3 {
		return cellbuf.Color{}, false
	}
	return cellbuf.RGB(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8)), true
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
