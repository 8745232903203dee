// Package native implements a native acceleration ABI: a stable C-style
// function-signature set over the cell buffer and diff/flush hot paths,
// loadable from a shared object via purego.Dlopen — the same
// dlopen-without-cgo pattern tinyrange-cc's Hypervisor.framework bindings
// use (internal/hv/hvf/bindings). Library is the optional accelerated
// backend; PureGo is the default, always-available fallback that
// implements the same interface with the in-tree cellbuf/diff code.
package native

import (
	"fmt"
	"strconv"
	"sync"

	"cellscape/cellbuf"
	"cellscape/diff"
	"cellscape/hitgrid"

	"github.com/ebitengine/purego"
)

// Accelerator is the capability every backend (native shared object or
// the pure-Go fallback) implements: create/destroy a buffer, the
// cellbuf primitives, and diff+flush. Library serializes every call
// through its own mutex, so at most one native composer runs at a
// time; PureGo does no locking of its own.
type Accelerator interface {
	CreateBuffer(w, h int) BufferHandle
	DestroyBuffer(BufferHandle)
	DrawText(b BufferHandle, x, y int, text string, fg, bg cellbuf.Color, attr cellbuf.Attr)
	DrawBox(b BufferHandle, x, y, w, h int, fg, bg cellbuf.Color)
	FillRect(b BufferHandle, x, y, w, h int, bg cellbuf.Color)
	Blit(dst, src BufferHandle, dstX, dstY int)
	Clear(b BufferHandle, bg cellbuf.Color)
	DiffFlush(prev, next BufferHandle, force bool) (int, error)

	// Hit-grid half of the ABI: one grid per accelerator, cleared and
	// repopulated each frame like hitgrid.Grid. Ids are numeric on the
	// native side; callers map them to renderable ids.
	HitClear(w, h int)
	HitAdd(x, y int, id uint32, z int)
	HitQuery(x, y int) (uint32, bool)

	// StatsUpdate records one completed frame's counters on the native
	// side (frame number, bytes flushed).
	StatsUpdate(frame uint64, bytes int)
}

// BufferHandle opaquely identifies a buffer owned by an Accelerator.
type BufferHandle interface{}

var (
	_ Accelerator = (*PureGo)(nil)
	_ Accelerator = (*Library)(nil)
)

// PureGo is the always-available Accelerator backed by the in-tree
// cellbuf.Buffer and diff.Flush, used whenever no native shared object is
// configured.
type PureGo struct {
	sinks map[BufferHandle]*cellbuf.Buffer
	hit   *hitgrid.Grid

	frame uint64
	bytes int
}

// NewPureGo returns the default, non-accelerated backend.
func NewPureGo() *PureGo {
	return &PureGo{sinks: map[BufferHandle]*cellbuf.Buffer{}, hit: hitgrid.New(0, 0)}
}

func (p *PureGo) CreateBuffer(w, h int) BufferHandle {
	b := cellbuf.New(w, h)
	p.sinks[b] = b
	return b
}

func (p *PureGo) DestroyBuffer(h BufferHandle) { delete(p.sinks, h) }

func (p *PureGo) buf(h BufferHandle) *cellbuf.Buffer { return p.sinks[h] }

func (p *PureGo) DrawText(h BufferHandle, x, y int, text string, fg, bg cellbuf.Color, attr cellbuf.Attr) {
	p.buf(h).DrawText(x, y, text, fg, bg, attr)
}

func (p *PureGo) FillRect(h BufferHandle, x, y, w, ht int, bg cellbuf.Color) {
	p.buf(h).FillRect(x, y, w, ht, bg)
}

func (p *PureGo) DrawBox(h BufferHandle, x, y, w, ht int, fg, bg cellbuf.Color) {
	p.buf(h).DrawBox(x, y, w, ht, cellbuf.SideAll, cellbuf.BorderSingle, fg, bg, "", cellbuf.TitleLeft)
}

func (p *PureGo) Blit(dst, src BufferHandle, dstX, dstY int) {
	p.buf(dst).Blit(p.buf(src), dstX, dstY, nil)
}

func (p *PureGo) Clear(h BufferHandle, bg cellbuf.Color) { p.buf(h).Clear(bg) }

func (p *PureGo) DiffFlush(prev, next BufferHandle, force bool) (int, error) {
	return diff.Flush(discardWriter{}, p.buf(prev), p.buf(next), force)
}

func (p *PureGo) HitClear(w, h int) {
	if p.hit.Width != w || p.hit.Height != h {
		p.hit.Resize(w, h)
		return
	}
	p.hit.Clear()
}

func (p *PureGo) HitAdd(x, y int, id uint32, z int) {
	p.hit.Add(x, y, strconv.FormatUint(uint64(id), 10), z)
}

func (p *PureGo) HitQuery(x, y int) (uint32, bool) {
	s, ok := p.hit.Query(x, y)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func (p *PureGo) StatsUpdate(frame uint64, bytes int) {
	p.frame = frame
	p.bytes = bytes
}

// discardWriter is used only when DiffFlush is exercised without a real
// sink (e.g. benchmarking the diff cost in isolation); the renderer
// always calls diff.Flush directly against the real terminal sink
// instead of going through this path in production use.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Library loads a native shared object exposing this ABI via
// purego.Dlopen/RegisterLibFunc. Every exported function uses the ABI's
// contiguous, row-major, zero-based layout: chars as runes, fg/bg as
// four float32 each, attributes as a uint8 bitmask — matching
// cellbuf.Color's [4]float32 layout exactly, so a Color slice can be
// handed across with no conversion.
type Library struct {
	mu     sync.Mutex
	handle uintptr

	createBuffer  func(w, h int32) uintptr
	destroyBuffer func(buf uintptr)
	bufferChars   func(buf uintptr) uintptr
	bufferFg      func(buf uintptr) uintptr
	bufferBg      func(buf uintptr) uintptr
	bufferAttr    func(buf uintptr) uintptr
	drawText      func(buf uintptr, x, y int32, text *byte, textLen int32, fg, bg *float32, attr uint8)
	drawBox       func(buf uintptr, x, y, w, h int32, fg, bg *float32)
	fillRect      func(buf uintptr, x, y, w, h int32, bg *float32)
	blit          func(dst, src uintptr, dstX, dstY int32)
	clearBuffer   func(buf uintptr, bg *float32)
	diffFlush     func(prev, next uintptr, force int32) int32
	hitClear      func(w, h int32)
	hitAdd        func(x, y int32, id uint32, z int32)
	hitQuery      func(x, y int32) int64
	statsUpdate   func(frame uint64, bytes int32)
}

// LoadLibrary dlopens path and binds this function set. Returns an
// error (never panics) if the shared object or any symbol is missing, so
// callers can fall back to PureGo.
func LoadLibrary(path string) (lib *Library, err error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}
	// RegisterLibFunc panics on a missing symbol; report that as an error.
	defer func() {
		if r := recover(); r != nil {
			purego.Dlclose(h)
			lib, err = nil, fmt.Errorf("native: load %s: %v", path, r)
		}
	}()
	l := &Library{handle: h}
	purego.RegisterLibFunc(&l.createBuffer, h, "cellscape_create_buffer")
	purego.RegisterLibFunc(&l.destroyBuffer, h, "cellscape_destroy_buffer")
	purego.RegisterLibFunc(&l.bufferChars, h, "cellscape_buffer_chars")
	purego.RegisterLibFunc(&l.bufferFg, h, "cellscape_buffer_fg")
	purego.RegisterLibFunc(&l.bufferBg, h, "cellscape_buffer_bg")
	purego.RegisterLibFunc(&l.bufferAttr, h, "cellscape_buffer_attr")
	purego.RegisterLibFunc(&l.drawText, h, "cellscape_draw_text")
	purego.RegisterLibFunc(&l.drawBox, h, "cellscape_draw_box")
	purego.RegisterLibFunc(&l.fillRect, h, "cellscape_fill_rect")
	purego.RegisterLibFunc(&l.blit, h, "cellscape_blit")
	purego.RegisterLibFunc(&l.clearBuffer, h, "cellscape_clear")
	purego.RegisterLibFunc(&l.diffFlush, h, "cellscape_diff_flush")
	purego.RegisterLibFunc(&l.hitClear, h, "cellscape_hit_clear")
	purego.RegisterLibFunc(&l.hitAdd, h, "cellscape_hit_add")
	purego.RegisterLibFunc(&l.hitQuery, h, "cellscape_hit_query")
	purego.RegisterLibFunc(&l.statsUpdate, h, "cellscape_stats_update")
	return l, nil
}

// BufferChars returns the raw pointer to a native buffer's contiguous
// row-major 32-bit codepoint array; BufferFg/BufferBg return the 4x
// float32-per-cell color arrays, BufferAttr the uint8 attribute flags.
func (l *Library) BufferChars(h BufferHandle) uintptr { return l.bufferChars(h.(uintptr)) }
func (l *Library) BufferFg(h BufferHandle) uintptr    { return l.bufferFg(h.(uintptr)) }
func (l *Library) BufferBg(h BufferHandle) uintptr    { return l.bufferBg(h.(uintptr)) }
func (l *Library) BufferAttr(h BufferHandle) uintptr  { return l.bufferAttr(h.(uintptr)) }

func (l *Library) CreateBuffer(w, h int) BufferHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createBuffer(int32(w), int32(h))
}

func (l *Library) DestroyBuffer(h BufferHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.destroyBuffer(h.(uintptr))
}

func colorPtr(c cellbuf.Color) *float32 { return &c[0] }

func (l *Library) DrawText(h BufferHandle, x, y int, text string, fg, bg cellbuf.Color, attr cellbuf.Attr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := []byte(text)
	var p *byte
	if len(b) > 0 {
		p = &b[0]
	}
	l.drawText(h.(uintptr), int32(x), int32(y), p, int32(len(b)), colorPtr(fg), colorPtr(bg), uint8(attr))
}

func (l *Library) FillRect(h BufferHandle, x, y, w, ht int, bg cellbuf.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fillRect(h.(uintptr), int32(x), int32(y), int32(w), int32(ht), colorPtr(bg))
}

func (l *Library) Clear(h BufferHandle, bg cellbuf.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearBuffer(h.(uintptr), colorPtr(bg))
}

func (l *Library) DrawBox(h BufferHandle, x, y, w, ht int, fg, bg cellbuf.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drawBox(h.(uintptr), int32(x), int32(y), int32(w), int32(ht), colorPtr(fg), colorPtr(bg))
}

func (l *Library) Blit(dst, src BufferHandle, dstX, dstY int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blit(dst.(uintptr), src.(uintptr), int32(dstX), int32(dstY))
}

func (l *Library) DiffFlush(prev, next BufferHandle, force bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var f int32
	if force {
		f = 1
	}
	n := l.diffFlush(prev.(uintptr), next.(uintptr), f)
	return int(n), nil
}

func (l *Library) HitClear(w, h int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hitClear(int32(w), int32(h))
}

func (l *Library) HitAdd(x, y int, id uint32, z int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hitAdd(int32(x), int32(y), id, int32(z))
}

// HitQuery decodes the native side's packed result: a negative value
// means no entry at (x,y), anything else is the registered id.
func (l *Library) HitQuery(x, y int) (uint32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.hitQuery(int32(x), int32(y))
	if v < 0 {
		return 0, false
	}
	return uint32(v), true
}

func (l *Library) StatsUpdate(frame uint64, bytes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statsUpdate(frame, int32(bytes))
}
