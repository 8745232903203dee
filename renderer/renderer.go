// Package renderer implements the frame loop: a single-threaded
// cooperative loop that drains input, dispatches events, runs
// application frame callbacks, recomputes layout when dirty, composes
// the next cell buffer, runs post-process filters, diffs against the
// previous buffer, flushes bytes to the terminal sink, and swaps
// buffers. It ties together every other package in this module into one
// pipeline.
package renderer

import (
	"bufio"
	"context"
	"os"
	"sync"
	"time"

	"cellscape/anim"
	"cellscape/cellbuf"
	"cellscape/config"
	"cellscape/diff"
	"cellscape/hitgrid"
	"cellscape/input"
	"cellscape/logx"
	"cellscape/palette"
	"cellscape/router"
	"cellscape/scene"
	"cellscape/terminal"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrorKind is the recoverable-error taxonomy the frame loop converts
// every failure into, rather than ever panicking.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindIOFailure
	KindDecodeOverflow
	KindLayoutFailure
	KindClipDiscard
	KindZeroResize
	KindUnsupportedCapability
)

// FrameError pairs a recoverable-error kind with its cause. The frame
// loop neither constructs nor receives FrameError values: it reports
// failures through logx and drops the failing subproduct.
type FrameError struct {
	Kind        ErrorKind
	Recoverable bool
	Err         error
}

func (e *FrameError) Error() string { return e.Err.Error() }

// PostProcessFilter mutates the composed buffer in place after
// composition and before diff; it must not change the buffer's
// dimensions. Filters receive only the buffer, not the hit grid, so a
// filter can never register or steal mouse targets.
type PostProcessFilter func(buf *cellbuf.Buffer)

// Stats reports per-frame timing, exposed so application code and tests
// can assert on throughput without reaching into the loop's internals.
type Stats struct {
	FrameCount   uint64
	LastDirty    int
	LastBytes    int
	LastDuration time.Duration
}

// Renderer owns the whole pipeline's state: the double-buffered cell
// grid, hit grid, scene tree, terminal controller, input reader, router,
// frame callbacks and post-process filters.
type Renderer struct {
	opts config.Options

	term *terminal.Controller
	in   *input.Reader
	tree *scene.Tree
	rt   *router.Router
	hit  *hitgrid.Grid
	anim anim.Group

	next *cellbuf.Buffer
	prev *cellbuf.Buffer

	filters []PostProcessFilter
	onFrame []func(dt float64)

	limiter *rate.Limiter
	stats   Stats

	mu            sync.Mutex
	dirty         bool
	forceNext     bool
	pendingResize *[2]int
	stopped       chan struct{}
	stopOnce      sync.Once
	group         *errgroup.Group
	sink          *bufio.Writer
	frameCount    uint64
	lastFrameAt   time.Time

	Palette *palette.Query
}

// New constructs a renderer over stdin/stdout with the given options and
// an already-created scene tree (nil to get an empty default tree).
func New(opts config.Options, tree *scene.Tree) *Renderer {
	if err := opts.Validate(); err != nil {
		logx.Errorf("invalid renderer options", "err", err)
	}
	if tree == nil {
		tree = scene.NewTree(nil)
	}
	r := &Renderer{
		opts:    opts,
		tree:    tree,
		rt:      router.New(tree),
		stopped: make(chan struct{}),
		sink:    bufio.NewWriterSize(os.Stdout, 64*1024),
		limiter: rate.NewLimiter(rate.Limit(opts.TargetFPS), 1),
	}
	tree.RequestFrame = r.RequestRender
	return r
}

// OnFrame registers a callback invoked once per frame with the elapsed
// seconds since the previous one, before layout and composition.
func (r *Renderer) OnFrame(fn func(dt float64)) { r.onFrame = append(r.onFrame, fn) }

// UsePostProcess registers a filter run after composition, before diff.
func (r *Renderer) UsePostProcess(f PostProcessFilter) { r.filters = append(r.filters, f) }

// Tree exposes the scene tree application code mutates.
func (r *Renderer) Tree() *scene.Tree { return r.tree }

// Timelines exposes the animation group the frame loop advances each tick.
func (r *Renderer) Timelines() *anim.Group { return &r.anim }

// RequestRender sets the dirty flag so the next scheduled tick does
// compose/diff/flush work; it does not force an out-of-cycle frame.
func (r *Renderer) RequestRender() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// ForceRender makes the next scheduled tick redraw every cell
// (force=true). It does not run a frame outside the tick schedule.
func (r *Renderer) ForceRender() {
	r.mu.Lock()
	r.dirty = true
	r.forceNext = true
	r.mu.Unlock()
}

// Start enters raw mode, allocates the cell/hit buffers at the current
// terminal size, wires input, and enters the frame loop. It blocks until
// Stop is called or a fatal terminal error occurs; fatal errors
// (raw-mode failure) propagate as typed errors, leaving the
// terminal untouched.
func (r *Renderer) Start() error {
	r.term = terminal.New(os.Stdin, os.Stdout)

	w, h, err := r.term.Size()
	if err != nil {
		w, h = 80, 24
	}
	r.next = cellbuf.New(w, h)
	r.prev = cellbuf.New(w, h)
	r.next.RespectAlpha = r.opts.RespectAlpha
	r.hit = hitgrid.New(w, h)
	r.tree.Compute(w, h)
	r.Palette = palette.New(0)

	termOpts := terminal.Options{
		AlternateScreen: r.opts.UseAlternateScreen,
		Mouse:           r.opts.UseMouse,
		MouseMovement:   r.opts.UseMouseMovement,
		FocusReports:    true,
		BracketedPaste:  true,
		KittyKeyboard:   r.opts.UseKittyKeyboard,
		HideCursor:      true,
	}
	if err := r.term.Start(termOpts, r.handleResize); err != nil {
		return err
	}

	// The errgroup supervises the background helpers that run off the
	// frame-loop goroutine: the startup palette probe and joining the
	// input reader's internal goroutine on Stop. The probe must finish
	// (or time out, per its own 150ms bound) and hand stdin back before
	// the input reader claims it, since both would otherwise race to
	// read the same fd. Event dispatch itself always runs on the
	// frame-loop goroutine, since the loop is single-threaded and
	// cooperative — the reader only decodes bytes into a channel,
	// never calls into the tree or router directly.
	g := &errgroup.Group{}
	r.group = g
	g.Go(func() error {
		br := bufio.NewReader(os.Stdin)
		r.Palette.Foreground(os.Stdout, br)
		r.Palette.Background(os.Stdout, br)
		return nil
	})
	g.Wait()

	if r.opts.UseThread {
		reader, err := input.NewReader(os.Stdin)
		if err != nil {
			r.term.Stop()
			return err
		}
		r.in = reader
		g = &errgroup.Group{}
		r.group = g
		g.Go(func() error { <-r.stopped; return r.in.Close() })
	}

	r.ForceRender()
	r.loop()
	g.Wait()
	r.term.Stop()
	return nil
}

// Stop requests the loop exit at the next boundary: a stop request is
// honoured at the start of the next iteration, not mid-frame.
func (r *Renderer) Stop() {
	r.stopOnce.Do(func() { close(r.stopped) })
}

// handleResize runs on the terminal controller's own SIGWINCH goroutine;
// it only records the new size and wakes the frame loop, since the cell
// buffers, hit grid and tree are owned by the frame-loop goroutine and
// must never be mutated from here directly.
func (r *Renderer) handleResize(w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingResize = &[2]int{w, h}
	r.dirty = true
}

// applyPendingResize runs on the frame-loop goroutine and actually
// resizes the buffers queued by handleResize.
func (r *Renderer) applyPendingResize() {
	r.mu.Lock()
	pr := r.pendingResize
	r.pendingResize = nil
	r.mu.Unlock()
	if pr == nil {
		return
	}
	w, h := pr[0], pr[1]
	if w <= 0 || h <= 0 {
		// A resize to zero in either dimension is ignored: the buffers
		// keep their previous size and frames keep rendering at it. The
		// next non-zero resize triggers a full redraw.
		logx.Recoverable(logx.KindZeroResize, "renderer", "resize to zero dimension ignored")
		return
	}
	r.next.Resize(w, h)
	r.prev.Resize(w, h)
	r.hit.Resize(w, h)
	r.tree.Compute(w, h)
	r.mu.Lock()
	r.forceNext = true
	r.mu.Unlock()
}

// drainInput applies every event currently buffered on the reader's
// channel without blocking, called once per loop iteration from the
// frame-loop goroutine so the tree, router and hit grid are only ever
// touched from one goroutine.
func (r *Renderer) drainInput() {
	if r.in == nil {
		return
	}
	for {
		select {
		case ev, ok := <-r.in.Events():
			if !ok {
				r.in = nil
				return
			}
			r.handleEvent(ev)
		default:
			return
		}
	}
}

func (r *Renderer) handleEvent(ev input.Event) {
	switch ev.Kind {
	case input.KindMouse:
		r.rt.DispatchMouse(ev.Mouse, r.hit)
		r.RequestRender()
	case input.KindKey:
		if ev.Key.Name == "Tab" {
			r.rt.Tab(ev.Key.Mods.Has(input.ModShift))
			r.RequestRender()
			return
		}
		if r.opts.ExitOnCtrlC && ev.Key.Mods.Has(input.ModCtrl) && ev.Key.Rune == 'c' {
			r.Stop()
			return
		}
		r.rt.DispatchKey(ev.Key)
		r.RequestRender()
	case input.KindPaste:
		r.rt.DispatchPaste(ev.Paste)
		r.RequestRender()
	case input.KindFocus:
		r.rt.DispatchFocus(ev.Focus)
	case input.KindUnknown:
		logx.Debugf("raw input", "bytes", ev.Raw)
	}
}

// loop is the cooperative scheduler: one frame = drain input → run
// frame callbacks → layout if dirty → compose →
// post-process → diff → flush → swap → stats. If a frame finishes early
// it sleeps until the next tick (the rate limiter); if it runs long, the
// next frame starts immediately without catching up. Everything here
// runs on a single goroutine; the only concurrency is the input
// reader's internal byte-decode loop feeding the channel drainInput
// reads from.
func (r *Renderer) loop() {
	r.lastFrameAt = time.Now()
	for {
		select {
		case <-r.stopped:
			return
		default:
		}

		r.drainInput()
		r.applyPendingResize()

		r.mu.Lock()
		needWork := r.dirty || r.anim.Len() > 0
		force := r.forceNext
		r.dirty = false
		r.forceNext = false
		r.mu.Unlock()

		if needWork {
			r.renderOnce(force)
		}

		if err := r.limiter.Wait(stopContext{r.stopped}); err != nil {
			return
		}
	}
}

func (r *Renderer) renderOnce(force bool) {
	start := time.Now()
	now := start
	dt := now.Sub(r.lastFrameAt).Seconds()
	r.lastFrameAt = now

	for _, fn := range r.onFrame {
		fn(dt)
	}
	r.anim.Advance(dt)
	r.tree.RunLifecycle()

	if r.tree.NeedsLayout() {
		r.tree.Compute(r.next.Width, r.next.Height)
	}

	r.hit.Clear()
	r.tree.Draw(r.next, r.hit, dt, r.frameCount, force)

	for _, f := range r.filters {
		f(r.next)
	}

	n, err := diff.Flush(r.sink, r.prev, r.next, force)
	if ferr := r.sink.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		logx.Recoverable(logx.KindIOFailure, "renderer", "terminal write failed, forcing full redraw next frame")
		r.mu.Lock()
		r.dirty = true
		r.forceNext = true
		r.mu.Unlock()
	}

	r.prev, r.next = r.next, r.prev
	copyBuffer(r.next, r.prev)

	r.frameCount++
	r.stats = Stats{FrameCount: r.frameCount, LastBytes: n, LastDuration: time.Since(start)}
}

// copyBuffer overwrites dst's contents with src's so the next frame's
// "next" buffer starts as a copy of what's now on screen, ready for
// incremental redraws that only touch what actually changes.
func copyBuffer(dst, src *cellbuf.Buffer) {
	if dst.Width != src.Width || dst.Height != src.Height {
		dst.Resize(src.Width, src.Height)
	}
	copy(dst.Cells, src.Cells)
}

// Stats returns the most recently completed frame's timing.
func (r *Renderer) Stats() Stats { return r.stats }

// stopContext adapts a close-channel into the context.Context the rate
// limiter's Wait expects, without pulling in a full context for what is
// otherwise a plain stop signal.
type stopContext struct{ done chan struct{} }

func (stopContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (c stopContext) Done() <-chan struct{}     { return c.done }
func (stopContext) Value(any) any               { return nil }

func (c stopContext) Err() error {
	select {
	case <-c.done:
		return context.Canceled
	default:
		return nil
	}
}
