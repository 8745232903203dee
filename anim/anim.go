// Package anim implements time-driven property animation timelines: a
// Timeline is a value that exposes Advance(delta) and emits property
// deltas; the frame loop advances every active timeline once per tick.
// There is no implicit scheduler and no hidden goroutine; cancellation
// is explicit via Stop.
package anim

// Easing maps a normalized progress value in [0,1] to an eased output,
// also normally in [0,1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// EaseInOutQuad accelerates then decelerates.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - pow2(-2*t+2)/2
}

func pow2(x float64) float64 { return x * x }

// Timeline animates a single float value from From to To over Duration
// seconds, calling OnUpdate with the eased value every Advance, and
// OnDone once when it completes.
type Timeline struct {
	From, To float64
	Duration float64
	Ease     Easing

	OnUpdate func(value float64)
	OnDone   func()

	elapsed float64
	done    bool
	started bool
}

// NewTimeline returns a timeline ready to Advance; it does not start
// itself, so callers control exactly when motion begins.
func NewTimeline(from, to, duration float64, ease Easing) *Timeline {
	if ease == nil {
		ease = Linear
	}
	return &Timeline{From: from, To: to, Duration: duration, Ease: ease}
}

// Advance moves the timeline forward by delta seconds and fires OnUpdate
// with the current eased value. It is idempotent once Done: further
// Advance calls after completion are no-ops.
func (tl *Timeline) Advance(delta float64) {
	if tl.done {
		return
	}
	tl.started = true
	tl.elapsed += delta
	progress := 1.0
	if tl.Duration > 0 {
		progress = tl.elapsed / tl.Duration
	}
	if progress >= 1 {
		progress = 1
		tl.done = true
	}
	value := tl.From + (tl.To-tl.From)*tl.Ease(progress)
	if tl.OnUpdate != nil {
		tl.OnUpdate(value)
	}
	if tl.done && tl.OnDone != nil {
		tl.OnDone()
	}
}

// Done reports whether the timeline has reached its end.
func (tl *Timeline) Done() bool { return tl.done }

// Stop cancels the timeline in place; no further OnUpdate/OnDone calls
// fire even if Advance is called again. Explicit — there is no
// implicit scheduler to cancel on the caller's behalf.
func (tl *Timeline) Stop() { tl.done = true }

// Reset rewinds the timeline to its start, ready to Advance again.
func (tl *Timeline) Reset() {
	tl.elapsed = 0
	tl.done = false
	tl.started = false
}

// Group advances a set of timelines together and prunes completed ones,
// the shape the renderer's frame loop drives every tick.
type Group struct {
	timelines []*Timeline
}

// Add registers tl with the group.
func (g *Group) Add(tl *Timeline) { g.timelines = append(g.timelines, tl) }

// Advance steps every live timeline by delta and drops the ones that
// finished this tick.
func (g *Group) Advance(delta float64) {
	live := g.timelines[:0]
	for _, tl := range g.timelines {
		tl.Advance(delta)
		if !tl.Done() {
			live = append(live, tl)
		}
	}
	g.timelines = live
}

// Len reports how many timelines are still active.
func (g *Group) Len() int { return len(g.timelines) }
