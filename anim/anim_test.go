package anim

import "testing"

func TestTimelineReachesToAtDuration(t *testing.T) {
	var last float64
	tl := NewTimeline(0, 10, 1.0, Linear)
	tl.OnUpdate = func(v float64) { last = v }
	tl.Advance(0.5)
	if last != 5 {
		t.Fatalf("expected halfway value 5, got %v", last)
	}
	tl.Advance(0.5)
	if !tl.Done() || last != 10 {
		t.Fatalf("expected done at value 10, got done=%v value=%v", tl.Done(), last)
	}
}

func TestTimelineIgnoresAdvanceOnceDone(t *testing.T) {
	tl := NewTimeline(0, 1, 1.0, Linear)
	tl.Advance(5)
	var updates int
	tl.OnUpdate = func(float64) { updates++ }
	tl.Advance(1)
	if updates != 0 {
		t.Errorf("expected no further updates once done, got %d", updates)
	}
}

func TestStopCancelsFurtherUpdates(t *testing.T) {
	var calls int
	tl := NewTimeline(0, 1, 1.0, Linear)
	tl.OnUpdate = func(float64) { calls++ }
	tl.Advance(0.1)
	tl.Stop()
	tl.Advance(0.1)
	if calls != 1 {
		t.Errorf("expected exactly one update before stop, got %d", calls)
	}
}

func TestGroupPrunesCompletedTimelines(t *testing.T) {
	var g Group
	g.Add(NewTimeline(0, 1, 0.1, Linear))
	g.Add(NewTimeline(0, 1, 10, Linear))
	g.Advance(0.2)
	if g.Len() != 1 {
		t.Fatalf("expected one timeline to remain after the short one completes, got %d", g.Len())
	}
}
