package engine

import (
	"testing"
	"time"
)

// fakeClock replays a fixed sequence of timestamps, grounded on the same
// injectable-clock pattern as the pack's memory.ConcurrentStore tests.
type fakeClock struct {
	times []time.Time
	next  int
}

func (c *fakeClock) Now() time.Time {
	t := c.times[c.next]
	if c.next < len(c.times)-1 {
		c.next++
	}
	return t
}

func newEngineForPacerTest() *Engine {
	players := []PlayerID{"local", "remote"}
	return New(&fakeSim{}, "local", players, Tuning{InputDelay: 2, MaxRollback: 8, TargetFPS: 60},
		func() InputBits { return 0 },
		func(int64, InputBits) {},
	)
}

func TestPacerRunsOneTickPerFramePeriod(t *testing.T) {
	e := newEngineForPacerTest()
	e.Start()

	base := time.Unix(0, 0)
	clock := &fakeClock{times: []time.Time{base, base.Add(16 * time.Millisecond)}}
	p := NewPacer(e, 60, clock)

	p.Advance(nil) // establishes lastTick, ticks zero times
	p.Advance(nil) // ~16ms elapsed at 60fps (~16.67ms/frame) -> zero or one tick

	if e.CurrentFrame() > 1 {
		t.Fatalf("CurrentFrame() = %d after one frame period, want <= 1", e.CurrentFrame())
	}
}

func TestPacerCapsAccumulatorAfterLongPause(t *testing.T) {
	e := newEngineForPacerTest()
	e.Start()

	base := time.Unix(0, 0)
	clock := &fakeClock{times: []time.Time{base, base.Add(5 * time.Second)}}
	p := NewPacer(e, 60, clock)

	p.Advance(nil)
	p.Advance(nil)

	maxTicks := int64(accumulatorCap / (time.Second / 60))
	if e.CurrentFrame() > maxTicks {
		t.Fatalf("CurrentFrame() = %d after a long pause, want <= %d (accumulator cap)", e.CurrentFrame(), maxTicks)
	}
}

func TestPacerStopsAtStall(t *testing.T) {
	// A remote peer that never sends input, with MaxRollback 1, so
	// ShouldStall fires and the pacer takes its early-break path.
	players := []PlayerID{"local", "remote"}
	e := New(&fakeSim{}, "local", players, Tuning{InputDelay: 2, MaxRollback: 1, TargetFPS: 60},
		func() InputBits { return 0 },
		func(int64, InputBits) {},
	)
	e.Start()

	base := time.Unix(0, 0)
	clock := &fakeClock{times: []time.Time{base, base.Add(time.Second)}}
	p := NewPacer(e, 60, clock)

	p.Advance(nil)
	p.Advance(nil)

	if !e.ShouldStall() {
		t.Fatalf("expected the engine to be stalled after running far ahead of its silent peer")
	}
	if e.CurrentFrame() > int64(e.tuning.MaxRollback)+1 {
		t.Fatalf("CurrentFrame() = %d, pacer should have stopped ticking once stalled", e.CurrentFrame())
	}
}
