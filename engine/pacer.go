package engine

import "time"

// accumulatorCap is the maximum wall-clock debt the pacer will carry, per
// spec.md §4.5: beyond this the engine does not try to catch up after a
// long pause (backgrounded tab, debugger breakpoint, etc.).
const accumulatorCap = 100 * time.Millisecond

// Clock abstracts wall-clock time so tests can drive the pacer without
// sleeping in real time, the pattern grounded on memory.ConcurrentStore's
// injectable clock in the pack.
type Clock interface {
	Now() time.Time
}

// WallClock is the production Clock, backed by time.Now.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// Pacer drives an Engine at a fixed simulation rate using a wall-clock
// accumulator (spec.md §4.5): each call to Advance measures elapsed time
// since the previous call and runs zero or more ticks to consume it.
type Pacer struct {
	engine      *Engine
	clock       Clock
	framePeriod time.Duration
	accumulator time.Duration
	lastTick    time.Time
	started     bool
}

// NewPacer builds a pacer for engine running at targetFPS, using clock as
// its time source.
func NewPacer(e *Engine, targetFPS int, clock Clock) *Pacer {
	if clock == nil {
		clock = WallClock{}
	}
	return &Pacer{
		engine:      e,
		clock:       clock,
		framePeriod: time.Second / time.Duration(targetFPS),
	}
}

// Advance measures elapsed wall-clock time and steps the engine zero or
// more times to consume it, then calls render exactly once, regardless of
// how many ticks executed, per spec.md §4.5.
func (p *Pacer) Advance(render func()) {
	now := p.clock.Now()
	if !p.started {
		p.lastTick = now
		p.started = true
	}
	elapsed := now.Sub(p.lastTick)
	p.lastTick = now

	p.accumulator += elapsed
	if p.accumulator > accumulatorCap {
		p.accumulator = accumulatorCap
	}

	for p.accumulator >= p.framePeriod {
		if p.engine.ShouldStall() {
			break
		}
		p.engine.Tick()
		p.accumulator -= p.framePeriod
	}

	if render != nil {
		render()
	}
}
