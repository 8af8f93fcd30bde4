// Package audio provides rollback-safe sound generation for simulators:
// deterministic oscillator-driven tones gated by a mute toggle that a
// rollback can flip around a burst of re-simulated frames without
// stopping, rewinding, or otherwise perturbing the underlying stream's
// position.
package audio

import (
	"sync/atomic"

	"github.com/gopxl/beep"
)

// Gate silences a beep.Streamer while muted, by substituting silence for
// its samples rather than pausing it — pausing would leave the streamer's
// internal position out of sync with the frame that resumes driving it
// once a rollback's re-simulation catches back up to real time. The
// pattern is grounded on the pack's beep.Ctrl.Paused toggle, adapted so
// the streamer's read position never stalls.
type Gate struct {
	muted atomic.Bool
}

// NewGate returns an unmuted Gate.
func NewGate() *Gate {
	return &Gate{}
}

// SetMuted mutes or unmutes every streamer wrapped by this gate. Safe to
// call from any goroutine; the engine calls it from the simulation
// goroutine immediately before and after a rollback's re-simulation.
func (g *Gate) SetMuted(muted bool) {
	g.muted.Store(muted)
}

// Muted reports the gate's current state.
func (g *Gate) Muted() bool {
	return g.muted.Load()
}

// Wrap returns a streamer that passes samples through from s unchanged
// while the gate is unmuted, and substitutes silence while muted.
func (g *Gate) Wrap(s beep.Streamer) beep.Streamer {
	return &gated{gate: g, streamer: s}
}

type gated struct {
	gate     *Gate
	streamer beep.Streamer
}

func (g *gated) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.streamer.Stream(samples)
	if g.gate.Muted() {
		for i := 0; i < n; i++ {
			samples[i][0] = 0
			samples[i][1] = 0
		}
	}
	return n, ok
}

func (g *gated) Err() error { return g.streamer.Err() }
