// Package simulator defines the adapter contract a game implements to be
// driven by the engine package, plus the optional capability interfaces
// the engine probes for via type assertion. The contract is deliberately
// small: the engine only ever steps, saves, loads, and renders.
package simulator

import "framesync/input"

// Simulator is the minimal surface the engine needs to drive a game
// deterministically through rollback and re-simulation. Step must be a
// pure function of (current internal state, inputs): given the same
// state and the same inputs, it must always produce the same next state,
// including any pseudo-random outcomes and any rendering side effects it
// gates off.
type Simulator interface {
	// Step advances internal state by exactly one frame given the total
	// input map for that frame. It must not render.
	Step(inputs input.Map)

	// SaveState returns a self-contained encoding of all state Step can
	// read or mutate. The engine treats it as opaque.
	SaveState() []byte

	// LoadState restores internal state from a snapshot previously
	// returned by SaveState. After LoadState, stepping with the same
	// inputs that were used historically must reproduce the same
	// outcome bit-for-bit.
	LoadState(snapshot []byte)

	// Render draws the current internal state. The engine itself never
	// calls it; the host application does, outside of Tick (for example
	// from the render callback given to Pacer.Advance), so it never runs
	// during re-simulation.
	Render()
}

// AudioMuter is an optional capability: simulators that produce audio
// implement it so the engine can silence sound effects while re-stepping
// frames during a rollback, per spec.md §4.1. A simulator that does not
// implement AudioMuter is assumed silent or to already handle this on
// its own.
type AudioMuter interface {
	SetAudioMuted(muted bool)
}
