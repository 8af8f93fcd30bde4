// Package engine implements the rollback synchronization scheduler: frame
// counters, speculative execution of unconfirmed remote input, misprediction
// detection, rollback, and re-simulation, against any simulator satisfying
// the simulator.Simulator contract. The engine never inspects game state or
// input bits; it only ever compares them for equality.
package engine

import (
	"log"

	"framesync/input"
	"framesync/simulator"
)

// Type aliases keep the engine package's own public surface using these
// names directly, while the underlying types live in the dependency-free
// input package so simulator (which the engine depends on) can use them
// without importing the engine back.
type (
	PlayerID  = input.PlayerID
	InputBits = input.InputBits
	InputMap  = input.InputMap
)

// Tuning holds the construction-time parameters of spec.md §4.4.
type Tuning struct {
	// InputDelay is the number of frames a local input is artificially
	// delayed before it takes effect. Default 2 (~33ms at 60Hz).
	InputDelay int
	// MaxRollback is the deepest rewind the engine will perform before
	// giving up and accepting local divergence from a peer. Default 8.
	MaxRollback int
	// TargetFPS is the nominal simulation rate the pacer drives toward.
	TargetFPS int
}

// DefaultTuning returns spec.md's documented defaults.
func DefaultTuning() Tuning {
	return Tuning{InputDelay: 2, MaxRollback: 8, TargetFPS: 60}
}

// ReadLocalInputFunc is the `read_local_input()` environment contract hook:
// the engine calls it once per tick to learn the current (non-delayed)
// local controller state.
type ReadLocalInputFunc func() InputBits

// SendLocalInputFunc is the `send_local_input(frame, input)` environment
// contract hook: the engine calls it once per tick with the delayed frame
// number and the local input queued for it, for the environment to
// broadcast to peers.
type SendLocalInputFunc func(frame int64, bits InputBits)

// Option configures an Engine at construction time.
type Option func(*Engine)

// Strict selects the duplicate-confirmed-input policy (spec.md §7, §9 open
// question): true (the default) panics on a conflicting redelivery; false
// discards it and logs instead.
func Strict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithStats registers the on_stats diagnostic callback.
func WithStats(fn StatsFunc) Option {
	return func(e *Engine) { e.statsFn = fn }
}

// Engine is the rollback scheduler. It owns exactly one simulator for the
// duration of Start..Stop and is not safe for concurrent use: Tick and
// ReceiveRemoteInput must be called from the same goroutine (spec.md §5).
type Engine struct {
	tuning Tuning

	sim   simulator.Simulator
	muter simulator.AudioMuter // nil if sim does not support muting

	localPlayer PlayerID
	players     []PlayerID

	readLocalInput ReadLocalInputFunc
	sendLocalInput SendLocalInputFunc

	hist *history

	running        bool
	currentFrame   int64
	confirmedFrame int64

	hasPendingRollback bool
	pendingTarget      int64

	// receiveWatermark tracks, per remote player, the highest frame
	// number received from them. Absent local player. Init -1.
	receiveWatermark map[PlayerID]int64

	strict  bool
	statsFn StatsFunc

	rollbackCount int64
	maxDepth      int64
	lastDepth     int64
}

// New constructs an Engine for a fixed player set. players must include
// localPlayer exactly once; order is the controller slot order (spec.md
// §6.3) and is also the deterministic iteration order used when gathering
// a frame's input map.
func New(
	sim simulator.Simulator,
	localPlayer PlayerID,
	players []PlayerID,
	tuning Tuning,
	readLocalInput ReadLocalInputFunc,
	sendLocalInput SendLocalInputFunc,
	opts ...Option,
) *Engine {
	muter, _ := sim.(simulator.AudioMuter)

	e := &Engine{
		tuning:           tuning,
		sim:              sim,
		muter:            muter,
		localPlayer:      localPlayer,
		players:          append([]PlayerID(nil), players...),
		readLocalInput:   readLocalInput,
		sendLocalInput:   sendLocalInput,
		hist:             newHistory(tuning.MaxRollback + tuning.InputDelay + 2),
		confirmedFrame:   -1,
		pendingTarget:    noFrame,
		strict:           true,
		receiveWatermark: make(map[PlayerID]int64),
	}
	for _, p := range players {
		if p != localPlayer {
			e.receiveWatermark[p] = -1
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins driving the simulation: the frame counter resets to 0, the
// confirmed-frame watermark to -1, and history/watermarks are cleared. It
// is a no-op while already running, and safe to call again after Stop.
func (e *Engine) Start() {
	if e.running {
		return
	}
	e.running = true
	e.currentFrame = 0
	e.confirmedFrame = -1
	e.hasPendingRollback = false
	e.hist = newHistory(e.hist.Capacity())
	for p := range e.receiveWatermark {
		e.receiveWatermark[p] = -1
	}
}

// Stop ceases driving the simulation. The simulator is left exactly as it
// was after the last tick; it is not reset or torn down.
func (e *Engine) Stop() {
	e.running = false
}

// Running reports whether the engine is currently being driven.
func (e *Engine) Running() bool { return e.running }

// CurrentFrame returns the next frame number to be stepped.
func (e *Engine) CurrentFrame() int64 { return e.currentFrame }

// ConfirmedFrame returns the confirmed-frame watermark.
func (e *Engine) ConfirmedFrame() int64 { return e.confirmedFrame }

// ShouldStall reports whether the engine has run ahead of its peers by
// max-rollback frames and should not tick again until fresh input
// arrives (spec.md §5 backpressure). With no remote peers it never stalls.
func (e *Engine) ShouldStall() bool {
	if !e.running {
		return true
	}
	if len(e.receiveWatermark) == 0 {
		return false
	}
	lowest, first := int64(0), true
	for _, w := range e.receiveWatermark {
		if first || w < lowest {
			lowest, first = w, false
		}
	}
	return e.currentFrame-lowest >= int64(e.tuning.MaxRollback)
}

// Tick advances the simulation by exactly one frame, per spec.md §4.4.1.
// It is an atomic unit of work; nothing within it yields to any other
// logical task.
func (e *Engine) Tick() {
	if !e.running {
		return
	}

	// 1. Capture local input.
	localBits := e.readLocalInput()
	queueFrame := e.currentFrame + int64(e.tuning.InputDelay)
	if e.hist.PutConfirmed(queueFrame, e.localPlayer, localBits) {
		e.handleConflict(queueFrame, e.localPlayer)
	}
	if e.sendLocalInput != nil {
		e.sendLocalInput(queueFrame, localBits)
	}

	// 2. Execute pending rollback, if feasible. Eligibility (target >
	// confirmed-frame-watermark) was already established at scheduling
	// time in ReceiveRemoteInput; re-deriving "already pruned" from a
	// live confirmed-frame comparison here would be unsound, because the
	// very receipt that set the target can itself have advanced the
	// watermark up to that same frame in a two-player match (see
	// DESIGN.md). Whether history still holds a snapshot is the precise
	// test for "already pruned", so that is what gates execution here.
	if e.hasPendingRollback {
		target := e.pendingTarget
		e.hasPendingRollback = false
		if target >= 0 && target < e.currentFrame {
			if _, ok := e.hist.StateAt(target); ok {
				e.rollback(target)
			} else {
				log.Printf("engine: rollback target %d has no snapshot, discarding", target)
			}
		} else {
			log.Printf("engine: rollback target %d is out of horizon (current=%d), discarding", target, e.currentFrame)
		}
	}

	// 3. Snapshot current frame.
	e.hist.PutState(e.currentFrame, e.sim.SaveState())

	// 4. Gather inputs for current frame.
	inputs := e.gather(e.currentFrame)
	e.hist.PutUsed(e.currentFrame, inputs)

	// 5. Step.
	e.sim.Step(inputs)

	// 6. Update watermark, prune, publish stats.
	e.updateWatermark()
	e.prune()
	e.publishStats()

	// 7. Advance.
	e.currentFrame++
}

// gather builds the input map for frame: confirmed values where known,
// hold-last predictions elsewhere. Iteration is in the fixed, caller-given
// player order, so it is deterministic across participants.
func (e *Engine) gather(frame int64) InputMap {
	m := make(InputMap, len(e.players))
	for _, p := range e.players {
		if bits, ok := e.hist.ConfirmedFor(frame, p); ok {
			m[p] = bits
		} else {
			m[p] = predict(e.hist, frame, p, e.tuning.MaxRollback)
		}
	}
	return m
}

// handleConflict applies the strict/lenient duplicate-confirmed-input
// policy of spec.md §7.
func (e *Engine) handleConflict(frame int64, player PlayerID) {
	err := fmtConflict(frame, player)
	if e.strict {
		panic(err)
	}
	log.Printf("engine: %v (lenient mode, discarding)", err)
}

// ReceiveRemoteInput ingests a confirmed input from a remote peer, per
// spec.md §4.4.3. It must not be called concurrently with Tick.
func (e *Engine) ReceiveRemoteInput(frame int64, player PlayerID, bits InputBits) {
	if player == e.localPlayer {
		return
	}
	if _, known := e.receiveWatermark[player]; !known {
		log.Printf("engine: %v (discarding)", fmtUnknownPlayer(player))
		return
	}

	if frame < e.currentFrame {
		if used, ok := e.hist.UsedAt(frame); ok {
			if usedBits, ok := used[player]; ok && usedBits != bits {
				if frame > e.confirmedFrame {
					if !e.hasPendingRollback || frame < e.pendingTarget {
						e.pendingTarget = frame
						e.hasPendingRollback = true
					}
				}
			}
		}
	}

	if e.hist.PutConfirmed(frame, player, bits) {
		e.handleConflict(frame, player)
		return
	}

	if frame > e.receiveWatermark[player] {
		e.receiveWatermark[player] = frame
	}
	e.updateWatermark()
}

// rollback executes a rewind to target and re-steps every frame up to (but
// not including) current-frame, per spec.md §4.4.5.
func (e *Engine) rollback(target int64) {
	if e.muter != nil {
		e.muter.SetAudioMuted(true)
	}

	snapshot, _ := e.hist.StateAt(target)
	e.sim.LoadState(snapshot)

	for f := target; f < e.currentFrame; f++ {
		fresh := e.sim.SaveState()
		e.hist.PutState(f, fresh)

		inputs := e.gather(f)
		e.hist.PutUsed(f, inputs)

		e.sim.Step(inputs)
	}

	if e.muter != nil {
		e.muter.SetAudioMuted(false)
	}

	depth := e.currentFrame - target
	e.rollbackCount++
	e.lastDepth = depth
	if depth > e.maxDepth {
		e.maxDepth = depth
	}
}

// updateWatermark recomputes the confirmed-frame watermark per spec.md
// §4.4.6. It is monotonic: the result never decreases.
func (e *Engine) updateWatermark() {
	ceiling := e.currentFrame + int64(e.tuning.InputDelay)
	lowest := ceiling
	for _, w := range e.receiveWatermark {
		if w < lowest {
			lowest = w
		}
	}
	if lowest > e.confirmedFrame {
		e.confirmedFrame = lowest
	}
}

// prune removes every history entry more than one frame below the
// confirmed watermark, retaining one frame below it to simplify
// exact-equality boundary tests (spec.md §4.4.6).
func (e *Engine) prune() {
	threshold := e.confirmedFrame - 1
	if threshold < 0 {
		threshold = 0
	}
	e.hist.PruneBelow(threshold)
}

// audioMuted reports whether the simulator currently considers itself
// muted, if it exposes that capability.
func (e *Engine) audioMuted() bool {
	if reporter, ok := e.sim.(interface{ AudioMuted() bool }); ok {
		return reporter.AudioMuted()
	}
	return false
}

// Stats returns a snapshot of the engine's current diagnostic counters,
// independent of whether an on_stats callback is registered.
func (e *Engine) Stats() Stats {
	return Stats{
		CurrentFrame:      e.currentFrame,
		ConfirmedFrame:    e.confirmedFrame,
		RollbackCount:     e.rollbackCount,
		MaxRollbackDepth:  e.maxDepth,
		LastRollbackDepth: e.lastDepth,
		AudioMuted:        e.audioMuted(),
	}
}

func (e *Engine) publishStats() {
	if e.statsFn == nil {
		return
	}
	e.statsFn(e.Stats())
}
