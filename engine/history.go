package engine

// noFrame marks a ring buffer slot as not currently holding any frame's
// history, mirroring the NilTick sentinel in the teacher's ring buffer.
const noFrame int64 = -1

// slot holds every payload kind the history store owns for one frame:
// the confirmed inputs received/produced for it, the inputs actually fed
// to the simulator when it was stepped, and the pre-step state snapshot.
// A ring buffer position holds at most one frame's slot at a time; when a
// new frame claims a position its previous occupant's data is discarded.
type slot struct {
	frame     int64
	confirmed InputMap
	used      InputMap
	state     []byte
}

// history is the frame history store of spec.md §4.2: three parallel
// frame-keyed mappings realized as one power-of-two ring buffer indexed by
// frame mod capacity, per spec.md §9's preference over a general map.
type history struct {
	slots []slot
	mask  int64
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// newHistory allocates a ring buffer with capacity at least minCapacity,
// rounded up to a power of two.
func newHistory(minCapacity int) *history {
	capacity := nextPowerOfTwo(minCapacity)
	slots := make([]slot, capacity)
	for i := range slots {
		slots[i].frame = noFrame
	}
	return &history{slots: slots, mask: int64(capacity - 1)}
}

func (h *history) indexOf(frame int64) int {
	return int(frame & h.mask)
}

// ensure returns the slot for frame, resetting it to empty first if it
// currently belongs to a different frame (either never written, or a
// stale occupant from capacity frames ago).
func (h *history) ensure(frame int64) *slot {
	s := &h.slots[h.indexOf(frame)]
	if s.frame != frame {
		s.frame = frame
		s.confirmed = make(InputMap)
		s.used = nil
		s.state = nil
	}
	return s
}

// at returns the slot for frame only if it is currently live, i.e. the
// last write to that ring position was for this exact frame number.
func (h *history) at(frame int64) *slot {
	s := &h.slots[h.indexOf(frame)]
	if s.frame != frame {
		return nil
	}
	return s
}

// PutConfirmed records a confirmed input for (frame, player). It returns
// true if this write conflicts with an already-stored value for the same
// (frame, player) — the caller decides, per the strict/lenient policy,
// whether that is fatal. A duplicate delivery of an identical value is
// not a conflict and is silently accepted.
func (h *history) PutConfirmed(frame int64, player PlayerID, bits InputBits) (conflict bool) {
	s := h.ensure(frame)
	if existing, ok := s.confirmed[player]; ok {
		return existing != bits
	}
	s.confirmed[player] = bits
	return false
}

// ConfirmedFor returns the confirmed input for (frame, player), if known.
func (h *history) ConfirmedFor(frame int64, player PlayerID) (InputBits, bool) {
	s := h.at(frame)
	if s == nil {
		return 0, false
	}
	bits, ok := s.confirmed[player]
	return bits, ok
}

// PutUsed records the input map actually fed to the simulator for frame,
// overwriting whatever was recorded there before (a rollback re-step does
// exactly this, per spec.md §4.4.5 step 3c).
func (h *history) PutUsed(frame int64, inputs InputMap) {
	s := h.ensure(frame)
	s.used = inputs.Clone()
}

// UsedAt returns the input map used to step frame, if it has been stepped.
func (h *history) UsedAt(frame int64) (InputMap, bool) {
	s := h.at(frame)
	if s == nil || s.used == nil {
		return nil, false
	}
	return s.used, true
}

// PutState stores the pre-step snapshot for frame, overwriting any stale
// snapshot left at that ring position.
func (h *history) PutState(frame int64, snapshot []byte) {
	s := h.ensure(frame)
	s.state = snapshot
}

// StateAt returns the pre-step snapshot for frame, if one has been taken.
func (h *history) StateAt(frame int64) ([]byte, bool) {
	s := h.at(frame)
	if s == nil || s.state == nil {
		return nil, false
	}
	return s.state, true
}

// PruneBelow removes every entry whose frame is < threshold. Frames at or
// above threshold are left untouched, including ones that simply are not
// present.
func (h *history) PruneBelow(threshold int64) {
	for i := range h.slots {
		if h.slots[i].frame != noFrame && h.slots[i].frame < threshold {
			h.slots[i] = slot{frame: noFrame}
		}
	}
}

// OccupiedFrames reports every frame number currently retained by the
// store, for invariant tests (spec.md §8 "history bounded").
func (h *history) OccupiedFrames() []int64 {
	frames := make([]int64, 0, len(h.slots))
	for _, s := range h.slots {
		if s.frame != noFrame {
			frames = append(frames, s.frame)
		}
	}
	return frames
}

// Capacity returns the number of frames the store can hold at once.
func (h *history) Capacity() int {
	return len(h.slots)
}
