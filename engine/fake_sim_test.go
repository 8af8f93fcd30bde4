package engine

import (
	"encoding/binary"
	"sort"
)

// fakeSim is a minimal deterministic simulator for engine tests: its state
// is a single accumulator folding in every player's input bits in sorted
// player order, so two runs fed the same input sequence from the same
// starting state always produce byte-identical snapshots.
type fakeSim struct {
	acc    int64
	muted  bool
	frames int
}

func (s *fakeSim) Step(inputs InputMap) {
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.acc = s.acc*31 + int64(inputs[PlayerID(id)])
	}
	s.frames++
}

func (s *fakeSim) SaveState() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(s.acc))
	return buf
}

func (s *fakeSim) LoadState(snapshot []byte) {
	s.acc = int64(binary.BigEndian.Uint64(snapshot))
}

func (s *fakeSim) Render() {}

func (s *fakeSim) SetAudioMuted(muted bool) { s.muted = muted }

func (s *fakeSim) AudioMuted() bool { return s.muted }
