package engine

import "testing"

func TestHistoryCapacityIsPowerOfTwo(t *testing.T) {
	h := newHistory(10)
	if h.Capacity() != 16 {
		t.Fatalf("Capacity() = %d, want 16", h.Capacity())
	}
}

func TestPutConfirmedDetectsConflict(t *testing.T) {
	h := newHistory(8)
	if conflict := h.PutConfirmed(5, "p1", 0x01); conflict {
		t.Fatalf("first write reported a conflict")
	}
	if conflict := h.PutConfirmed(5, "p1", 0x01); conflict {
		t.Fatalf("identical redelivery reported a conflict")
	}
	if conflict := h.PutConfirmed(5, "p1", 0x02); !conflict {
		t.Fatalf("conflicting redelivery was not detected")
	}
}

func TestConfirmedForUnknownFrame(t *testing.T) {
	h := newHistory(8)
	if _, ok := h.ConfirmedFor(3, "p1"); ok {
		t.Fatalf("expected no entry for an untouched frame")
	}
}

func TestPruneBelowRemovesOnlyOlderFrames(t *testing.T) {
	h := newHistory(8)
	for f := int64(0); f < 8; f++ {
		h.PutConfirmed(f, "p1", InputBits(f))
	}
	h.PruneBelow(4)
	for f := int64(0); f < 4; f++ {
		if _, ok := h.ConfirmedFor(f, "p1"); ok {
			t.Fatalf("frame %d should have been pruned", f)
		}
	}
	for f := int64(4); f < 8; f++ {
		if _, ok := h.ConfirmedFor(f, "p1"); !ok {
			t.Fatalf("frame %d should still be present", f)
		}
	}
}

func TestStaleRingPositionIsInvisible(t *testing.T) {
	h := newHistory(4) // capacity 4
	h.PutConfirmed(0, "p1", 0x01)
	h.PutConfirmed(4, "p1", 0x02) // same ring slot as frame 0
	if _, ok := h.ConfirmedFor(0, "p1"); ok {
		t.Fatalf("frame 0 should be invisible once its slot is reclaimed by frame 4")
	}
	if bits, ok := h.ConfirmedFor(4, "p1"); !ok || bits != 0x02 {
		t.Fatalf("frame 4 = (%v, %v), want (0x02, true)", bits, ok)
	}
}

func TestUsedRoundTrip(t *testing.T) {
	h := newHistory(8)
	if _, ok := h.UsedAt(2); ok {
		t.Fatalf("expected no used-inputs before any write")
	}
	h.PutUsed(2, InputMap{"p1": 0x03, "p2": 0x00})
	used, ok := h.UsedAt(2)
	if !ok || used["p1"] != 0x03 {
		t.Fatalf("UsedAt(2) = (%v, %v)", used, ok)
	}
}
