package engine

import "testing"

func TestPredictHoldsLastConfirmedValue(t *testing.T) {
	h := newHistory(16)
	h.PutConfirmed(5, "p1", 0x03)
	if bits := predict(h, 8, "p1", 8); bits != 0x03 {
		t.Fatalf("predict(8) = %v, want 0x03", bits)
	}
}

func TestPredictDefaultsToZeroBeyondWindow(t *testing.T) {
	h := newHistory(64)
	h.PutConfirmed(0, "p1", 0x07)
	// maxRollback=2 -> search window is 4 frames back; frame 0 is out of
	// range from frame 10.
	if bits := predict(h, 10, "p1", 2); bits != 0 {
		t.Fatalf("predict(10) = %v, want 0", bits)
	}
}

func TestPredictWithNoHistoryIsZero(t *testing.T) {
	h := newHistory(8)
	if bits := predict(h, 3, "p1", 8); bits != 0 {
		t.Fatalf("predict on empty history = %v, want 0", bits)
	}
}
