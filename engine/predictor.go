package engine

// predict implements the hold-last policy of spec.md §4.3: the input for
// (frame, player) when no confirmed value is known yet is the most recent
// confirmed value for that player at any earlier frame, searched backward
// up to 2*maxRollback frames. Human controller input has high temporal
// autocorrelation, so holding the last value is right far more often than
// guessing zero.
func predict(h *history, frame int64, player PlayerID, maxRollback int) InputBits {
	window := 2 * maxRollback
	for back := int64(1); back <= int64(window); back++ {
		candidate := frame - back
		if candidate < 0 {
			break
		}
		if bits, ok := h.ConfirmedFor(candidate, player); ok {
			return bits
		}
	}
	return InputBits(0)
}
