package engine

// Stats is the diagnostic snapshot published via the on_stats callback of
// spec.md §4.4. It is deliberately flat and JSON-friendly so a diagnostics
// surface (see the diagnostics package) can render or export it without a
// translation layer.
type Stats struct {
	CurrentFrame       int64 `json:"currentFrame"`
	ConfirmedFrame     int64 `json:"confirmedFrame"`
	RollbackCount      int64 `json:"rollbackCount"`
	MaxRollbackDepth   int64 `json:"maxRollbackDepth"`
	LastRollbackDepth  int64 `json:"lastRollbackDepth"`
	AudioMuted         bool  `json:"audioMuted"`
}

// StatsFunc is the on_stats callback contract: the engine calls it once
// per tick with the current snapshot. It must return quickly; the engine
// calls it synchronously from inside Tick.
type StatsFunc func(Stats)
