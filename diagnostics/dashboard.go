// Package diagnostics renders a live terminal view of an engine's
// rollback statistics, driven by the engine.Stats on_stats callback
// (spec.md §4.4, §7's "User-visible failure is via the stats
// callback"). It owns no engine state of its own; it only displays
// the last Stats snapshot handed to it.
package diagnostics

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

var (
	colorAudioMuted   = tcell.NewRGBColor(220, 50, 50)
	colorAudioUnmuted = tcell.NewRGBColor(50, 180, 80)
	colorRollback     = tcell.NewRGBColor(220, 160, 40)
	colorNormalBg     = tcell.ColorBlack
	colorLabelText    = tcell.ColorWhite
)

// Snapshot is the subset of engine.Stats the dashboard displays. It
// is a plain struct rather than an import of framesync/engine, so
// this package has no dependency on the engine at all — a diagnostics
// screen is useful against any source of these six values, not only
// the framesync rollback engine.
type Snapshot struct {
	CurrentFrame      int64
	ConfirmedFrame    int64
	RollbackCount     int64
	MaxRollbackDepth  int64
	LastRollbackDepth int64
	AudioMuted        bool
}

// Dashboard owns a tcell screen and redraws one status line per Update
// call.
type Dashboard struct {
	screen tcell.Screen
	last   Snapshot
}

// Open initializes and returns a running Dashboard against the real
// terminal. Callers must call Close when done.
func Open() (*Dashboard, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("diagnostics: new screen: %w", err)
	}
	return OpenWithScreen(screen)
}

// OpenWithScreen wires a Dashboard to an already-constructed screen,
// letting tests substitute tcell.NewSimulationScreen for the real
// terminal, the same seam the pack's systems tests use.
func OpenWithScreen(screen tcell.Screen) (*Dashboard, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("diagnostics: init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(colorNormalBg).Foreground(colorLabelText))
	return &Dashboard{screen: screen}, nil
}

// Close tears down the terminal screen.
func (d *Dashboard) Close() {
	d.screen.Fini()
}

// Update records the latest stats and redraws the status line. It can
// be called from an engine.StatsFunc closure that copies engine.Stats
// into a Snapshot (as client/game.go does), or from any other poll loop.
func (d *Dashboard) Update(s Snapshot) {
	d.last = s
	d.render()
}

func (d *Dashboard) render() {
	d.screen.Clear()
	width, height := d.screen.Size()
	y := height - 1
	if y < 0 {
		return
	}
	x := 0

	audioColor := colorAudioUnmuted
	audioLabel := " AUDIO "
	if d.last.AudioMuted {
		audioColor = colorAudioMuted
		audioLabel = " MUTED "
	}
	x = d.drawSegment(x, y, width, audioLabel, tcell.ColorBlack, audioColor)

	frameLabel := fmt.Sprintf(" frame %d/%d ", d.last.ConfirmedFrame, d.last.CurrentFrame)
	x = d.drawSegment(x, y, width, frameLabel, colorLabelText, colorNormalBg)

	rollbackLabel := fmt.Sprintf(" rollbacks %d (max depth %d, last %d) ",
		d.last.RollbackCount, d.last.MaxRollbackDepth, d.last.LastRollbackDepth)
	rollbackBg := colorNormalBg
	if d.last.RollbackCount > 0 {
		rollbackBg = colorRollback
	}
	d.drawSegment(x, y, width, rollbackLabel, tcell.ColorBlack, rollbackBg)

	d.screen.Show()
}

// drawSegment writes text starting at x on row y, clipped to width,
// and returns the x position immediately after it.
func (d *Dashboard) drawSegment(x, y, width int, text string, fg, bg tcell.Color) int {
	style := tcell.StyleDefault.Foreground(fg).Background(bg)
	for _, ch := range text {
		if x >= width {
			break
		}
		d.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}

// PollEvents drains terminal resize/key events so the screen stays
// responsive; callers typically run this in its own goroutine.
func (d *Dashboard) PollEvents(onQuit func()) {
	for {
		switch ev := d.screen.PollEvent().(type) {
		case *tcell.EventResize:
			d.screen.Sync()
			d.render()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				if onQuit != nil {
					onQuit()
				}
				return
			}
		}
	}
}
