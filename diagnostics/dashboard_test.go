package diagnostics

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newTestDashboard(t *testing.T) (*Dashboard, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	screen.SetSize(80, 24)
	d, err := OpenWithScreen(screen)
	if err != nil {
		t.Fatalf("OpenWithScreen: %v", err)
	}
	t.Cleanup(d.Close)
	return d, screen
}

func rowText(screen tcell.SimulationScreen, y, width int) string {
	runes := make([]rune, 0, width)
	for x := 0; x < width; x++ {
		mainc, _, _, _ := screen.GetContent(x, y)
		runes = append(runes, mainc)
	}
	return string(runes)
}

func TestUpdateShowsAudioUnmutedByDefault(t *testing.T) {
	d, screen := newTestDashboard(t)
	d.Update(Snapshot{CurrentFrame: 10, ConfirmedFrame: 8})

	_, height := screen.Size()
	line := rowText(screen, height-1, 80)
	if !containsSubstring(line, "AUDIO") {
		t.Fatalf("expected AUDIO indicator in status line, got %q", line)
	}
}

func TestUpdateShowsMutedWhenAudioMuted(t *testing.T) {
	d, screen := newTestDashboard(t)
	d.Update(Snapshot{AudioMuted: true})

	_, height := screen.Size()
	line := rowText(screen, height-1, 80)
	if !containsSubstring(line, "MUTED") {
		t.Fatalf("expected MUTED indicator when audio is muted, got %q", line)
	}
}

func TestUpdateShowsFrameCounters(t *testing.T) {
	d, screen := newTestDashboard(t)
	d.Update(Snapshot{CurrentFrame: 120, ConfirmedFrame: 115})

	_, height := screen.Size()
	line := rowText(screen, height-1, 80)
	if !containsSubstring(line, "115/120") {
		t.Fatalf("expected frame 115/120 in status line, got %q", line)
	}
}

func containsSubstring(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
