package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "framesync.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func TestReadTOMLOverridesSpecifiedFields(t *testing.T) {
	path := writeTestConfig(t, `
[engine]
input_delay = 3
max_rollback = 12

[relay]
address = "example.test:9999"

[game]
type = "demo"
player_name = "alice"
`)

	cfg, err := ReadTOML(path)
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	if cfg.Engine.InputDelay != 3 || cfg.Engine.MaxRollback != 12 {
		t.Fatalf("engine tuning = %+v, want input_delay=3 max_rollback=12", cfg.Engine)
	}
	if cfg.Relay.Address != "example.test:9999" {
		t.Fatalf("relay address = %q, want example.test:9999", cfg.Relay.Address)
	}
	if cfg.Game.PlayerName != "alice" {
		t.Fatalf("player name = %q, want alice", cfg.Game.PlayerName)
	}
}

func TestReadTOMLPreservesDefaultsForOmittedFields(t *testing.T) {
	path := writeTestConfig(t, `
[relay]
address = "example.test:9999"
`)

	cfg, err := ReadTOML(path)
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	defaults := Default()
	if cfg.Engine.TargetFPS != defaults.Engine.TargetFPS {
		t.Fatalf("target fps = %d, want default %d", cfg.Engine.TargetFPS, defaults.Engine.TargetFPS)
	}
	if cfg.Engine.Strict != defaults.Engine.Strict {
		t.Fatalf("strict = %v, want default %v", cfg.Engine.Strict, defaults.Engine.Strict)
	}
}

func TestReadTOMLMissingFileReturnsError(t *testing.T) {
	if _, err := ReadTOML(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("ReadTOML on a missing file should return an error, not panic or succeed")
	}
}
