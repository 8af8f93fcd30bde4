// Package config loads the TOML configuration that parameterizes the
// engine's rollback tuning (spec.md §4.4) and the relay/client
// connection settings, following the teacher's utils.ReadTOML pattern.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// EngineConfig mirrors engine.Tuning plus the duplicate-input
// strictness flag (spec.md §9), so it can be loaded without this
// package importing framesync/engine.
type EngineConfig struct {
	InputDelay  int  `toml:"input_delay"`
	MaxRollback int  `toml:"max_rollback"`
	TargetFPS   int  `toml:"target_fps"`
	Strict      bool `toml:"strict"`
}

// RelayConfig holds the address the client dials and the server
// listens on, plus the websocket origin allowlist
// (websocket.AcceptOptions.OriginPatterns, as in the teacher's
// server.go).
type RelayConfig struct {
	Address       string   `toml:"address"`
	AcceptOrigins []string `toml:"accept_origins"`
}

// GameConfig selects which built-in simulator a client or host runs
// and its player-visible name, generalizing the teacher's GameConfig
// (a single "Bar" string) into the fields a match actually needs.
type GameConfig struct {
	Type       string `toml:"type"`
	PlayerName string `toml:"player_name"`
}

// Config is the top-level TOML document.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Relay  RelayConfig  `toml:"relay"`
	Game   GameConfig   `toml:"game"`
}

// Default returns spec.md's documented defaults plus a loopback relay
// address, suitable as a fallback when no config file is present.
func Default() Config {
	return Config{
		Engine: EngineConfig{InputDelay: 2, MaxRollback: 8, TargetFPS: 60, Strict: true},
		Relay:  RelayConfig{Address: "localhost:4242", AcceptOrigins: []string{"localhost:4242"}},
		Game:   GameConfig{Type: "demo", PlayerName: "player"},
	}
}

// ReadTOML loads and parses a config file, generalized from the
// teacher's confutils/utils.go ReadToml to return an error instead of
// panicking — a missing or malformed config file is an ordinary
// startup condition, not a programmer error.
func ReadTOML(fileName string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(fileName)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", fileName, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", fileName, err)
	}
	return cfg, nil
}
