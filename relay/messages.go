// Package relay implements the signaling/relay transport described in
// spec.md §6: a reliable, ordered, bidirectional JSON-over-websocket
// channel carrying lobby and per-frame input messages between match
// participants and a relay server.
//
// The teacher's wire format is protobuf generated from a .proto file
// that was never retrieved into this module's reference material, so
// this package follows the JSON envelope idiom demonstrated, with
// source present, by touka-aoi-tanzlaurel's websocket transport and
// the-grid-p2p's NetMessage{Type, Data} shape instead.
package relay

import (
	"encoding/json"
	"fmt"

	"framesync/input"
)

// Kind discriminates an envelope's payload per spec.md §6.1's message
// table.
type Kind string

const (
	KindCreateRoom  Kind = "create-room"
	KindJoinRoom    Kind = "join-room"
	KindRoomCreated Kind = "room-created"
	KindRoomJoined  Kind = "room-joined"
	KindPlayerJoined Kind = "player-joined"
	KindPlayerLeft  Kind = "player-left"
	KindHostChanged Kind = "host-changed"
	KindStartGame   Kind = "start-game"
	KindGameStarted Kind = "game-started"
	KindInput       Kind = "input"
	KindRematch     Kind = "rematch"
)

// Envelope is the outer frame every message travels in. Data holds the
// kind-specific payload, re-marshaled into a concrete struct by the
// reader once Kind is known — the same two-step decode the-grid-p2p's
// NetMessage uses to avoid a combinatorial switch inside one struct.
type Envelope struct {
	Kind Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload into an Envelope and marshals it to bytes
// ready for a single websocket text frame.
func Encode(kind Kind, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("relay: encode %s: %w", kind, err)
	}
	return json.Marshal(Envelope{Kind: kind, Data: data})
}

// Decode splits a received frame into its envelope; callers then
// json.Unmarshal Data into the struct matching Kind.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("relay: decode envelope: %w", err)
	}
	return env, nil
}

// CreateRoomMsg → server: request a new match room.
type CreateRoomMsg struct {
	PlayerName string `json:"player_name"`
}

// JoinRoomMsg → server: join an existing match by room id.
type JoinRoomMsg struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// RosterEntry names one lobby participant, used by room-created,
// room-joined, player-joined and player-left.
type RosterEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// RoomCreatedMsg / RoomJoinedMsg ← server: session established.
type RoomCreatedMsg struct {
	RoomID     string        `json:"room_id"`
	PlayerID   string        `json:"player_id"`
	HostID     string        `json:"host_id"`
	Players    []RosterEntry `json:"players"`
}

type RoomJoinedMsg struct {
	RoomID   string        `json:"room_id"`
	PlayerID string        `json:"player_id"`
	HostID   string        `json:"host_id"`
	Players  []RosterEntry `json:"players"`
}

// PlayerJoinedMsg / PlayerLeftMsg ← server: roster change.
// player-joined is only sent before match start, since a started room
// rejects joins; player-left is sent whenever a member disconnects,
// including after the match has started.
type PlayerJoinedMsg struct {
	PlayerID string        `json:"player_id"`
	Players  []RosterEntry `json:"players"`
}

type PlayerLeftMsg struct {
	PlayerID string        `json:"player_id"`
	Players  []RosterEntry `json:"players"`
}

// HostChangedMsg ← server: host migration.
type HostChangedMsg struct {
	NewHostID string `json:"new_host_id"`
}

// StartGameMsg → server (host only): initiate the match. SeedInputs
// carries whatever the game-type descriptor needs to derive a shared
// seed (ROM URL, core URL, or nothing at all for the built-in demo).
type StartGameMsg struct {
	GameType   string            `json:"game_type"`
	SeedInputs map[string]string `json:"seed_inputs,omitempty"`
}

// GameStartedMsg ← server: every participant initializes its
// simulator from this message. PlayerOrder pins slot i to
// PlayerOrder[i] per spec.md §6.3.
type GameStartedMsg struct {
	PlayerOrder []string `json:"player_order"`
	Seed        uint32   `json:"seed"`
	GameType    string   `json:"game_type"`
}

// InputMsg ↔ server: one player's confirmed input for one frame,
// relayed to every other participant unchanged.
type InputMsg struct {
	Frame    int64           `json:"frame"`
	PlayerID input.PlayerID  `json:"player_id"`
	Bits     input.InputBits `json:"bits"`
}

// RematchMsg → server (host) / ← server (all participants): terminate
// the current match and return everyone to the pre-start lobby. It
// carries no fields.
type RematchMsg struct{}
