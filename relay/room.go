package relay

import (
	"sync"
)

// phase tracks a room's position in the lobby → match → rematch
// lifecycle described by spec.md §6.1's message table ("before match
// start only" for roster-change messages).
type phase int

const (
	phaseLobby phase = iota
	phaseStarted
)

// participant is one connected player's roster bookkeeping and
// message sink. The actual websocket plumbing lives in server.go;
// room only tracks membership and host election, generalized from
// byebyebruce-lockstepserver's room/game split so the transport and
// the roster bookkeeping stay independent of each other.
type participant struct {
	id       string
	name     string
	outbound chan []byte
}

// Room is one match's lobby-through-game roster. A room outlives its
// match: rematch returns it to phaseLobby rather than allocating a
// fresh room, echoing yinhylin-open-rounds/server/server.go's single
// long-lived state generalized to per-room scope.
type Room struct {
	mu      sync.Mutex
	id      string
	phase   phase
	hostID  string
	order   []string // insertion order, also join order for host election
	members map[string]*participant
}

func newRoom(id string) *Room {
	return &Room{
		id:      id,
		members: make(map[string]*participant),
	}
}

// roster returns the current player list in join order.
func (r *Room) roster() []RosterEntry {
	entries := make([]RosterEntry, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.members[id]; ok {
			entries = append(entries, RosterEntry{PlayerID: p.id, Name: p.name})
		}
	}
	return entries
}

// addMember admits a participant and, if the room was empty, makes
// them host. Returns false if the room has already started its match.
func (r *Room) addMember(p *participant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == phaseStarted {
		return false
	}
	r.members[p.id] = p
	r.order = append(r.order, p.id)
	if r.hostID == "" {
		r.hostID = p.id
	}
	return true
}

// removeMember drops a participant and migrates the host if they were
// it. Returns the new host id (empty if the room is now empty) and
// whether a migration occurred.
func (r *Room) removeMember(id string) (newHost string, migrated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.hostID != id {
		return r.hostID, false
	}
	if len(r.order) == 0 {
		r.hostID = ""
		return "", false
	}
	r.hostID = r.order[0]
	return r.hostID, true
}

// isHost reports whether id is the room's current host, under lock so
// callers never race a concurrent host migration.
func (r *Room) isHost(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID == id
}

// start transitions the room into its match phase, fixing the final
// ordered player list per spec.md §6.3.
func (r *Room) start() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = phaseStarted
	order := append([]string(nil), r.order...)
	return order
}

// rematch returns the room to its lobby phase without altering roster
// or host, per spec.md §6.1's rematch semantics.
func (r *Room) rematch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = phaseLobby
}

func (r *Room) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}

// broadcast fans a pre-encoded envelope out to every current member
// except excludeID (pass "" to exclude none). Mirrors
// yinhylin-open-rounds/server/server.go's publish: a full outbound
// channel means a slow/dead peer, dropped rather than blocking the
// room.
func (r *Room) broadcast(payload []byte, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.members {
		if id == excludeID {
			continue
		}
		select {
		case p.outbound <- payload:
		default:
		}
	}
}

// send delivers a pre-encoded envelope to exactly one member, if still
// present.
func (r *Room) send(id string, payload []byte) {
	r.mu.Lock()
	p, ok := r.members[id]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case p.outbound <- payload:
	default:
	}
}
