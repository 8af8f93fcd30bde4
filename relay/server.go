package relay

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"nhooyr.io/websocket"
)

// Server is the relay: a lobby/room directory plus a websocket
// accept loop, generalized from yinhylin-open-rounds/server/server.go's
// single global subscriber set into many independent rooms, each
// holding its own roster and host (relay/room.go).
type Server struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	acceptOrigins []string
	seedSource    *rand.Rand
	seedMu        sync.Mutex
}

// NewServer constructs an empty relay. acceptOrigins mirrors the
// teacher's explicit OriginPatterns allowlist in websocket.AcceptOptions.
func NewServer(acceptOrigins []string) *Server {
	return &Server{
		rooms:         make(map[string]*Room),
		acceptOrigins: acceptOrigins,
		seedSource:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// nextSeed returns a fresh 31-bit-minimum unsigned seed per spec.md §6.2.
func (s *Server) nextSeed() uint32 {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seedSource.Uint32() &^ (1 << 31) // clear the sign bit, keep 31 bits
}

func (s *Server) getRoom(id string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[id]
}

func (s *Server) createRoom() *Room {
	id := ksuid.New().String()
	room := newRoom(id)
	s.mu.Lock()
	s.rooms[id] = room
	s.mu.Unlock()
	return room
}

func (s *Server) dropRoomIfEmpty(room *Room) {
	if !room.empty() {
		return
	}
	s.mu.Lock()
	delete(s.rooms, room.id)
	s.mu.Unlock()
}

// ServeHTTP accepts one websocket connection and runs its lifetime;
// suitable for http.ListenAndServe's handler directly, as in the
// teacher's Server.ServeHTTP.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.acceptOrigins,
	})
	if err != nil {
		log.Println("relay: accept:", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	if err := s.handleConnection(r.Context(), c); err != nil {
		log.Println("relay: connection closed:", err)
	}
}

// handleConnection runs one participant's read loop and write pump
// until the connection closes, the same split as the teacher's
// handleConnection: one goroutine reads frames and dispatches them,
// the outer loop drains the outbound channel.
func (s *Server) handleConnection(ctx context.Context, c *websocket.Conn) error {
	p := &participant{
		id:       ksuid.New().String(),
		outbound: make(chan []byte, 256),
	}
	var room *Room

	defer func() {
		if room == nil {
			return
		}
		newHost, migrated := room.removeMember(p.id)
		payload, _ := Encode(KindPlayerLeft, PlayerLeftMsg{PlayerID: p.id, Players: room.roster()})
		room.broadcast(payload, "")
		if migrated && newHost != "" {
			hostPayload, _ := Encode(KindHostChanged, HostChangedMsg{NewHostID: newHost})
			room.broadcast(hostPayload, "")
		}
		s.dropRoomIfEmpty(room)
	}()

	readErrs := make(chan error, 1)
	go func() {
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				readErrs <- err
				return
			}
			env, err := Decode(data)
			if err != nil {
				continue // malformed inbound message: discard silently, per spec.md §7
			}
			if newRoom := s.dispatch(p, room, env); newRoom != nil {
				room = newRoom
			}
		}
	}()

	for {
		select {
		case payload := <-p.outbound:
			if err := c.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		case err := <-readErrs:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch interprets one decoded envelope for a participant that may
// or may not yet belong to a room. It returns the room the
// participant newly joined this call, or nil if they already had one
// or the envelope did not cause a join.
func (s *Server) dispatch(p *participant, current *Room, env Envelope) *Room {
	switch env.Kind {
	case KindCreateRoom:
		if current != nil {
			return nil
		}
		var msg CreateRoomMsg
		if json.Unmarshal(env.Data, &msg) != nil {
			return nil
		}
		p.name = msg.PlayerName
		room := s.createRoom()
		room.addMember(p)
		payload, _ := Encode(KindRoomCreated, RoomCreatedMsg{
			RoomID: room.id, PlayerID: p.id, HostID: room.hostID, Players: room.roster(),
		})
		room.send(p.id, payload)
		return room

	case KindJoinRoom:
		if current != nil {
			return nil
		}
		var msg JoinRoomMsg
		if json.Unmarshal(env.Data, &msg) != nil {
			return nil
		}
		room := s.getRoom(msg.RoomID)
		p.name = msg.PlayerName
		if room == nil || !room.addMember(p) {
			return nil
		}
		joinedPayload, _ := Encode(KindRoomJoined, RoomJoinedMsg{
			RoomID: room.id, PlayerID: p.id, HostID: room.hostID, Players: room.roster(),
		})
		room.send(p.id, joinedPayload)
		announcePayload, _ := Encode(KindPlayerJoined, PlayerJoinedMsg{PlayerID: p.id, Players: room.roster()})
		room.broadcast(announcePayload, p.id)
		return room

	case KindStartGame:
		if current == nil || !current.isHost(p.id) {
			return nil
		}
		var msg StartGameMsg
		if json.Unmarshal(env.Data, &msg) != nil {
			return nil
		}
		order := current.start()
		payload, _ := Encode(KindGameStarted, GameStartedMsg{
			PlayerOrder: order, Seed: s.nextSeed(), GameType: msg.GameType,
		})
		current.broadcast(payload, "")
		return nil

	case KindInput:
		if current == nil {
			return nil
		}
		// Relayed unchanged per spec.md §6.1: re-wrap the
		// already-decoded payload rather than re-deriving it from
		// a fresh InputMsg struct, so the sender's exact bytes pass
		// through untouched.
		payload, err := json.Marshal(Envelope{Kind: KindInput, Data: env.Data})
		if err == nil {
			current.broadcast(payload, p.id)
		}
		return nil

	case KindRematch:
		if current == nil || !current.isHost(p.id) {
			return nil
		}
		current.rematch()
		payload, _ := Encode(KindRematch, RematchMsg{})
		current.broadcast(payload, "")
		return nil
	}
	return nil
}

// ListenAndServe starts the relay on addr, blocking until ctx is
// canceled. Generalized from the teacher's Run function's
// net.Listen/http.Server pairing.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- httpServer.Serve(l) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return httpServer.Close()
	}
}
