package relay

import (
	"context"
	"encoding/json"
	"log"

	"nhooyr.io/websocket"

	"framesync/input"
)

// RemoteInputReceiver is the subset of *engine.Engine a Client needs;
// named here instead of importing framesync/engine so this package
// stays usable from the relay server side without pulling the engine
// in (mirroring the import-cycle-avoidance decision recorded for the
// input package — see DESIGN.md).
type RemoteInputReceiver interface {
	ReceiveRemoteInput(frame int64, player input.PlayerID, bits input.InputBits)
}

// LobbyHandler receives the non-input messages of spec.md §6.1 as they
// arrive: room membership, host changes, and game start. A client
// embeds whatever subset it cares about; unhandled kinds are simply
// not delivered to an unset field.
type LobbyHandler struct {
	OnRoomCreated  func(RoomCreatedMsg)
	OnRoomJoined   func(RoomJoinedMsg)
	OnPlayerJoined func(PlayerJoinedMsg)
	OnPlayerLeft   func(PlayerLeftMsg)
	OnHostChanged  func(HostChangedMsg)
	OnGameStarted  func(GameStartedMsg)
	OnRematch      func(RematchMsg)
}

// Client is the engine-facing half of the relay connection. Per
// spec.md §5's ingest-ordering rule ("queue incoming network frames
// and drain the queue immediately before each tick"), incoming input
// messages are buffered on inbox and drained by DrainInto rather than
// applied directly from the read goroutine — ReceiveRemoteInput must
// never run concurrently with Tick.
type Client struct {
	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	handler LobbyHandler

	inbox    chan InputMsg
	outbound chan []byte
}

// Dial connects to a relay server's websocket endpoint. The caller
// must start ReadLoop and WriteLoop (typically each in its own
// goroutine, as in yinhylin-open-rounds/client/game.go's
// ReadMessages/WriteMessages pair) before traffic flows.
func Dial(ctx context.Context, url string, handler LobbyHandler) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:     conn,
		ctx:      cctx,
		cancel:   cancel,
		handler:  handler,
		inbox:    make(chan InputMsg, 1024),
		outbound: make(chan []byte, 1024),
	}, nil
}

// Close ends the relay connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// send enqueues an outbound envelope; WriteLoop delivers it.
func (c *Client) send(kind Kind, payload interface{}) {
	data, err := Encode(kind, payload)
	if err != nil {
		log.Printf("relay: encode %s: %v", kind, err)
		return
	}
	select {
	case c.outbound <- data:
	case <-c.ctx.Done():
	}
}

func (c *Client) CreateRoom(playerName string) {
	c.send(KindCreateRoom, CreateRoomMsg{PlayerName: playerName})
}

func (c *Client) JoinRoom(roomID, playerName string) {
	c.send(KindJoinRoom, JoinRoomMsg{RoomID: roomID, PlayerName: playerName})
}

func (c *Client) StartGame(gameType string, seedInputs map[string]string) {
	c.send(KindStartGame, StartGameMsg{GameType: gameType, SeedInputs: seedInputs})
}

func (c *Client) Rematch() {
	c.send(KindRematch, RematchMsg{})
}

// SendInput transmits the local player's confirmed input for frame,
// the ↔ server direction of spec.md §6.1's input message.
func (c *Client) SendInput(frame int64, player input.PlayerID, bits input.InputBits) {
	c.send(KindInput, InputMsg{Frame: frame, PlayerID: player, Bits: bits})
}

// ReadLoop reads frames until the connection closes or ctx is
// canceled, dispatching lobby messages immediately to handler and
// queuing input messages for DrainInto. Run it in its own goroutine.
func (c *Client) ReadLoop() error {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return err
		}
		env, err := Decode(data)
		if err != nil {
			continue // malformed inbound message: discard silently, per spec.md §7
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env Envelope) {
	switch env.Kind {
	case KindInput:
		var msg InputMsg
		if json.Unmarshal(env.Data, &msg) != nil {
			return
		}
		select {
		case c.inbox <- msg:
		default:
			log.Printf("relay: input inbox full, dropping frame %d from %s", msg.Frame, msg.PlayerID)
		}
	case KindRoomCreated:
		if c.handler.OnRoomCreated == nil {
			return
		}
		var msg RoomCreatedMsg
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handler.OnRoomCreated(msg)
		}
	case KindRoomJoined:
		if c.handler.OnRoomJoined == nil {
			return
		}
		var msg RoomJoinedMsg
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handler.OnRoomJoined(msg)
		}
	case KindPlayerJoined:
		if c.handler.OnPlayerJoined == nil {
			return
		}
		var msg PlayerJoinedMsg
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handler.OnPlayerJoined(msg)
		}
	case KindPlayerLeft:
		if c.handler.OnPlayerLeft == nil {
			return
		}
		var msg PlayerLeftMsg
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handler.OnPlayerLeft(msg)
		}
	case KindHostChanged:
		if c.handler.OnHostChanged == nil {
			return
		}
		var msg HostChangedMsg
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handler.OnHostChanged(msg)
		}
	case KindGameStarted:
		if c.handler.OnGameStarted == nil {
			return
		}
		var msg GameStartedMsg
		if json.Unmarshal(env.Data, &msg) == nil {
			c.handler.OnGameStarted(msg)
		}
	case KindRematch:
		if c.handler.OnRematch == nil {
			return
		}
		c.handler.OnRematch(RematchMsg{})
	}
}

// WriteLoop pumps queued outbound envelopes onto the connection until
// it closes or ctx is canceled. Run it in its own goroutine.
func (c *Client) WriteLoop() error {
	for {
		select {
		case data := <-c.outbound:
			if err := c.conn.Write(c.ctx, websocket.MessageText, data); err != nil {
				return err
			}
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

// DrainInto delivers every currently-queued input message to engine,
// per spec.md §5: call this immediately before each Tick, never
// concurrently with one.
func (c *Client) DrainInto(engine RemoteInputReceiver) {
	for {
		select {
		case msg := <-c.inbox:
			engine.ReceiveRemoteInput(msg.Frame, msg.PlayerID, msg.Bits)
		default:
			return
		}
	}
}
