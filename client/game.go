// Package client wires the rollback engine, a built-in simulator, the
// relay transport, and an optional diagnostics dashboard behind an
// ebiten.Game, the same assembly shape as the teacher's
// client/game.go (Game.Update/Draw driving a world via the network).
package client

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/gopxl/beep"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"framesync/audio"
	"framesync/config"
	"framesync/diagnostics"
	"framesync/engine"
	"framesync/input"
	"framesync/relay"
	"framesync/simulator/demo"
)

// hitToneDuration and hitBaseFreq ground the demo's hit sound in a short,
// clearly audible square-wave blip; PitchVariant nudges the frequency up
// so repeated hits don't all sound identical.
const (
	hitToneDuration = 120 * time.Millisecond
	hitBaseFreq     = 220.0
	hitFreqStep     = 40.0
)

// Game implements ebiten.Game, driving engine.Engine at a fixed rate
// via engine.Pacer and forwarding relay traffic each frame.
type Game struct {
	cfg config.Config

	conn  *relay.Client
	eng   *engine.Engine
	pacer *engine.Pacer
	arena *demo.Arena

	audioMixer *audio.Mixer

	localPlayer input.PlayerID
	localBits   input.InputBits

	dashboard *diagnostics.Dashboard

	roomID     string
	playerList []string
	started    bool
	statusText string
}

// NewGame constructs a Game in its pre-match lobby state; the engine
// and simulator are not built until game-started arrives, since the
// player order and shared seed (spec.md §6.2/§6.3) are not known
// until then.
func NewGame(ctx context.Context, cfg config.Config, dashboard *diagnostics.Dashboard) (*Game, error) {
	g := &Game{cfg: cfg, dashboard: dashboard, statusText: "connecting..."}

	conn, err := relay.Dial(ctx, "ws://"+cfg.Relay.Address, relay.LobbyHandler{
		OnRoomCreated: g.onRoomCreated,
		OnRoomJoined:  g.onRoomJoined,
		OnPlayerJoined: func(msg relay.PlayerJoinedMsg) { g.setRoster(msg.Players) },
		OnPlayerLeft:   func(msg relay.PlayerLeftMsg) { g.setRoster(msg.Players) },
		OnHostChanged:  func(msg relay.HostChangedMsg) { g.statusText = fmt.Sprintf("host is now %s", msg.NewHostID) },
		OnGameStarted:  g.onGameStarted,
		OnRematch:      g.onRematch,
	})
	if err != nil {
		return nil, fmt.Errorf("client: dial relay: %w", err)
	}
	g.conn = conn

	go func() {
		if err := conn.ReadLoop(); err != nil {
			log.Printf("client: relay read loop ended: %v", err)
		}
	}()
	go func() {
		if err := conn.WriteLoop(); err != nil {
			log.Printf("client: relay write loop ended: %v", err)
		}
	}()

	conn.CreateRoom(cfg.Game.PlayerName)
	return g, nil
}

func (g *Game) setRoster(players []relay.RosterEntry) {
	g.playerList = make([]string, len(players))
	for i, p := range players {
		g.playerList[i] = p.PlayerID
	}
}

func (g *Game) onRoomCreated(msg relay.RoomCreatedMsg) {
	g.roomID = msg.RoomID
	g.localPlayer = input.PlayerID(msg.PlayerID)
	g.setRoster(msg.Players)
	g.statusText = fmt.Sprintf("room %s created, waiting for opponents (press Enter to start)", msg.RoomID)
}

func (g *Game) onRoomJoined(msg relay.RoomJoinedMsg) {
	g.roomID = msg.RoomID
	g.localPlayer = input.PlayerID(msg.PlayerID)
	g.setRoster(msg.Players)
	g.statusText = fmt.Sprintf("joined room %s", msg.RoomID)
}

// onGameStarted builds the simulator and engine from the ordered
// player list and shared seed per spec.md §6.2/§6.3.
func (g *Game) onGameStarted(msg relay.GameStartedMsg) {
	players := make([]input.PlayerID, len(msg.PlayerOrder))
	for i, id := range msg.PlayerOrder {
		players[i] = input.PlayerID(id)
	}

	arena := demo.New(players, uint64(msg.Seed))
	g.arena = arena

	if g.audioMixer == nil {
		mixer, err := audio.NewMixer(beep.SampleRate(44100), 100*time.Millisecond)
		if err != nil {
			log.Printf("client: audio mixer unavailable, hits will be silent: %v", err)
		} else {
			g.audioMixer = mixer
		}
	}

	tuning := engine.Tuning{
		InputDelay:  g.cfg.Engine.InputDelay,
		MaxRollback: g.cfg.Engine.MaxRollback,
		TargetFPS:   g.cfg.Engine.TargetFPS,
	}

	opts := []engine.Option{engine.Strict(g.cfg.Engine.Strict)}
	if g.dashboard != nil {
		opts = append(opts, engine.WithStats(func(s engine.Stats) {
			g.dashboard.Update(diagnostics.Snapshot{
				CurrentFrame:      s.CurrentFrame,
				ConfirmedFrame:    s.ConfirmedFrame,
				RollbackCount:     s.RollbackCount,
				MaxRollbackDepth:  s.MaxRollbackDepth,
				LastRollbackDepth: s.LastRollbackDepth,
				AudioMuted:        s.AudioMuted,
			})
		}))
	}

	eng := engine.New(arena, g.localPlayer, players, tuning,
		func() input.InputBits { return g.localBits },
		func(frame int64, bits input.InputBits) { g.conn.SendInput(frame, g.localPlayer, bits) },
		opts...,
	)
	eng.Start()

	g.eng = eng
	g.pacer = engine.NewPacer(eng, tuning.TargetFPS, nil)
	g.started = true
	g.statusText = ""
}

func (g *Game) onRematch(relay.RematchMsg) {
	if g.eng != nil {
		g.eng.Stop()
	}
	g.started = false
	g.statusText = "rematch requested, waiting for game-started"
}

// Update implements ebiten.Game. It reads local keys, drains queued
// remote input (spec.md §5's ingest-ordering rule), and advances the
// engine via its pacer.
func (g *Game) Update() error {
	if !g.started {
		if ebiten.IsKeyPressed(ebiten.KeyEnter) {
			g.conn.StartGame(g.cfg.Game.Type, nil)
		}
		return nil
	}

	g.localBits = g.readLocalBits()
	g.conn.DrainInto(g.eng)
	g.pacer.Advance(nil)
	g.playHitSounds()
	return nil
}

// playHitSounds turns every hit the arena queued during this Advance
// into an audible tone, gated through the arena's audio gate so the
// sound mixer stays exactly as rollback-safe as the arena's own state.
func (g *Game) playHitSounds() {
	if g.audioMixer == nil {
		return
	}
	for _, hit := range g.arena.DrainHitEvents() {
		freq := hitBaseFreq + float64(hit.PitchVariant)*hitFreqStep
		tone := audio.Volume(audio.Tone(freq, hitToneDuration, audio.WaveSquare), 0.5)
		g.audioMixer.Play(tone, g.arena.AudioGate())
	}
}

func (g *Game) readLocalBits() input.InputBits {
	var bits input.InputBits
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		bits |= demo.BitLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		bits |= demo.BitRight
	}
	if ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		bits |= demo.BitJump
	}
	if ebiten.IsKeyPressed(ebiten.KeyJ) {
		bits |= demo.BitAttack
	}
	return bits
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 10, G: 10, B: 15, A: 255})
	if !g.started {
		ebitenutil.DebugPrint(screen, g.statusText)
		return
	}
	g.arena.SetRenderTarget(screen)
	g.arena.Render()
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
