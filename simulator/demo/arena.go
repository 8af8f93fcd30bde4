// Package demo implements a small deterministic arena-combat simulator
// satisfying the simulator.Simulator contract, generalized from the
// teacher's platformer step function (world.updatePlayer / world.Simulate)
// into fixed-point integer arithmetic: rollback requires that stepping
// from the same state with the same inputs always produces the same next
// state, and floating point's rounding is not guaranteed consistent
// across compilers or architectures the way integer arithmetic is.
package demo

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"framesync/audio"
	"framesync/input"
)

var (
	arenaBackground = color.RGBA{R: 20, G: 20, B: 30, A: 255}
	fighterColor    = color.RGBA{R: 80, G: 180, B: 220, A: 255}
	hitFlashColor   = color.RGBA{R: 230, G: 60, B: 60, A: 255}
)

// Input bit layout: 4 of the 16 available bits are used; the others are
// ignored.
const (
	BitLeft   input.Bits = 1 << 0
	BitRight  input.Bits = 1 << 1
	BitJump   input.Bits = 1 << 2
	BitAttack input.Bits = 1 << 3
)

// Fixed-point scale: one pixel is 256 sub-pixel units.
const subpixelsPerPixel = 256

const (
	arenaWidth  = 960 * subpixelsPerPixel
	arenaHeight = 540 * subpixelsPerPixel
	groundY     = 480 * subpixelsPerPixel

	moveAccel   = 3 * subpixelsPerPixel
	maxSpeed    = 10 * subpixelsPerPixel
	friction    = 1 * subpixelsPerPixel
	gravity     = 2 * subpixelsPerPixel
	jumpSpeed   = -28 * subpixelsPerPixel
	attackReach = 36 * subpixelsPerPixel
	attackDur   = 8 // frames
	attackCD    = 18
	hitDamage   = 8
	knockback   = 18 * subpixelsPerPixel
	startHP     = 100
)

// fighter is one player's combat state, laid out so SaveState's field
// order is deterministic regardless of map iteration.
type fighter struct {
	id       input.PlayerID
	x, y     int32
	vx, vy   int32
	facing   int32 // +1 or -1
	hp       int32
	attackAt int32 // frames remaining in an active attack swing, 0 if none
	cooldown int32
}

// Arena is a deterministic two-or-more player melee simulator. It
// implements simulator.Simulator and simulator.AudioMuter.
type Arena struct {
	frame    int64
	fighters map[input.PlayerID]*fighter
	order    []input.PlayerID // fixed at construction, sorted

	rng uint64 // xorshift64* state, advanced only from Step, never Render

	gate   *audio.Gate
	target *ebiten.Image

	hitFlashFrames map[input.PlayerID]int32

	// hitEvents is a transient queue a client drains once per real frame
	// to trigger a hit sound. It is intentionally not part of
	// SaveState/LoadState: a rollback's re-simulation must never refill it,
	// since Step only appends to it while the arena's audio gate is
	// unmuted (see Step below).
	hitEvents []HitEvent

	bodySprite  *ebiten.Image
	flashSprite *ebiten.Image
}

// HitEvent is one landed hit, queued for a client to turn into a sound.
// PitchVariant is a cosmetic 0-3 value derived from the arena's PRNG so
// repeated hits don't all sound identical.
type HitEvent struct {
	Target       input.PlayerID
	PitchVariant uint8
}

// New constructs an Arena for the given fixed player set, placing fighters
// at even spacing along the ground.
func New(players []input.PlayerID, seed uint64) *Arena {
	order := append([]input.PlayerID(nil), players...)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	a := &Arena{
		fighters:       make(map[input.PlayerID]*fighter, len(order)),
		order:          order,
		rng:            seed | 1, // xorshift64* requires a nonzero, odd seed
		gate:           audio.NewGate(),
		hitFlashFrames: make(map[input.PlayerID]int32, len(order)),
	}
	spacing := int32(arenaWidth / int32(len(order)+1))
	for i, id := range order {
		facing := int32(1)
		if i%2 == 1 {
			facing = -1
		}
		a.fighters[id] = &fighter{
			id:     id,
			x:      spacing * int32(i+1),
			y:      groundY,
			facing: facing,
			hp:     startHP,
		}
	}
	return a
}

// spriteFor lazily creates the render-only sprite images. Called only
// from Render, never from Step, so it has no effect on determinism.
func (a *Arena) spriteFor() {
	if a.bodySprite == nil {
		a.bodySprite = ebiten.NewImage(24, 48)
		a.bodySprite.Fill(fighterColor)
	}
	if a.flashSprite == nil {
		a.flashSprite = ebiten.NewImage(24, 48)
		a.flashSprite.Fill(hitFlashColor)
	}
}

// SetRenderTarget installs the ebiten image Render draws onto. The engine
// never calls Render concurrently with Step, so this needs no locking.
func (a *Arena) SetRenderTarget(img *ebiten.Image) {
	a.target = img
}

// AudioGate exposes the arena's mute gate so a client can wrap its sound
// effects' streamers before handing them to a speaker/mixer.
func (a *Arena) AudioGate() *audio.Gate {
	return a.gate
}

func (a *Arena) SetAudioMuted(muted bool) { a.gate.SetMuted(muted) }
func (a *Arena) AudioMuted() bool         { return a.gate.Muted() }

// nextRandom advances the arena's PRNG and returns the next value. Its
// state is part of SaveState, so replaying the same input sequence from
// the same snapshot reproduces the same sequence of "random" outcomes.
func (a *Arena) nextRandom() uint64 {
	x := a.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	a.rng = x
	return x * 2685821657736338717
}

// Step advances the arena by one frame. Fighters are processed in sorted
// player-id order so that any order-dependent effect (here, who lands a
// simultaneous hit first) is deterministic.
func (a *Arena) Step(inputs input.Map) {
	a.frame++
	for _, k := range a.order {
		if a.hitFlashFrames[k] > 0 {
			a.hitFlashFrames[k]--
		}
	}

	for _, id := range a.order {
		f := a.fighters[id]
		bits := inputs[id]

		switch {
		case bits&BitLeft != 0 && bits&BitRight == 0:
			f.vx -= moveAccel
			f.facing = -1
		case bits&BitRight != 0 && bits&BitLeft == 0:
			f.vx += moveAccel
			f.facing = 1
		default:
			if f.vx > 0 {
				f.vx -= friction
				if f.vx < 0 {
					f.vx = 0
				}
			} else if f.vx < 0 {
				f.vx += friction
				if f.vx > 0 {
					f.vx = 0
				}
			}
		}
		if f.vx > maxSpeed {
			f.vx = maxSpeed
		} else if f.vx < -maxSpeed {
			f.vx = -maxSpeed
		}

		grounded := f.y >= groundY
		if bits&BitJump != 0 && grounded {
			f.vy = jumpSpeed
		}

		f.vy += gravity

		f.x += f.vx
		f.y += f.vy

		if f.x < 0 {
			f.x = 0
			f.vx = 0
		} else if f.x > arenaWidth {
			f.x = arenaWidth
			f.vx = 0
		}
		if f.y > groundY {
			f.y = groundY
			f.vy = 0
		}

		if f.cooldown > 0 {
			f.cooldown--
		}
		if f.attackAt > 0 {
			f.attackAt--
		}
		if bits&BitAttack != 0 && f.cooldown == 0 && f.attackAt == 0 {
			f.attackAt = attackDur
			f.cooldown = attackCD
		}
	}

	// Resolve attacks in sorted order so a simultaneous double-hit always
	// assigns damage in the same relative order across every peer.
	for _, attackerID := range a.order {
		attacker := a.fighters[attackerID]
		if attacker.attackAt != attackDur {
			continue // only the first frame of a swing lands a hit
		}
		for _, targetID := range a.order {
			if targetID == attackerID {
				continue
			}
			target := a.fighters[targetID]
			dx := target.x - attacker.x
			if dx < 0 {
				dx = -dx
			}
			facingCorrect := (attacker.facing > 0 && target.x >= attacker.x) ||
				(attacker.facing < 0 && target.x <= attacker.x)
			if facingCorrect && dx <= attackReach && target.hp > 0 {
				target.hp -= hitDamage
				if target.hp < 0 {
					target.hp = 0
				}
				target.vx = knockback * attacker.facing
				a.hitFlashFrames[targetID] = 6

				// The PRNG draw happens unconditionally so a.rng advances
				// identically whether or not this Step is a live frame or
				// a rollback replay; only queueing the resulting event for
				// playback is conditional, so a replay never re-sounds a
				// hit that already played on its first, live Step.
				variant := uint8(a.nextRandom() % 4)
				if !a.gate.Muted() {
					a.hitEvents = append(a.hitEvents, HitEvent{Target: targetID, PitchVariant: variant})
				}
			}
		}
	}
}

// DrainHitEvents returns every hit queued since the last call and clears
// the queue. A client should call this once per real frame, after the
// engine's Advance has settled any rollback, and turn each event into a
// sound.
func (a *Arena) DrainHitEvents() []HitEvent {
	if len(a.hitEvents) == 0 {
		return nil
	}
	out := a.hitEvents
	a.hitEvents = nil
	return out
}

// SaveState encodes every fighter's fields plus PRNG state, in fixed
// player-sorted order, so the byte sequence is a pure function of arena
// state and never of map iteration order.
func (a *Arena) SaveState() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, a.frame)
	binary.Write(&buf, binary.BigEndian, a.rng)
	binary.Write(&buf, binary.BigEndian, int32(len(a.order)))
	for _, id := range a.order {
		f := a.fighters[id]
		binary.Write(&buf, binary.BigEndian, f.x)
		binary.Write(&buf, binary.BigEndian, f.y)
		binary.Write(&buf, binary.BigEndian, f.vx)
		binary.Write(&buf, binary.BigEndian, f.vy)
		binary.Write(&buf, binary.BigEndian, f.facing)
		binary.Write(&buf, binary.BigEndian, f.hp)
		binary.Write(&buf, binary.BigEndian, f.attackAt)
		binary.Write(&buf, binary.BigEndian, f.cooldown)
		binary.Write(&buf, binary.BigEndian, a.hitFlashFrames[id])
	}
	return buf.Bytes()
}

// LoadState restores a snapshot written by SaveState. The player set and
// its sorted order are fixed at construction and are not re-derived from
// the snapshot.
func (a *Arena) LoadState(snapshot []byte) {
	r := bytes.NewReader(snapshot)
	binary.Read(r, binary.BigEndian, &a.frame)
	binary.Read(r, binary.BigEndian, &a.rng)
	var count int32
	binary.Read(r, binary.BigEndian, &count)
	for i := int32(0); i < count && i < int32(len(a.order)); i++ {
		id := a.order[i]
		f := a.fighters[id]
		binary.Read(r, binary.BigEndian, &f.x)
		binary.Read(r, binary.BigEndian, &f.y)
		binary.Read(r, binary.BigEndian, &f.vx)
		binary.Read(r, binary.BigEndian, &f.vy)
		binary.Read(r, binary.BigEndian, &f.facing)
		binary.Read(r, binary.BigEndian, &f.hp)
		binary.Read(r, binary.BigEndian, &f.attackAt)
		binary.Read(r, binary.BigEndian, &f.cooldown)
		var flash int32
		binary.Read(r, binary.BigEndian, &flash)
		a.hitFlashFrames[id] = flash
	}
}

// Render draws every fighter as a colored rectangle onto the installed
// render target. It is never called during a rollback's re-simulation
// (see simulator.Simulator), only once per real frame.
func (a *Arena) Render() {
	if a.target == nil {
		return
	}
	a.spriteFor()
	a.target.Fill(arenaBackground)
	for _, id := range a.order {
		f := a.fighters[id]
		x := float32(f.x) / subpixelsPerPixel
		y := float32(f.y) / subpixelsPerPixel
		sprite := a.bodySprite
		if a.hitFlashFrames[id] > 0 {
			sprite = a.flashSprite
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(x-12), float64(y-48))
		a.target.DrawImage(sprite, op)
		ebitenutil.DebugPrintAt(a.target, string(id), int(x)-12, int(y)-64)
	}
}
