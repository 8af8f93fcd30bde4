package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// Wave selects an oscillator's waveform.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
)

// tone is a fixed-duration, fixed-frequency oscillator streamer, grounded
// on the pack's audio/effects.go oscillator. It carries no state that
// depends on wall-clock time, only on how many samples it has already
// produced, so replaying it from position 0 after a rollback is exactly
// reproducible.
type tone struct {
	freq     float64
	phase    float64
	wave     Wave
	rate     beep.SampleRate
	position int
	duration int
}

// Tone returns a short envelope-shaped oscillator tone, suitable for a
// simulator's deterministic sound effects (hits, jumps, shots). A Gate
// only silences the samples streamed while it is muted, so a tone started
// during a rollback's re-simulation is still heard once the gate unmutes;
// the demo arena therefore queues hit events only while unmuted and the
// client creates tones from that queue.
func Tone(freq float64, duration time.Duration, wave Wave) beep.Streamer {
	rate := beep.SampleRate(44100)
	samples := rate.N(duration)
	osc := &tone{freq: freq, wave: wave, rate: rate, duration: samples}
	attack := rate.N(duration / 10)
	release := rate.N(duration / 4)
	return withEnvelope(osc, samples, attack, release)
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.duration {
			return i, false
		}
		var val float64
		switch t.wave {
		case WaveSquare:
			if t.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0*t.phase - 1.0
		default:
			val = math.Sin(2 * math.Pi * t.phase)
		}
		samples[i][0] = val
		samples[i][1] = val

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func withEnvelope(s beep.Streamer, total, attack, release int) beep.Streamer {
	return &envelope{streamer: s, attack: attack, release: release, total: total}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, false
		}
		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		}
		releaseStart := e.total - e.release
		if e.position >= releaseStart && e.release > 0 {
			vol = float64(e.total-e.position) / float64(e.release)
			if vol < 0 {
				vol = 0
			}
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// Volume scales a streamer by a linear gain factor in [0, 1], using the
// pack's effects.Volume wrapper rather than a hand-rolled multiplier.
func Volume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain), Silent: false}
}

// Mixer is one persistent speaker output that one-shot effect streamers
// are mixed into as they occur, grounded on the pack's
// SoundManager.Initialize/mixer.Add pattern: the device is opened once
// for the process's lifetime instead of per sound effect.
type Mixer struct {
	mix *beep.Mixer
}

// NewMixer opens the speaker device at rate with the given buffer
// duration and starts it streaming from an initially empty mixer.
func NewMixer(rate beep.SampleRate, buffer time.Duration) (*Mixer, error) {
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, err
	}
	m := &Mixer{mix: &beep.Mixer{}}
	speaker.Play(m.mix)
	return m, nil
}

// Play mixes a one-shot streamer in immediately, wrapped by gate so any
// portion of it streamed while gate is muted renders as silence.
func (m *Mixer) Play(s beep.Streamer, gate *Gate) {
	m.mix.Add(gate.Wrap(s))
}
