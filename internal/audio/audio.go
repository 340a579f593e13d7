// Package audio turns the simulation into sound: an ambient chord whose
// low-pass cutoff opens as the probability in the field rises.
package audio

import (
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/sim"
)

const (
	SampleRate = 44100
	BufferSize = 1024

	minCutoff = 300.0
	maxCutoff = 1200.0
	volume    = 0.25
)

// G2 Bb2 D3 F3 A3
var chord = []float64{98.00, 116.54, 146.83, 174.61, 220.00}

// Synth renders the chord. SetLevel may be called from any goroutine while
// Fill runs on the audio callback; everything else belongs to Fill.
type Synth struct {
	mu     sync.Mutex
	target float64

	level  float64
	t      float64
	filter [2]float64
	delay  [2][]float64
	head   int
}

func NewSynth() *Synth {
	n := int(SampleRate * 0.6)
	return &Synth{delay: [2][]float64{make([]float64, n), make([]float64, n)}}
}

// SetLevel sets the brightness target in [0, 1].
func (s *Synth) SetLevel(v float64) {
	v = math.Max(0, math.Min(1, v))
	s.mu.Lock()
	s.target = v
	s.mu.Unlock()
}

// cutoff maps a level in [0, 1] to the filter cutoff in Hz.
func cutoff(level float64) float64 {
	return minCutoff + (maxCutoff-minCutoff)*level
}

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4*math.Abs(p-0.5) - 1
}

// lowPass is a one-pole filter step returning the new state.
func lowPass(sample, cutoff, dt, state float64) float64 {
	rc := 1 / (2 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// Fill writes one stereo buffer. It matches the portaudio callback shape.
func (s *Synth) Fill(out [][]float32) {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	const dt = 1.0 / SampleRate
	g := 1 / float64(len(chord))
	for i := range out[0] {
		s.level = s.level*0.9995 + target*0.0005
		fc := cutoff(s.level)

		var l, r float64
		for j, f := range chord {
			lfo := 0.7 + 0.3*math.Sin(s.t*0.2+float64(j))
			l += triangle(s.t*f*0.999) * g * lfo
			r += triangle(s.t*f*1.001) * g * lfo
		}
		s.filter[0] = lowPass(l, fc, dt, s.filter[0])
		s.filter[1] = lowPass(r, fc, dt, s.filter[1])

		dl, dr := s.delay[0][s.head], s.delay[1][s.head]
		mixL := s.filter[0] + dl*0.3 + dr*0.1
		mixR := s.filter[1] + dr*0.3 + dl*0.1
		s.delay[0][s.head] = mixL * 0.7
		s.delay[1][s.head] = mixR * 0.7
		s.head = (s.head + 1) % len(s.delay[0])

		out[0][i] = float32(mixL * volume)
		out[1][i] = float32(mixR * volume)
		s.t += dt
	}
}

// Player streams a Synth to the default output device.
type Player struct {
	Synth  *Synth
	stream *portaudio.Stream
}

func NewPlayer() *Player {
	return &Player{Synth: NewSynth()}
}

func (p *Player) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, p.Synth.Fill)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	p.stream = stream
	log.WithField("sample_rate", SampleRate).Debug("audio stream started")
	return nil
}

func (p *Player) Stop() {
	if p.stream == nil {
		return
	}
	p.stream.Stop()
	p.stream.Close()
	portaudio.Terminate()
	p.stream = nil
}

// Sonifier is a sim.Observer feeding a normalized measurement to a Synth.
// The running peak decays slowly so the level adapts to the scene.
type Sonifier struct {
	synth   *Synth
	measure func() float64
	peak    float64
}

func NewSonifier(s *Synth, measure func() float64) *Sonifier {
	return &Sonifier{synth: s, measure: measure}
}

func (so *Sonifier) OnFrame(_ *sim.FrameResult) {
	m := so.measure()
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return
	}
	so.peak = math.Max(so.peak*0.999, m)
	if so.peak == 0 {
		so.synth.SetLevel(0)
		return
	}
	so.synth.SetLevel(m / so.peak)
}
