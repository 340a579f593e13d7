package dynamo

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

const (
	MinSubsteps = 1
	MaxSubsteps = 100

	NumDisplayModes = 5
	NumBlendModes   = 5
)

// Display modes.
const (
	DisplayReal = iota
	DisplayProbability
	DisplayPhase
	DisplayColor
	DisplayImaginary
)

// Blend modes.
const (
	BlendNormal = iota
	BlendAdditive
	BlendSubtractive
	BlendMultiply
	BlendScreen
)

var (
	displayModeNames = [NumDisplayModes]string{"real", "probability", "phase", "color", "imaginary"}
	blendModeNames   = [NumBlendModes]string{"normal", "additive", "subtractive", "multiply", "screen"}
)

// DisplayModeName returns the lowercase name of a display mode, clamping
// out-of-range values the way Normalized does.
func DisplayModeName(m int) string {
	return displayModeNames[clampInt(m, 0, NumDisplayModes-1)]
}

func BlendModeName(m int) string {
	return blendModeNames[clampInt(m, 0, NumBlendModes-1)]
}

// Params is the flat per-frame snapshot of simulation and visualization
// configuration. Stages receive it by value and never mutate it.
type Params struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Dt        float64 `yaml:"dt"`
	Dx        float64 `yaml:"dx"`
	WaveSpeed float64 `yaml:"wave_speed"`
	Damping   float64 `yaml:"damping"`

	SourceEnabled   bool    `yaml:"source_enabled"`
	SourceFrequency float64 `yaml:"source_frequency"`
	SourceStrength  float64 `yaml:"source_strength"`
	SourceSize      float64 `yaml:"source_size"`
	KX              float64 `yaml:"kx"`
	KY              float64 `yaml:"ky"`
	PacketWidth     float64 `yaml:"packet_width"`

	// Time is stamped by the orchestrator at the start of each frame.
	Time float64 `yaml:"-"`

	BoundaryThreshold  float64 `yaml:"boundary_threshold"`
	PotentialAmplitude float64 `yaml:"potential_amplitude"`
	PotentialOffset    float64 `yaml:"potential_offset"`
	InvertBoundaries   bool    `yaml:"invert_boundaries"`
	Substeps           int     `yaml:"substeps"`

	AmplitudeScale float64 `yaml:"amplitude_scale"`
	Gamma          float64 `yaml:"gamma"`
	ProbScale      float64 `yaml:"prob_scale"`
	DisplayMode    int     `yaml:"display_mode"`
	BlendMode      int     `yaml:"blend_mode"`
	MixRatio       float64 `yaml:"mix_ratio"`
}

func DefaultParams() Params {
	return Params{
		Width:              192,
		Height:             144,
		Dt:                 0.01,
		Dx:                 1.0,
		WaveSpeed:          1.0,
		Damping:            0.01,
		SourceEnabled:      true,
		SourceFrequency:    0.5,
		SourceStrength:     1.0,
		SourceSize:         4.0,
		KX:                 0.5,
		KY:                 0.0,
		PacketWidth:        8.0,
		BoundaryThreshold:  1.0,
		PotentialAmplitude: 5.0,
		PotentialOffset:    0.0,
		Substeps:           20,
		AmplitudeScale:     1.0,
		Gamma:              0.8,
		ProbScale:          1.0,
		DisplayMode:        DisplayColor,
		BlendMode:          BlendNormal,
		MixRatio:           0.5,
	}
}

// Validate checks the hard constraints. The explicit scheme is only
// conditionally stable; dt·waveSpeed/dx² is left to the caller.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrParameterBounds, p.Width, p.Height)
	}
	if !(p.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrParameterBounds, p.Dt)
	}
	if !(p.Dx > 0) {
		return fmt.Errorf("%w: dx must be positive, got %f", ErrParameterBounds, p.Dx)
	}
	return nil
}

// Normalized returns a copy with every clamped knob inside its range.
func (p Params) Normalized() Params {
	p.Substeps = clampInt(p.Substeps, MinSubsteps, MaxSubsteps)
	p.DisplayMode = clampInt(p.DisplayMode, 0, NumDisplayModes-1)
	p.BlendMode = clampInt(p.BlendMode, 0, NumBlendModes-1)
	p.MixRatio = math.Max(0, math.Min(1, p.MixRatio))
	return p
}

// StabilityRatio returns dt·waveSpeed/dx², the knob that governs blow-up.
func (p Params) StabilityRatio() float64 {
	return p.Dt * p.WaveSpeed / (p.Dx * p.Dx)
}

// Configurable is implemented by anything exposing named numeric knobs.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

func (p *Params) GetParams() map[string]float64 {
	return map[string]float64{
		"dt":                 p.Dt,
		"dx":                 p.Dx,
		"waveSpeed":          p.WaveSpeed,
		"damping":            p.Damping,
		"sourceEnabled":      boolToFloat(p.SourceEnabled),
		"sourceFrequency":    p.SourceFrequency,
		"sourceStrength":     p.SourceStrength,
		"sourceSize":         p.SourceSize,
		"kx":                 p.KX,
		"ky":                 p.KY,
		"packetWidth":        p.PacketWidth,
		"boundaryThreshold":  p.BoundaryThreshold,
		"potentialAmplitude": p.PotentialAmplitude,
		"potentialOffset":    p.PotentialOffset,
		"invertBoundaries":   boolToFloat(p.InvertBoundaries),
		"substeps":           float64(p.Substeps),
		"amplitudeScale":     p.AmplitudeScale,
		"gamma":              p.Gamma,
		"probScale":          p.ProbScale,
		"displayMode":        float64(p.DisplayMode),
		"blendMode":          float64(p.BlendMode),
		"mixRatio":           p.MixRatio,
	}
}

// SetParam updates one knob by name. Booleans take 0/1, integers are rounded
// and clamped; grid size cannot be changed after allocation.
func (p *Params) SetParam(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", ErrParameterBounds, name, v)
	}
	switch name {
	case "dt":
		if v <= 0 {
			return fmt.Errorf("%w: dt must be positive", ErrParameterBounds)
		}
		p.Dt = v
	case "dx":
		if v <= 0 {
			return fmt.Errorf("%w: dx must be positive", ErrParameterBounds)
		}
		p.Dx = v
	case "waveSpeed":
		p.WaveSpeed = v
	case "damping":
		p.Damping = v
	case "sourceEnabled":
		p.SourceEnabled = v != 0
	case "sourceFrequency":
		p.SourceFrequency = v
	case "sourceStrength":
		p.SourceStrength = v
	case "sourceSize":
		p.SourceSize = v
	case "kx":
		p.KX = v
	case "ky":
		p.KY = v
	case "packetWidth":
		p.PacketWidth = v
	case "boundaryThreshold":
		p.BoundaryThreshold = v
	case "potentialAmplitude":
		p.PotentialAmplitude = v
	case "potentialOffset":
		p.PotentialOffset = v
	case "invertBoundaries":
		p.InvertBoundaries = v != 0
	case "substeps":
		p.Substeps = clampInt(int(math.Round(v)), MinSubsteps, MaxSubsteps)
	case "amplitudeScale":
		p.AmplitudeScale = v
	case "gamma":
		p.Gamma = v
	case "probScale":
		p.ProbScale = v
	case "displayMode":
		p.DisplayMode = clampInt(int(math.Round(v)), 0, NumDisplayModes-1)
	case "blendMode":
		p.BlendMode = clampInt(int(math.Round(v)), 0, NumBlendModes-1)
	case "mixRatio":
		p.MixRatio = math.Max(0, math.Min(1, v))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// ParamKeys returns the configurable knob names in stable order.
func ParamKeys() []string {
	var p Params
	keys := make([]string, 0, 24)
	for k := range p.GetParams() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParamStore is the configuration surface: it accepts edits at any time and
// hands out frozen snapshots at frame boundaries.
type ParamStore struct {
	mu sync.RWMutex
	p  Params
}

func NewParamStore(p Params) *ParamStore {
	return &ParamStore{p: p}
}

// Snapshot returns the normalized copy used for one frame.
func (s *ParamStore) Snapshot() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Normalized()
}

func (s *ParamStore) Get(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.p.GetParams()[name]
	return v, ok
}

func (s *ParamStore) Set(name string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.SetParam(name, v)
}

// Update applies fn under the write lock.
func (s *ParamStore) Update(fn func(p *Params)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.p)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
