package config

import (
	"sort"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/source"
)

// Presets are named starting points; flags and config files still apply
// on top of them.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"double-slit": preset("pattern:double-slit", func(p *dynamo.Params) {
		p.SourceEnabled = false
		p.KX = 1.2
		p.PacketWidth = 6
		p.PotentialAmplitude = 8
		p.DisplayMode = dynamo.DisplayProbability
		p.ProbScale = 4
	}),
	"ring-trap": preset("pattern:ring", func(p *dynamo.Params) {
		p.SourceEnabled = false
		p.KX, p.KY = 0.4, 0.3
		p.PacketWidth = 5
		p.PotentialAmplitude = 10
		p.DisplayMode = dynamo.DisplayPhase
	}),
	"free-packet": preset("none", func(p *dynamo.Params) {
		p.SourceEnabled = false
		p.Damping = 0
		p.PotentialAmplitude = 0
		p.DisplayMode = dynamo.DisplayReal
		p.BlendMode = dynamo.BlendNormal
		p.MixRatio = 0
	}),
	"terrain": preset("noise", func(p *dynamo.Params) {
		p.SourceFrequency = 0.8
		p.SourceStrength = 1.5
		p.InvertBoundaries = false
		p.BlendMode = dynamo.BlendScreen
	}),
	"pulsar": preset("pattern:gray", func(p *dynamo.Params) {
		p.SourceFrequency = 1.5
		p.SourceStrength = 2
		p.SourceSize = 3
		p.Damping = 0.02
		p.PotentialAmplitude = 0
		p.BlendMode = dynamo.BlendAdditive
	}),
	"fine": preset(DefaultSource, func(p *dynamo.Params) {
		p.Dt = 0.005
		p.Substeps = 40
		p.Width, p.Height = 256, 192
	}),
}

func preset(source string, mutate func(p *dynamo.Params)) *Config {
	cfg := DefaultConfig()
	cfg.Source = source
	mutate(&cfg.Params)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply loads c's knobs into store, keeping the w×h grid that is already
// allocated, and builds c's source for that grid. The store is left alone
// when the source cannot be built.
func (c *Config) Apply(store *dynamo.ParamStore, w, h int) (source.Provider, error) {
	prov, err := source.Parse(c.Source, w, h, c.Seed)
	if err != nil {
		return nil, err
	}
	store.Update(func(p *dynamo.Params) {
		*p = c.Params
		p.Width, p.Height = w, h
	})
	return prov, nil
}
