package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/config"
	"github.com/san-kum/qwave/internal/control"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/metrics"
	"github.com/san-kum/qwave/internal/physics"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
)

// cfg is the resolved configuration of the running command.
var cfg *config.Config

func prepare(cmd *cobra.Command, args []string) error {
	c, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg = c
	return setupLogging(c)
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.DefaultConfig()
	if presetName != "" {
		c = config.GetPreset(presetName)
		if c == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		c.Source = sourceSpec
	}
	if flags.Changed("backend") {
		c.Backend = backendName
	}
	if flags.Changed("fps") {
		c.FPS = fps
	}
	if flags.Changed("frames") {
		c.Frames = frames
	}
	if flags.Changed("seed") {
		c.Seed = seed
	}
	if flags.Changed("data") {
		c.DataDir = dataDir
	}
	if flags.Changed("addr") {
		c.Server.Addr = addr
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-json") {
		c.Log.JSON = logJSON
	}
	if flags.Changed("width") {
		c.Params.Width = width
	}
	if flags.Changed("height") {
		c.Params.Height = height
	}
	if flags.Changed("emitter") {
		c.Params.SourceEnabled = emitter
	}

	for _, f := range paramFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		v, err := flags.GetFloat64(f.flag)
		if err != nil {
			return nil, err
		}
		if err := c.Params.SetParam(f.key, v); err != nil {
			return nil, err
		}
	}
	for _, kv := range sets {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", name, err)
		}
		if err := c.Params.SetParam(name, v); err != nil {
			return nil, err
		}
	}

	return c, c.Validate()
}

func setupLogging(c *config.Config) error {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.Log.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	}
	return nil
}

// quietLogs keeps log lines off a screen owned by a full-screen view.
func quietLogs() {
	if logFile == "" {
		log.SetOutput(io.Discard)
	}
}

// newSession builds the frame pipeline for c. The secondary source is the
// one toggled at runtime; alt "none" makes it an upload feed, which is then
// also returned. With --hold a regulator steers the live parameter store.
func newSession(c *config.Config, alt string) (*sim.Loop, *source.Switch, *source.Feed, error) {
	p := c.Params
	backend, err := compute.Select(c.Backend)
	if err != nil {
		return nil, nil, nil, err
	}

	primary, err := source.Parse(c.Source, p.Width, p.Height, c.Seed)
	if err != nil {
		backend.Cleanup()
		return nil, nil, nil, err
	}
	secondary, err := source.Parse(alt, p.Width, p.Height, c.Seed+1)
	if err != nil {
		backend.Cleanup()
		return nil, nil, nil, err
	}
	feed, _ := secondary.(*source.Feed)
	sw := source.NewSwitch(primary, secondary)

	o, err := sim.New(p.Width, p.Height, backend, sw)
	if err != nil {
		backend.Cleanup()
		return nil, nil, nil, err
	}
	for _, m := range metrics.Standard() {
		o.AddMetric(m)
	}
	o.Reset(p)

	store := dynamo.NewParamStore(p)
	if holdTarget > 0 {
		if len(holdGains) != 3 {
			backend.Cleanup()
			return nil, nil, nil, fmt.Errorf("--hold-gains: want kp,ki,kd, got %d values", len(holdGains))
		}
		if _, ok := store.Get(holdParam); !ok {
			backend.Cleanup()
			return nil, nil, nil, fmt.Errorf("--hold-param: %w: %q", dynamo.ErrUnknownParam, holdParam)
		}
		pid := control.NewPID(holdGains[0], holdGains[1], holdGains[2], holdTarget)
		measure := func() float64 { return o.Field().Probability(physics.SpongeWidth) }
		o.AddObserver(control.NewRegulator(pid, store, holdParam, 0, holdMax, measure))
		log.WithFields(log.Fields{"param": holdParam, "target": holdTarget}).Info("regulator attached")
	}

	log.WithFields(log.Fields{
		"backend":   backend.Name(),
		"source":    primary.Name(),
		"alternate": secondary.Name(),
		"grid":      fmt.Sprintf("%dx%d", p.Width, p.Height),
		"stability": p.StabilityRatio(),
	}).Info("session ready")

	return sim.NewLoop(o, store, c.FPS), sw, feed, nil
}

// newSource builds a fresh primary source, for runs that must not share one.
func newSource(c *config.Config) func() (sim.Source, error) {
	return func() (sim.Source, error) {
		return source.Parse(c.Source, c.Params.Width, c.Params.Height, c.Seed)
	}
}
