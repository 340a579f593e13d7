package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/qwave/internal/dynamo"
)

const (
	DefaultSource  = "pattern:double-slit"
	DefaultBackend = "cpu"
	DefaultFPS     = 30
	DefaultFrames  = 300
	DefaultDataDir = ".qwave"
	DefaultAddr    = ":8080"
)

type Config struct {
	Source  string        `yaml:"source"`
	Backend string        `yaml:"backend"`
	FPS     int           `yaml:"fps"`
	Frames  int           `yaml:"frames"`
	Seed    int64         `yaml:"seed"`
	DataDir string        `yaml:"data_dir"`
	Params  dynamo.Params `yaml:"params"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() *Config {
	return &Config{
		Source:  DefaultSource,
		Backend: DefaultBackend,
		FPS:     DefaultFPS,
		Frames:  DefaultFrames,
		Seed:    1,
		DataDir: DefaultDataDir,
		Params:  dynamo.DefaultParams(),
		Server:  ServerConfig{Addr: DefaultAddr},
		Log:     LogConfig{Level: "info"},
	}
}

// Validate checks the parameter block and the run settings.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", dynamo.ErrParameterBounds, c.FPS)
	}
	return nil
}

// Load reads a YAML (.yaml, .yml) or INI (.ini) file over the defaults.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return loadINI(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg := DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}
}

// loadINI maps sections [run], [params], [server] and [log]. Keys in
// [params] use the same names as the live parameter controls.
func loadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	run := file.Section("run")
	cfg.Source = run.Key("source").MustString(cfg.Source)
	cfg.Backend = run.Key("backend").MustString(cfg.Backend)
	cfg.FPS = run.Key("fps").MustInt(cfg.FPS)
	cfg.Frames = run.Key("frames").MustInt(cfg.Frames)
	cfg.Seed = run.Key("seed").MustInt64(cfg.Seed)
	cfg.DataDir = run.Key("data_dir").MustString(cfg.DataDir)

	params := file.Section("params")
	cfg.Params.Width = params.Key("width").MustInt(cfg.Params.Width)
	cfg.Params.Height = params.Key("height").MustInt(cfg.Params.Height)
	for _, key := range params.Keys() {
		name := key.Name()
		if name == "width" || name == "height" {
			continue
		}
		v, err := key.Float64()
		if err != nil {
			if b, berr := key.Bool(); berr == nil {
				v, err = boolValue(b), nil
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s: [params] %s: %w", path, name, err)
		}
		if err := cfg.Params.SetParam(name, v); err != nil {
			return nil, fmt.Errorf("%s: [params] %w", path, err)
		}
	}

	cfg.Server.Addr = file.Section("server").Key("addr").MustString(cfg.Server.Addr)
	cfg.Log.Level = file.Section("log").Key("level").MustString(cfg.Log.Level)
	cfg.Log.JSON = file.Section("log").Key("json").MustBool(cfg.Log.JSON)

	return cfg, cfg.Validate()
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
