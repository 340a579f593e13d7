package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/config"
	"github.com/san-kum/qwave/internal/metrics"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
	"github.com/san-kum/qwave/internal/storage"
)

// Scenario defines a scripted sequence of headless runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. Zero fields inherit from the
// preset, or from the base configuration when no preset is named.
type ScenarioStep struct {
	Preset string             `yaml:"preset"`
	Source string             `yaml:"source"`
	Frames int                `yaml:"frames"`
	Seed   int64              `yaml:"seed"`
	Width  int                `yaml:"width"`
	Height int                `yaml:"height"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the configuration of step i on top of base.
func (s *Scenario) Resolve(i int, base *config.Config) (*config.Config, error) {
	step := s.Steps[i]

	c := *base
	if step.Preset != "" {
		p := config.GetPreset(step.Preset)
		if p == nil {
			return nil, fmt.Errorf("step %d: unknown preset %q", i+1, step.Preset)
		}
		c = *p
	}
	if step.Source != "" {
		c.Source = step.Source
	}
	if step.Frames > 0 {
		c.Frames = step.Frames
	}
	if step.Seed != 0 {
		c.Seed = step.Seed
	}
	if step.Width > 0 {
		c.Params.Width = step.Width
	}
	if step.Height > 0 {
		c.Params.Height = step.Height
	}

	// sorted so a bad key is reported the same way every time
	keys := make([]string, 0, len(step.Params))
	for k := range step.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.Params.SetParam(k, step.Params[k]); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("step %d: %w", i+1, err)
	}
	return &c, nil
}

// label names the stored run of step i.
func (s *Scenario) label(i int) string {
	step := s.Steps[i]
	switch {
	case step.SaveAs != "":
		return step.SaveAs
	case step.Preset != "":
		return step.Preset
	case s.Name != "":
		return fmt.Sprintf("%s-%d", s.Name, i+1)
	default:
		return fmt.Sprintf("step-%d", i+1)
	}
}

// RunScenario executes all steps in order on the CPU backend and stores
// each run. It returns the run ids saved so far, even on error.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, st *storage.Store) ([]string, error) {
	ids := make([]string, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		c, err := scenario.Resolve(i, base)
		if err != nil {
			return ids, err
		}
		name := scenario.label(i)
		log.WithFields(log.Fields{
			"step":   fmt.Sprintf("%d/%d", i+1, len(scenario.Steps)),
			"name":   name,
			"source": c.Source,
			"frames": c.Frames,
		}).Info("running scenario step")

		src, err := source.Parse(c.Source, c.Params.Width, c.Params.Height, c.Seed)
		if err != nil {
			return ids, fmt.Errorf("step %d: %w", i+1, err)
		}
		backend := compute.NewCPUBackend()
		o, err := sim.New(c.Params.Width, c.Params.Height, backend, src)
		if err != nil {
			return ids, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		for _, m := range metrics.Standard() {
			o.AddMetric(m)
		}

		result, err := sim.RunHeadless(ctx, o, c.Params, c.Frames)
		if err != nil {
			return ids, fmt.Errorf("step %d run: %w", i+1, err)
		}

		id, err := st.Save(storage.RunMetadata{
			Preset:  name,
			Source:  c.Source,
			Backend: backend.Name(),
			Seed:    c.Seed,
			Params:  c.Params,
		}, result)
		if err != nil {
			return ids, fmt.Errorf("step %d save: %w", i+1, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
