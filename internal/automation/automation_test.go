package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/qwave/internal/config"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/storage"
)

const scenarioYAML = `name: slits
description: two slit widths
steps:
  - preset: double-slit
    frames: 2
    width: 32
    height: 24
    params:
      substeps: 2
  - source: noise
    frames: 3
    width: 32
    height: 24
    params:
      damping: 0.2
      substeps: 2
    save_as: noisy
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "slits" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Params["damping"] != 0.2 {
		t.Errorf("params not decoded: %v", sc.Steps[1].Params)
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestResolve(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	base := config.DefaultConfig()

	c, err := sc.Resolve(0, base)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != "pattern:double-slit" || c.Params.KX != 1.2 {
		t.Errorf("preset not applied: %s kx=%v", c.Source, c.Params.KX)
	}
	if c.Params.Width != 32 || c.Params.Substeps != 2 || c.Frames != 2 {
		t.Errorf("overrides not applied: %+v", c.Params)
	}

	c, err = sc.Resolve(1, base)
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != "noise" || c.Params.Damping != 0.2 {
		t.Errorf("step 2 = %s damping=%v", c.Source, c.Params.Damping)
	}
	if base.Params.Damping == 0.2 {
		t.Error("base config must not be modified")
	}

	sc.Steps[0].Params["bogus"] = 1
	if _, err := sc.Resolve(0, base); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	ids, err := RunScenario(context.Background(), sc, config.DefaultConfig(), st)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(ids))
	}

	meta, err := st.Load(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if meta.Preset != "double-slit" || meta.Frames != 2 {
		t.Errorf("step 1 stored as %+v", meta)
	}
	meta, err = st.Load(ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if meta.Preset != "noisy" || meta.Frames != 3 || meta.Source != "noise" {
		t.Errorf("step 2 stored as %+v", meta)
	}
}
