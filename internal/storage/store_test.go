package storage

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

func testResult() *sim.Result {
	final := image.NewRGBA(image.Rect(0, 0, 4, 3))
	final.Set(1, 1, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	return &sim.Result{
		Frames: 2,
		Times:  []float64{0.04, 0.08},
		Series: map[string][]float64{
			"probability": {12.5, 12.25},
			"peak":        {0.9, 0.8},
		},
		Metrics: map[string]float64{"probability": 12.25},
		Final:   final,
		Warning: 1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	p := dynamo.DefaultParams()
	p.Damping = 0.25
	runID, err := st.Save(RunMetadata{Preset: "ring-trap", Source: "pattern:ring", Backend: "cpu", Seed: 42, Params: p}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "ring-trap" || meta.Source != "pattern:ring" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Seed != 42 || meta.Frames != 2 || meta.Warnings != 1 {
		t.Errorf("seed/frames/warnings = %d/%d/%d", meta.Seed, meta.Frames, meta.Warnings)
	}
	if meta.Params.Damping != 0.25 {
		t.Errorf("params not persisted, damping = %v", meta.Params.Damping)
	}
	if meta.Metrics["probability"] != 12.25 {
		t.Errorf("expected probability 12.25, got %v", meta.Metrics["probability"])
	}

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(times) != 2 || times[1] != 0.08 {
		t.Errorf("times = %v", times)
	}
	if got := series["probability"]; len(got) != 2 || got[0] != 12.5 {
		t.Errorf("probability series = %v", got)
	}
	if got := series["peak"]; len(got) != 2 || got[1] != 0.8 {
		t.Errorf("peak series = %v", got)
	}

	frame, err := st.LoadFrame(runID)
	if err != nil {
		t.Fatalf("load frame failed: %v", err)
	}
	if r, _, _, _ := frame.At(1, 1).RGBA(); r>>8 != 200 {
		t.Errorf("frame pixel red = %d, want 200", r>>8)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunMetadata{Preset: "default"}, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Error("runs saved in the same second must get distinct ids")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on missing dir = %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "series.csv", "frame.png"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Preset != "custom" {
		t.Errorf("empty preset should be stored as custom, got %q", meta.Preset)
	}
}

func TestStoreSaveWithoutFrame(t *testing.T) {
	st := New(t.TempDir())
	res := testResult()
	res.Final = nil
	runID, err := st.Save(RunMetadata{Preset: "x"}, res)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadFrame(runID); !os.IsNotExist(err) {
		t.Errorf("expected missing frame, got %v", err)
	}
}
