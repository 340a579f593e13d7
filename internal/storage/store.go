package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	frameFile    = "frame.png"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Source    string             `json:"source"`
	Backend   string             `json:"backend"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Frames    int                `json:"frames"`
	Warnings  int                `json:"warnings"`
	Params    dynamo.Params      `json:"params"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes one run directory: metadata, the per-frame metric series and
// the last composited frame. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Preset == "" {
		meta.Preset = "custom"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Preset, now.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for n := 1; ; n++ {
		if _, err := os.Stat(runDir); errors.Is(err, os.ErrNotExist) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", meta.Preset, now.Unix(), n)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = result.Frames
	meta.Warnings = result.Warning
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return "", err
	}
	if result.Final != nil {
		if err := writePNG(filepath.Join(runDir, frameFile), result.Final); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}

	for i, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'f', 6, 64)}
		for _, name := range names {
			v := 0.0
			if s := result.Series[name]; i < len(s) {
				v = s[i]
			}
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSeries reads series.csv back into the time column and one slice per
// metric column.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	series := make(map[string][]float64)
	if len(records) < 1 {
		return []float64{}, series, nil
	}

	header := records[0]
	for _, name := range header[1:] {
		series[name] = make([]float64, 0, len(records)-1)
	}
	times := make([]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		for j := 1; j < len(header); j++ {
			v := 0.0
			if j < len(record) {
				if parsed, err := strconv.ParseFloat(record[j], 64); err == nil {
					v = parsed
				}
			}
			series[header[j]] = append(series[header[j]], v)
		}
	}

	return times, series, nil
}

// LoadFrame decodes the stored final frame of a run.
func (s *Store) LoadFrame(runID string) (image.Image, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, frameFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
