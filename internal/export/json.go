package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/qwave/internal/storage"
)

type RunData struct {
	storage.RunMetadata
	Times  []float64            `json:"times"`
	Series map[string][]float64 `json:"series"`
}

// LoadRun gathers a stored run's metadata and series for export.
func LoadRun(st *storage.Store, runID string) (*RunData, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, err
	}
	return &RunData{RunMetadata: *meta, Times: times, Series: series}, nil
}

func WriteJSON(w io.Writer, data *RunData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *RunData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data *RunData) error {
	return WriteJSON(os.Stdout, data)
}
