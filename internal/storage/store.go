package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/session"
)

const (
	metadataFile = "metadata.json"
	trackFile    = "track.csv"
	finalFile    = "final.msgpack"
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

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Aircraft    string             `json:"aircraft"`
	Integrator  string             `json:"integrator"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	InitCalls   int                `json:"init_calls"`
	GroundStart bool               `json:"ground_start"`
	Converged   bool               `json:"converged"`
	TrimFailed  bool               `json:"trim_failed"`
	Recording   string             `json:"recording,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a run directory and returns its ID. The ID, timestamp,
// step counts and metrics are filled in from the result.
func (s *Store) Save(meta RunMetadata, result *session.Result) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Name, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.InitCalls = result.InitCalls
	meta.GroundStart = result.GroundStart
	meta.Converged = result.Converged
	meta.TrimFailed = result.TrimFailed
	meta.Metrics = Summarize(result)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrack(filepath.Join(runDir, trackFile), result); err != nil {
		return "", err
	}

	final, err := msgpack.Marshal(&result.Final)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, finalFile), final, 0644); err != nil {
		return "", err
	}

	return meta.ID, nil
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

func writeTrack(path string, result *session.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time"}, Columns...)); err != nil {
		return err
	}
	for i, out := range result.Outputs {
		vals := trackRow(&out)
		row := make([]string, 0, len(vals)+1)
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, v := range vals {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

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

// LoadTrack reads the sampled flight track of a run.
func (s *Store) LoadTrack(runID string) (*Track, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trackFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty track", runID)
	}

	track := &Track{Columns: records[0][1:]}
	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad time %q: %w", runID, record[0], err)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			row[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad value %q: %w", runID, field, err)
			}
		}
		track.Times = append(track.Times, t)
		track.Rows = append(track.Rows, row)
	}
	return track, nil
}

// LoadFinal reads the last output snapshot of a run.
func (s *Store) LoadFinal(runID string) (*data.Out, error) {
	raw, err := os.ReadFile(filepath.Join(s.baseDir, runID, finalFile))
	if err != nil {
		return nil, err
	}
	var out data.Out
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
