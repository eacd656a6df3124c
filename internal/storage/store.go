package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	scenarioFile = "scenario.yaml"
)

var samplesHeader = []string{"step", "time", "body", "x", "y", "z", "vx", "vy", "vz"}

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
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	TimePerStep float64            `json:"time_per_step"`
	StepSize    uint64             `json:"step_size"`
	Batch       int                `json:"batch"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Missing     string             `json:"missing"`
	Bodies      []string           `json:"bodies"`
	Ticks       int                `json:"ticks"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding metadata, the scenario and every
// sampled point, and returns the run id.
func (s *Store) Save(sc *config.Scenario, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", sc.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    sc.Name,
		Timestamp:   now,
		Dt:          sc.Dt,
		TimePerStep: sc.Clock.TimePerStep,
		StepSize:    sc.Clock.StepSize,
		Batch:       sc.Batch,
		Duration:    sc.Duration,
		Integrator:  sc.Integrator,
		Missing:     sc.Missing,
		Bodies:      result.Bodies,
		Ticks:       len(result.Steps),
		Metrics:     finite(result.Metrics),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), sc); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result); err != nil {
		return "", err
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

func writeSamples(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i, step := range result.Steps {
		for _, body := range result.Bodies {
			pts := result.Samples[body]
			if i >= len(pts) {
				continue
			}
			p := pts[i]
			row := []string{
				strconv.FormatUint(step, 10),
				format(p.Time),
				body,
				format(p.Position.X), format(p.Position.Y), format(p.Position.Z),
				format(p.Velocity.X), format(p.Velocity.Y), format(p.Velocity.Z),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// finite drops metrics JSON cannot encode.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// List returns the stored runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
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

// LoadScenario returns the scenario a run was produced from.
func (s *Store) LoadScenario(runID string) (*config.Scenario, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

// LoadResult rebuilds the sampled result of a run.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(samplesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &sim.Result{
		Samples: make(map[string][]trajectory.Point, len(meta.Bodies)),
		Metrics: meta.Metrics,
		Bodies:  meta.Bodies,
	}

	for i, record := range records {
		if i == 0 {
			continue
		}
		step, p, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", samplesFile, i+1, err)
		}
		body := record[2]
		// Each tick starts with the first body in arena order.
		if len(result.Steps) == 0 || (len(meta.Bodies) > 0 && body == meta.Bodies[0]) {
			result.Steps = append(result.Steps, step)
		}
		result.Samples[body] = append(result.Samples[body], p)
	}

	return result, nil
}

func parseSample(record []string) (uint64, trajectory.Point, error) {
	step, err := strconv.ParseUint(record[0], 10, 64)
	if err != nil {
		return 0, trajectory.Point{}, err
	}

	var v [7]float64
	fields := append([]string{record[1]}, record[3:]...)
	for i, field := range fields {
		v[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, trajectory.Point{}, err
		}
	}

	return step, trajectory.Point{
		Time:     v[0],
		Position: dynamo.V3(v[1], v[2], v[3]),
		Velocity: dynamo.V3(v[4], v[5], v[6]),
	}, nil
}
