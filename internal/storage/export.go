package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

type ExportData struct {
	Scenario    string             `json:"scenario"`
	Integrator  string             `json:"integrator"`
	Dt          float64            `json:"dt"`
	TimePerStep float64            `json:"time_per_step"`
	StepSize    uint64             `json:"step_size"`
	Steps       []uint64           `json:"steps"`
	Bodies      []ExportBody       `json:"bodies"`
	Metrics     map[string]float64 `json:"metrics"`
}

type ExportBody struct {
	Name   string        `json:"name"`
	Points []ExportPoint `json:"points"`
}

type ExportPoint struct {
	Time     float64    `json:"time"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

func vec(v dynamo.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func NewExportData(sc *config.Scenario, result *sim.Result) ExportData {
	data := ExportData{
		Scenario:    sc.Name,
		Integrator:  sc.Integrator,
		Dt:          sc.Dt,
		TimePerStep: sc.Clock.TimePerStep,
		StepSize:    sc.Clock.StepSize,
		Steps:       result.Steps,
		Bodies:      make([]ExportBody, 0, len(result.Bodies)),
		Metrics:     finite(result.Metrics),
	}

	for _, name := range result.Bodies {
		pts := result.Samples[name]
		body := ExportBody{Name: name, Points: make([]ExportPoint, len(pts))}
		for i, p := range pts {
			body.Points[i] = ExportPoint{Time: p.Time, Position: vec(p.Position), Velocity: vec(p.Velocity)}
		}
		data.Bodies = append(data.Bodies, body)
	}
	return data
}

// WriteJSON encodes a run as indented JSON.
func WriteJSON(w io.Writer, sc *config.Scenario, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(sc, result))
}

func ExportJSON(path string, sc *config.Scenario, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, sc, result)
}

func ExportJSONStdout(sc *config.Scenario, result *sim.Result) error {
	return WriteJSON(os.Stdout, sc, result)
}
