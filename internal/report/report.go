// Package report renders evaluation results as HTML, Markdown, JSON and
// terminal tables.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/preserve/internal/model"
)

// HTMLFileName is the HTML report written into the issues directory.
const HTMLFileName = "output.html"

// JSONFileName is the machine-readable report written into a run directory.
const JSONFileName = "results.json"

// Data is everything a report shows.
type Data struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     model.Summary  `json:"summary"`
	Results     []model.Result `json:"results"`
}

// New builds report data for a run.
func New(runID string, results []model.Result) Data {
	return Data{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Summary:     model.Summarize(results),
		Results:     results,
	}
}

// WriteJSONFile writes the report as indented JSON.
func WriteJSONFile(path string, d Data) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSONFile reads a report written by WriteJSONFile.
func ReadJSONFile(path string) (Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read %s: %w", path, err)
	}
	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return Data{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// rate formats part of total as a percentage.
func rate(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(part)/float64(total))
}
