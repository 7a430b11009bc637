package appcore

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"wikilinks/internal/pipeline"
)

// Report is the JSON document written by --report.
type Report struct {
	RunID   string           `json:"run_id"`
	Version string           `json:"version"`
	Archive string           `json:"archive"`
	Codec   string           `json:"codec"`
	Output  string           `json:"output"`
	Status  string           `json:"status"`
	Error   string           `json:"error,omitempty"`
	Summary pipeline.Summary `json:"summary"`
}

// WriteReport writes r as indented JSON to path.
func WriteReport(path string, r Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
