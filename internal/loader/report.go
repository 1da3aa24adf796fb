package loader

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/ballastio/ballast/pkg/efficiency"
	"github.com/ballastio/ballast/pkg/verify"
)

// State is the orchestrator's position in the load lifecycle
type State string

const (
	StateInitialized State = "initialized"
	StateWriting     State = "writing"
	StateVerifying   State = "verifying"
	StateAnalyzing   State = "analyzing"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Terminal reports whether the state is a terminal one
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// WriteResult records the outcome of one adapter write
type WriteResult struct {
	Dataset     string `json:"dataset"`
	Format      string `json:"format"`
	Destination string `json:"destination"`
	Bytes       int64  `json:"bytes"`
	Error       string `json:"error,omitempty"`
}

// RunReport aggregates everything observed during one load run. It is
// produced regardless of outcome: observability of a failed run is a
// first-class requirement. The report is owned by the run and never mutated
// after the run completes.
type RunReport struct {
	RunID           string             `json:"run_id"`
	Name            string             `json:"name"`
	State           State              `json:"state"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
	Writes          []WriteResult      `json:"writes"`
	Verifications   []*verify.Result   `json:"verifications"`
	Efficiency      *efficiency.Record `json:"efficiency,omitempty"`
	EfficiencyError string             `json:"efficiency_error,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// Failed reports whether the run ended in the failed state
func (r *RunReport) Failed() bool {
	return r.State == StateFailed
}

// JSON renders the report for logging, alerting or archiving
func (r *RunReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
