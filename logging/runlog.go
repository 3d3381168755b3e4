package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/browser-acceptor/types"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	OutputFilename     = "output.log"
	ScenariosFilename  = "scenarios.jsonl"
)

// ScenarioRecord is one line of scenarios.jsonl
type ScenarioRecord struct {
	RunID            string    `json:"run_id"`
	Feature          string    `json:"feature,omitempty"`
	Scenario         string    `json:"scenario"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	Started          time.Time `json:"started"`
	DurationMS       int64     `json:"duration_ms"`
	ViewportRestored bool      `json:"viewport_restored"`
}

// RunLog owns the files of one suite run under <baseDir>/testrun-<runID>
type RunLog struct {
	runID     string
	dir       string
	mu        sync.Mutex
	output    *os.File
	scenarios *os.File
	enc       *json.Encoder
	closed    bool
}

// NewRunLog creates the run directory and opens its log files
func NewRunLog(baseDir, runID string) (*RunLog, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	dir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	output, err := os.Create(filepath.Join(dir, OutputFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to create output log: %w", err)
	}
	scenarios, err := os.Create(filepath.Join(dir, ScenariosFilename))
	if err != nil {
		_ = output.Close()
		return nil, fmt.Errorf("failed to create scenarios log: %w", err)
	}

	return &RunLog{
		runID:     runID,
		dir:       dir,
		output:    output,
		scenarios: scenarios,
		enc:       json.NewEncoder(scenarios),
	}, nil
}

// Dir returns the run directory
func (l *RunLog) Dir() string {
	return l.dir
}

// Write appends runner output to output.log with terminal colour codes removed.
// A colour sequence split across two writes is not stripped.
func (l *RunLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, fmt.Errorf("run log is closed")
	}
	if _, err := io.WriteString(l.output, stripansi.Strip(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Tee returns a writer that sends output both to w, unchanged, and to the run log
func (l *RunLog) Tee(w io.Writer) io.Writer {
	if w == nil {
		return l
	}
	return io.MultiWriter(w, l)
}

// RecordScenario appends one result to scenarios.jsonl
func (l *RunLog) RecordScenario(r *types.ScenarioResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("run log is closed")
	}
	rec := ScenarioRecord{
		RunID:            l.runID,
		Feature:          r.Feature,
		Scenario:         r.Name,
		Status:           string(r.Status),
		Error:            r.ErrorMessage(),
		Started:          r.Started,
		DurationMS:       r.Duration.Milliseconds(),
		ViewportRestored: r.ViewportRestored,
	}
	if err := l.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write scenario record: %w", err)
	}
	return nil
}

// Close flushes and closes the log files. It is safe to call more than once.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	errOut := l.output.Close()
	errScn := l.scenarios.Close()
	if errOut != nil {
		return errOut
	}
	return errScn
}
