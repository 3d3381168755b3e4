package types

import (
	"fmt"
	"sync"
	"time"
)

// SuiteOutcome accumulates scenario results across a whole suite run.
// Results may be read directly once the run has finished.
type SuiteOutcome struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Results   []*ScenarioResult

	mu sync.RWMutex
}

// OutcomeStats summarizes a SuiteOutcome.
type OutcomeStats struct {
	Total   int
	Passed  int
	Failed  int
	Fatal   int
	Skipped int
}

// NewSuiteOutcome creates an empty outcome for the given run.
func NewSuiteOutcome(runID string) *SuiteOutcome {
	return &SuiteOutcome{RunID: runID, StartTime: time.Now()}
}

// Record appends a scenario result.
func (o *SuiteOutcome) Record(r *ScenarioResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Results = append(o.Results, r)
}

// Failed reports whether any scenario in the suite failed.
func (o *SuiteOutcome) Failed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, r := range o.Results {
		if r.Status.Failed() {
			return true
		}
	}
	return false
}

// LastFailed reports whether the most recent scenario failed.
func (o *SuiteOutcome) LastFailed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.Results) == 0 {
		return false
	}
	return o.Results[len(o.Results)-1].Status.Failed()
}

// Status returns the aggregate suite status.
func (o *SuiteOutcome) Status() ScenarioStatus {
	if o.Failed() {
		return ScenarioStatusFail
	}
	if s := o.Stats(); s.Total > 0 && s.Skipped == s.Total {
		return ScenarioStatusSkip
	}
	return ScenarioStatusPass
}

// Stats counts results by status.
func (o *SuiteOutcome) Stats() OutcomeStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var s OutcomeStats
	for _, r := range o.Results {
		s.Total++
		switch r.Status {
		case ScenarioStatusPass:
			s.Passed++
		case ScenarioStatusFail:
			s.Failed++
		case ScenarioStatusFatal:
			s.Fatal++
		case ScenarioStatusSkip:
			s.Skipped++
		}
	}
	return s
}

// Duration returns the wall time of the run, or the time so far while running.
func (o *SuiteOutcome) Duration() time.Duration {
	if o.EndTime.IsZero() {
		return time.Since(o.StartTime)
	}
	return o.EndTime.Sub(o.StartTime)
}

func (o *SuiteOutcome) String() string {
	s := o.Stats()
	return fmt.Sprintf("Suite %s: %d scenarios, %d passed, %d failed, %d fatal, %d skipped",
		o.Status(), s.Total, s.Passed, s.Failed, s.Fatal, s.Skipped)
}
