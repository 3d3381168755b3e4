package types

import (
	"fmt"
	"strings"
	"time"
)

// ScenarioStatus represents the possible states of a scenario execution
type ScenarioStatus string

const (
	ScenarioStatusPass  ScenarioStatus = "pass"
	ScenarioStatusFail  ScenarioStatus = "fail"
	ScenarioStatusFatal ScenarioStatus = "fatal" // the application reached an unrecoverable state
	ScenarioStatusSkip  ScenarioStatus = "skip"
)

// Failed reports whether the status counts against the suite.
func (s ScenarioStatus) Failed() bool {
	return s == ScenarioStatusFail || s == ScenarioStatusFatal
}

// ScenarioResult captures the outcome of a single scenario run
type ScenarioResult struct {
	Name     string
	Feature  string
	Status   ScenarioStatus
	Error    error
	Duration time.Duration
	Started  time.Time

	ViewportRestored bool // a corrective resize was issued after the scenario
}

// DisplayName returns "Feature: Scenario", or just the scenario name.
func (r *ScenarioResult) DisplayName() string {
	if r.Feature == "" {
		return r.Name
	}
	return fmt.Sprintf("%s: %s", r.Feature, r.Name)
}

// ErrorMessage returns the first line of the error, or "".
func (r *ScenarioResult) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	msg, _, _ := strings.Cut(r.Error.Error(), "\n")
	return msg
}
