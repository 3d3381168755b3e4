package acceptor

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/browser-acceptor/exitcodes"
	"github.com/ethereum-optimism/infra/browser-acceptor/types"
)

// Stages a RuntimeError can come from.
const (
	StageConfig  = "config"
	StageSession = "session"
	StageRunner  = "runner"
)

var (
	_ cli.ExitCoder = (*RuntimeError)(nil)
	_ cli.ExitCoder = (*TestFailureError)(nil)
)

// RuntimeError means the suite could not be run at all: bad configuration,
// an unreachable browser or a missing capability. It exits with code 2.
type RuntimeError struct {
	Stage string
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("runtime error: %v", e.Err)
	}
	return fmt.Sprintf("runtime error (%s): %v", e.Stage, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func (e *RuntimeError) ExitCode() int {
	return exitcodes.RuntimeErr
}

// NewRuntimeError wraps err without naming the stage it came from.
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// NewStageError wraps err as a RuntimeError raised during stage.
func NewStageError(stage string, err error) *RuntimeError {
	return &RuntimeError{Stage: stage, Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError means the suite ran and at least one scenario failed.
// It exits with code 1.
type TestFailureError struct {
	Message string
	Stats   types.OutcomeStats
}

func (e *TestFailureError) Error() string {
	if e.Stats.Total == 0 {
		return fmt.Sprintf("test failure: %s", e.Message)
	}
	return fmt.Sprintf("test failure: %d of %d scenarios failed (%d fatal): %s",
		e.Stats.Failed+e.Stats.Fatal, e.Stats.Total, e.Stats.Fatal, e.Message)
}

func (e *TestFailureError) ExitCode() int {
	return exitcodes.TestFailure
}

func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// newSuiteFailure summarizes a failed outcome.
func newSuiteFailure(outcome *types.SuiteOutcome) *TestFailureError {
	return &TestFailureError{Message: outcome.String(), Stats: outcome.Stats()}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
