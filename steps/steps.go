// Package steps is the step library for the wed editor suites. Steps borrow
// the suite's session and synchronize only through the shared Poller.
package steps

import (
	"errors"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
)

// ScenarioContext is the part of *godog.ScenarioContext needed to register steps.
type ScenarioContext interface {
	Step(expr interface{}, stepFunc interface{})
}

// Editor drives the wed editor through a borrowed session.
type Editor struct {
	driver session.Driver
	poller *wait.Poller
}

// New creates an Editor over a borrowed session.
func New(driver session.Driver, poller *wait.Poller) (*Editor, error) {
	if driver == nil {
		return nil, errors.New("driver is required")
	}
	if poller == nil {
		return nil, errors.New("poller is required")
	}
	return &Editor{driver: driver, poller: poller}, nil
}

// Register binds every step to its expression.
func (e *Editor) Register(sc ScenarioContext) {
	sc.Step(`^the user introduces an error in the document$`, e.IntroduceError)
	sc.Step(`^the user types (.+)$`, e.Type)
	sc.Step(`^additional errors appear in the error panel$`, e.ErrorsAppear)
	sc.Step(`^the user clicks the last error in the error panel$`, e.ClickLastError)
	sc.Step(`^the last error marker is fully visible\.?$`, e.LastMarkerVisible)
	sc.Step(`^the user resizes the window to (\d+) by (\d+)$`, e.ResizeWindow)
	sc.Step(`^the window size is (\d+) by (\d+)$`, e.WindowSizeIs)
}
