// Package lifecycle brackets every scenario with setup and teardown that
// isolate viewport changes between scenarios and detect fatal application
// errors left behind by a scenario.
//
// Each scenario moves through PRE, RUNNING, POST_CHECK and RESTORED:
//   - PRE: the viewport is captured in a Snapshot
//   - RUNNING: the steps execute; the controller is not involved
//   - POST_CHECK: the fatal error indicator must not appear within a short window
//   - RESTORED: the viewport is put back to the snapshot if it drifted
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/browser-acceptor/metrics"
	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/types"
	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
)

const (
	DefaultFatalSelector    = ".wed-fatal-modal"
	DefaultFatalCheckWindow = 500 * time.Millisecond
)

// Phase is the position of the current scenario in its lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhasePre       Phase = "PRE"
	PhaseRunning   Phase = "RUNNING"
	PhasePostCheck Phase = "POST_CHECK"
	PhaseRestored  Phase = "RESTORED"
)

var ErrPhase = errors.New("scenario hook called out of order")

// Snapshot is the state captured before a scenario runs.
type Snapshot struct {
	Scenario string
	Viewport session.Viewport
	Taken    time.Time
}

// Config configures a Controller.
type Config struct {
	Driver  session.Driver
	Poller  *wait.Poller
	Outcome *types.SuiteOutcome
	Log     log.Logger

	Browser          string        // label used for metrics
	FatalSelector    string        // CSS selector of the fatal error indicator
	FatalCheckWindow time.Duration // how long POST_CHECK watches for the indicator
}

// Controller runs the per-scenario hooks. Scenarios are strictly sequential,
// so a Controller holds at most one Snapshot.
type Controller struct {
	driver  session.Driver
	poller  *wait.Poller
	outcome *types.SuiteOutcome
	log     log.Logger
	tracer  trace.Tracer

	browser     string
	fatal       string
	checkWindow time.Duration

	phase    Phase
	snapshot *Snapshot
	span     trace.Span
}

// NewController creates a Controller over a borrowed session.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Driver == nil {
		return nil, errors.New("driver is required")
	}
	if cfg.Poller == nil {
		return nil, errors.New("poller is required")
	}
	if cfg.Outcome == nil {
		return nil, errors.New("suite outcome is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.FatalSelector == "" {
		cfg.FatalSelector = DefaultFatalSelector
	}
	if cfg.FatalCheckWindow <= 0 {
		cfg.FatalCheckWindow = DefaultFatalCheckWindow
	}
	return &Controller{
		driver:      cfg.Driver,
		poller:      cfg.Poller,
		outcome:     cfg.Outcome,
		log:         cfg.Log,
		tracer:      otel.Tracer("scenario lifecycle"),
		browser:     cfg.Browser,
		fatal:       cfg.FatalSelector,
		checkWindow: cfg.FatalCheckWindow,
		phase:       PhaseIdle,
	}, nil
}

// Phase returns the lifecycle phase of the current scenario.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Snapshot returns the snapshot of the running scenario, or nil.
func (c *Controller) Snapshot() *Snapshot {
	return c.snapshot
}

// BeforeScenario captures the viewport. The returned context carries the
// scenario span and should be used by the steps.
func (c *Controller) BeforeScenario(ctx context.Context, name string) (context.Context, error) {
	if c.phase != PhaseIdle && c.phase != PhaseRestored {
		return ctx, fmt.Errorf("%w: BeforeScenario(%q) in phase %s", ErrPhase, name, c.phase)
	}
	c.phase = PhasePre
	ctx, c.span = c.tracer.Start(ctx, fmt.Sprintf("scenario %s", name))

	vp, err := c.driver.WindowSize(ctx)
	if err != nil {
		c.endSpan(err)
		c.phase = PhaseIdle
		return ctx, fmt.Errorf("capturing viewport before %q: %w", name, err)
	}
	c.snapshot = &Snapshot{Scenario: name, Viewport: vp, Taken: time.Now()}
	c.phase = PhaseRunning
	c.log.Debug("Scenario started", "scenario", name, "viewport", vp)
	return ctx, nil
}

// AfterScenario checks for a fatal application error, restores the viewport
// and records the scenario result. stepErr is the error the steps failed with,
// if any. The viewport is restored even when the fatal check fails.
func (c *Controller) AfterScenario(ctx context.Context, result *types.ScenarioResult, stepErr error) error {
	if c.phase != PhaseRunning || c.snapshot == nil {
		return fmt.Errorf("%w: AfterScenario(%q) in phase %s", ErrPhase, result.Name, c.phase)
	}
	snap := c.snapshot

	c.phase = PhasePostCheck
	fatalErr := c.checkFatal(ctx, snap.Scenario)

	restored, restoreErr := c.restore(ctx, snap)
	c.phase = PhaseRestored
	c.snapshot = nil

	result.Started = snap.Taken
	result.Duration = time.Since(snap.Taken)
	result.ViewportRestored = restored
	result.Error = errors.Join(stepErr, fatalErr, restoreErr)
	switch {
	case IsFatalApplicationError(fatalErr):
		result.Status = types.ScenarioStatusFatal
	case result.Error != nil:
		result.Status = types.ScenarioStatusFail
	case result.Status == "":
		result.Status = types.ScenarioStatusPass
	}
	c.outcome.Record(result)
	metrics.RecordScenario(c.browser, result.Status, result.Duration)

	c.log.Info("Scenario finished", "scenario", result.Name, "status", result.Status,
		"duration", result.Duration, "viewport_restored", restored)
	if span := c.span; span != nil {
		span.SetAttributes(
			attribute.String("status", string(result.Status)),
			attribute.Bool("viewport_restored", restored),
		)
	}
	c.endSpan(result.Error)
	return result.Error
}

// checkFatal is the POST_CHECK phase.
func (c *Controller) checkFatal(ctx context.Context, scenario string) error {
	err := c.poller.ExpectTimeout(ctx, wait.Present(c.fatal), c.checkWindow)
	if err == nil {
		return nil
	}
	if wait.IsConditionMet(err) {
		c.log.Error("Fatal application error detected", "scenario", scenario, "selector", c.fatal)
		return &FatalApplicationError{Scenario: scenario, Selector: c.fatal}
	}
	c.log.Warn("Fatal error check failed", "scenario", scenario, "err", err)
	return fmt.Errorf("checking for fatal error indicator: %w", err)
}

// restore is the RESTORED phase. It issues at most one corrective resize.
func (c *Controller) restore(ctx context.Context, snap *Snapshot) (bool, error) {
	current, err := c.driver.WindowSize(ctx)
	if err != nil {
		return false, fmt.Errorf("reading viewport after %q: %w", snap.Scenario, err)
	}
	if current == snap.Viewport {
		return false, nil
	}
	c.log.Info("Restoring viewport", "scenario", snap.Scenario, "from", current, "to", snap.Viewport)
	if err := session.Resize(ctx, c.driver, c.poller, snap.Viewport); err != nil {
		metrics.RecordErrorDetails("viewport restore", err)
		return true, fmt.Errorf("restoring viewport after %q: %w", snap.Scenario, err)
	}
	metrics.RecordViewportRestore(c.browser)
	return true, nil
}

func (c *Controller) endSpan(err error) {
	if c.span == nil {
		return
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.End()
	c.span = nil
}
