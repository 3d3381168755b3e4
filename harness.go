package acceptor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/browser-acceptor/lifecycle"
	"github.com/ethereum-optimism/infra/browser-acceptor/logging"
	"github.com/ethereum-optimism/infra/browser-acceptor/metrics"
	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/steps"
	"github.com/ethereum-optimism/infra/browser-acceptor/types"
	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
)

// ScenarioContext is the part of *godog.ScenarioContext the harness hooks into.
type ScenarioContext interface {
	Before(h godog.BeforeScenarioHook)
	After(h godog.AfterScenarioHook)
	Step(expr interface{}, stepFunc interface{})
}

// HarnessConfig configures a Harness.
type HarnessConfig struct {
	Driver  session.Driver
	Outcome *types.SuiteOutcome
	Log     log.Logger
	RunLog  *logging.RunLog // optional
	Clock   wait.Clock      // optional, defaults to the system clock

	Browser          string
	Strict           bool
	WaitTimeout      time.Duration
	WaitInterval     time.Duration
	FatalSelector    string
	FatalCheckWindow time.Duration
}

// Harness is the state shared by every scenario of a suite: the borrowed
// session, the poller steps wait with, and the lifecycle controller.
type Harness struct {
	log     log.Logger
	browser string
	strict  bool
	outcome *types.SuiteOutcome
	runLog  *logging.RunLog

	driver     session.Driver
	poller     *wait.Poller
	controller *lifecycle.Controller
	editor     *steps.Editor
}

// NewHarness wires the poller, controller and step library over a started session.
func NewHarness(cfg HarnessConfig) (*Harness, error) {
	if cfg.Driver == nil {
		return nil, errors.New("driver is required")
	}
	if cfg.Outcome == nil {
		return nil, errors.New("suite outcome is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}

	opts := []wait.Option{
		wait.WithLogger(cfg.Log),
		wait.WithObserver(metrics.RecordWait),
	}
	if cfg.WaitTimeout > 0 {
		opts = append(opts, wait.WithDefaultTimeout(cfg.WaitTimeout))
	}
	if cfg.WaitInterval > 0 {
		opts = append(opts, wait.WithInterval(cfg.WaitInterval))
	}
	if cfg.Clock != nil {
		opts = append(opts, wait.WithClock(cfg.Clock))
	}
	poller, err := wait.NewPoller(cfg.Driver, opts...)
	if err != nil {
		return nil, err
	}

	controller, err := lifecycle.NewController(lifecycle.Config{
		Driver:           cfg.Driver,
		Poller:           poller,
		Outcome:          cfg.Outcome,
		Log:              cfg.Log,
		Browser:          cfg.Browser,
		FatalSelector:    cfg.FatalSelector,
		FatalCheckWindow: cfg.FatalCheckWindow,
	})
	if err != nil {
		return nil, err
	}
	editor, err := steps.New(cfg.Driver, poller)
	if err != nil {
		return nil, err
	}

	return &Harness{
		log:        cfg.Log,
		browser:    cfg.Browser,
		strict:     cfg.Strict,
		outcome:    cfg.Outcome,
		runLog:     cfg.RunLog,
		driver:     cfg.Driver,
		poller:     poller,
		controller: controller,
		editor:     editor,
	}, nil
}

// Poller returns the poller steps synchronize with.
func (h *Harness) Poller() *wait.Poller {
	return h.poller
}

// Controller returns the scenario lifecycle controller.
func (h *Harness) Controller() *lifecycle.Controller {
	return h.controller
}

// InitializeTestSuite is the godog suite initializer.
func (h *Harness) InitializeTestSuite(sc *godog.TestSuiteContext) {
	sc.BeforeSuite(func() {
		h.log.Info("Suite started", "run_id", h.outcome.RunID, "session_id", h.driver.SessionID())
	})
	sc.AfterSuite(func() {
		h.outcome.EndTime = time.Now()
		h.log.Info("Suite finished", "run_id", h.outcome.RunID, "outcome", h.outcome.String())
	})
}

// InitializeScenario is the godog scenario initializer.
func (h *Harness) InitializeScenario(sc *godog.ScenarioContext) {
	h.registerScenario(sc)
}

func (h *Harness) registerScenario(sc ScenarioContext) {
	h.editor.Register(sc)
	sc.Before(h.beforeScenario)
	sc.After(h.afterScenario)
}

func (h *Harness) beforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	return h.controller.BeforeScenario(ctx, sc.Name)
}

func (h *Harness) afterScenario(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	result := &types.ScenarioResult{Name: sc.Name, Feature: featureName(sc.Uri)}
	stepErr := err
	if h.notRun(err) {
		result.Status = types.ScenarioStatusSkip
		stepErr = nil
	}

	var hookErr error
	if h.controller.Phase() == lifecycle.PhaseRunning {
		hookErr = h.controller.AfterScenario(ctx, result, stepErr)
	} else {
		// BeforeScenario failed, so there is no snapshot to restore.
		result.Status = types.ScenarioStatusFail
		result.Error = err
		h.outcome.Record(result)
		metrics.RecordScenario(h.browser, result.Status, 0)
	}

	if h.runLog != nil {
		if logErr := h.runLog.RecordScenario(result); logErr != nil {
			h.log.Warn("Failed to record scenario", "scenario", sc.Name, "err", logErr)
		}
	}

	// godog already fails the scenario for a step error; only report what
	// the hook itself found.
	if err != nil {
		return ctx, nil
	}
	return ctx, hookErr
}

// notRun reports whether err means the scenario's steps did not execute.
func (h *Harness) notRun(err error) bool {
	if errors.Is(err, godog.ErrSkip) {
		return true
	}
	if h.strict {
		return false
	}
	return errors.Is(err, godog.ErrUndefined) || errors.Is(err, godog.ErrPending)
}

func featureName(uri string) string {
	if uri == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
}
