package acceptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/browser-acceptor/exitcodes"
	"github.com/ethereum-optimism/infra/browser-acceptor/logging"
	"github.com/ethereum-optimism/infra/browser-acceptor/metrics"
	"github.com/ethereum-optimism/infra/browser-acceptor/registry"
	"github.com/ethereum-optimism/infra/browser-acceptor/reporting"
	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/status"
	"github.com/ethereum-optimism/infra/browser-acceptor/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// Acceptor implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &Acceptor{}

// godog.TestSuite.Run exit statuses
const (
	suitePassed     = 0
	suiteFailed     = 1
	suiteBadOptions = 2
)

// Acceptor runs a feature suite against one browser profile, once.
type Acceptor struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	profile  registry.Profile
	dialer   session.Dialer
	sink     status.Sink
	output   io.Writer
	outcome  *types.SuiteOutcome

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating browser-acceptor with config",
		"features", config.FeaturePaths,
		"profiles", config.ProfilesFile,
		"browser", config.BrowserID,
		"keepPolicy", config.KeepPolicy,
		"viewport", config.Viewport)

	reg, err := registry.NewRegistry(registry.Config{
		Log:          config.Log,
		ProfilesFile: config.ProfilesFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	profile, err := reg.Profile(config.BrowserID)
	if err != nil {
		return nil, err
	}
	sink, err := status.New(reg.StatusConfig(), config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create status sink: %w", err)
	}
	config.Log.Info("New: loaded browser profile", "browser", profile.ID, "remote", profile.Remote)

	return &Acceptor{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		profile:          profile,
		dialer:           session.WebDriverDialer{Log: config.Log},
		sink:             sink,
		output:           os.Stdout,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the suite and reports the result.
// Start implements the cliapp.Lifecycle interface.
func (a *Acceptor) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.running.Store(true)
	a.config.Log.Info("Starting browser-acceptor", "version", a.version, "browser", a.profile.ID)

	err := a.runSuite(ctx)
	if IsTestFailureError(err) {
		a.config.Log.Warn("Suite completed with failures, returning exit code 1")
		return err
	}
	if err != nil {
		a.config.Log.Error("Runtime error running suite", "error", err)
		if !IsRuntimeError(err) {
			err = NewRuntimeError(err)
		}
		return err
	}

	a.config.Log.Info("Suite completed, exiting")
	go func() {
		a.shutdownCallback(nil)
	}()
	return nil
}

// runSuite opens the session, runs every scenario against it and disposes of it.
func (a *Acceptor) runSuite(ctx context.Context) error {
	runID := uuid.New().String()
	ctx, span := otel.Tracer("browser acceptor").Start(ctx, "suite", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("browser", a.profile.ID),
	))
	defer span.End()

	runLog, err := logging.NewRunLog(a.config.LogDir, runID)
	if err != nil {
		return NewStageError(StageConfig, err)
	}
	defer runLog.Close()

	manager, err := session.NewManager(session.Config{
		Browser:              a.profile.BrowserConfig(),
		Viewport:             a.config.Viewport,
		RequiredCapabilities: a.profile.RequiredCapabilities,
		KeepPolicy:           a.config.KeepPolicy,
		Log:                  a.config.Log,
	}, a.dialer, a.sink)
	if err != nil {
		return NewStageError(StageSession, err)
	}
	driver, err := manager.Start(ctx)
	if err != nil {
		metrics.RecordErrorDetails("session start", err)
		span.SetStatus(codes.Error, err.Error())
		return NewStageError(StageSession, err)
	}

	outcome := types.NewSuiteOutcome(runID)
	a.outcome = outcome
	harness, err := NewHarness(HarnessConfig{
		Driver:           driver,
		Outcome:          outcome,
		Log:              a.config.Log,
		RunLog:           runLog,
		Browser:          a.profile.ID,
		Strict:           a.config.Strict,
		WaitTimeout:      a.config.WaitTimeout,
		WaitInterval:     a.config.WaitInterval,
		FatalSelector:    a.config.FatalSelector,
		FatalCheckWindow: a.config.FatalCheckWindow,
	})
	if err != nil {
		a.dispose(ctx, manager, true)
		return NewStageError(StageRunner, err)
	}

	suiteStatus := godog.TestSuite{
		Name:                 "browser-acceptor",
		TestSuiteInitializer: harness.InitializeTestSuite,
		ScenarioInitializer:  harness.InitializeScenario,
		Options: &godog.Options{
			Format:         a.config.Format,
			Paths:          a.config.FeaturePaths,
			Tags:           a.config.Tags,
			Strict:         a.config.Strict,
			Concurrency:    1,
			Output:         runLog.Tee(a.output),
			DefaultContext: ctx,
		},
	}.Run()
	if outcome.EndTime.IsZero() {
		outcome.EndTime = time.Now()
	}

	failed := outcome.Failed() || suiteStatus == suiteFailed || suiteStatus == suiteBadOptions
	a.dispose(ctx, manager, failed)
	a.report(outcome, runLog)

	if suiteStatus == suiteBadOptions {
		return NewStageError(StageRunner, fmt.Errorf("invalid runner options for features %v", a.config.FeaturePaths))
	}
	if failed {
		span.SetStatus(codes.Error, outcome.String())
		return newSuiteFailure(outcome)
	}
	return nil
}

// dispose reports the suite result against the session and then closes or
// keeps it according to the keep policy.
func (a *Acceptor) dispose(ctx context.Context, manager *session.Manager, failed bool) {
	if err := manager.RecordOutcome(ctx, !failed); err != nil {
		metrics.RecordErrorDetails("record outcome", err)
	}
	disposal, err := manager.Stop(ctx, failed)
	if err != nil {
		a.config.Log.Warn("Failed to dispose of browser session", "err", err)
		metrics.RecordErrorDetails("session stop", err)
	}
	if disposal != "" {
		metrics.RecordSessionDisposal(a.profile.ID, string(disposal))
	}
}

// report prints the results table and writes the run summary.
func (a *Acceptor) report(outcome *types.SuiteOutcome, runLog *logging.RunLog) {
	a.config.Log.Info("Printing results...")
	table := reporting.NewTableReporter("Browser Acceptance Results")
	if err := table.Print(a.output, outcome); err != nil {
		a.config.Log.Error("Failed to print results table", "err", err)
	}
	fmt.Fprintln(a.output, outcome.String())

	if path, err := reporting.WriteSummary(runLog.Dir(), outcome, a.profile.ID); err != nil {
		a.config.Log.Error("Failed to write summary", "err", err)
	} else {
		a.config.Log.Info("Wrote summary", "path", path)
	}

	metrics.RecordSuite(a.profile.ID, outcome.RunID, outcome.Status(), outcome.Duration())
	a.config.Log.Info("Suite run completed", "run_id", outcome.RunID, "status", outcome.Status())
}

// Outcome returns the result of the last run, or nil.
func (a *Acceptor) Outcome() *types.SuiteOutcome {
	return a.outcome
}

// Stop stops the browser-acceptor service.
// Stop implements the cliapp.Lifecycle interface.
func (a *Acceptor) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping browser-acceptor")
	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)
	a.config.Log.Info("browser-acceptor stopped successfully")
	return nil
}

// Stopped returns true if the browser-acceptor service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (a *Acceptor) Stopped() bool {
	return !a.running.Load()
}
