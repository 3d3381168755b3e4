package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	acceptor "github.com/ethereum-optimism/infra/browser-acceptor"
	"github.com/ethereum-optimism/infra/browser-acceptor/exitcodes"
	"github.com/ethereum-optimism/infra/browser-acceptor/flags"
	"github.com/ethereum-optimism/infra/browser-acceptor/service"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "browser-acceptor"
	app.Usage = "Browser Acceptance Test Runner"
	app.Description = "browser-acceptor runs Gherkin feature suites against a remote browser"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.Commands = []*cli.Command{ListBrowsersCommand()}
	app.ExitErrHandler = exitErrHandler
	return app
}

func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if !errors.As(err, &exitErr) {
		exitErr = cli.Exit(err.Error(), exitCode(err))
	}
	log.Error("Exiting", "code", exitErr.ExitCode(), "reason", exitcodes.Describe(exitErr.ExitCode()))
	cli.HandleExitCoder(exitErr)
}

// exitCode maps typed errors to process exit codes
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case acceptor.IsRuntimeError(err):
		return exitcodes.RuntimeErr
	default:
		// Test failures and other unspecified errors
		return exitcodes.TestFailure
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := acceptor.NewConfig(
		ctx,
		log,
		ctx.StringSlice(flags.Features.Name),
		ctx.String(flags.Browsers.Name),
		ctx.String(flags.Browser.Name),
	)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, acceptor.NewStageError(acceptor.StageConfig, fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	a, err := acceptor.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, acceptor.NewStageError(acceptor.StageConfig, fmt.Errorf("failed to create browser-acceptor: %w", err))
	}

	return &withService{
		Lifecycle: a,
		svc:       service.New(serviceConfig(ctx)),
	}, nil
}

// serviceConfig reads the healthz and metrics listen addresses from the flags.
func serviceConfig(ctx *cli.Context) service.Config {
	return service.ConfigFromMetrics(opmetrics.ReadCLIConfig(ctx))
}

// withService runs the healthz and metrics servers alongside the suite.
type withService struct {
	cliapp.Lifecycle
	svc *service.Service
}

func (w *withService) Start(ctx context.Context) error {
	w.svc.Start(ctx)
	return w.Lifecycle.Start(ctx)
}

func (w *withService) Stop(ctx context.Context) error {
	err := w.Lifecycle.Stop(ctx)
	w.svc.Shutdown()
	return err
}
