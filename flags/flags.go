package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "BROWSER_ACCEPTOR"

// LegacyNoQuitEnvVar is honoured after BROWSER_ACCEPTOR_NO_QUIT so existing CI
// jobs keep working.
const LegacyNoQuitEnvVar = "BEHAVE_NO_QUIT"

var (
	Features = &cli.StringSliceFlag{
		Name:    "features",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FEATURES"),
		Usage:   "Feature files or directories to run (eg. 'features/')",
	}
	Browsers = &cli.StringFlag{
		Name:    "browsers",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BROWSERS"),
		Usage:   "Path to the browser profiles file (eg. 'browsers.yaml' or 'browsers.toml')",
	}
	Browser = &cli.StringFlag{
		Name:    "browser",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BROWSER"),
		Usage:   "ID of the browser profile to run against (eg. 'chrome')",
	}
	Tags = &cli.StringFlag{
		Name:    "tags",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TAGS"),
		Usage:   "Tag expression selecting scenarios (eg. '@smoke && ~@wip')",
	}
	Format = &cli.StringFlag{
		Name:    "format",
		Value:   "pretty",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FORMAT"),
		Usage:   "Scenario output format (pretty, progress, cucumber, junit)",
	}
	Strict = &cli.BoolFlag{
		Name:    "strict",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STRICT"),
		Usage:   "Fail scenarios with undefined or pending steps",
	}
	NoQuit = &cli.StringFlag{
		Name:    "no-quit",
		Value:   "",
		EnvVars: append(opservice.PrefixEnvVar(EnvVarPrefix, "NO_QUIT"), LegacyNoQuitEnvVar),
		Usage:   "Leave the browser session open after the suite: 'on-failure' or 'always'",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store run logs and summaries",
	}
	Viewport = &cli.StringFlag{
		Name:    "viewport",
		Value:   "1000x560",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "VIEWPORT"),
		Usage:   "Window size every suite starts from, as WIDTHxHEIGHT",
	}
	WaitTimeout = &cli.DurationFlag{
		Name:    "wait-timeout",
		Value:   2 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WAIT_TIMEOUT"),
		Usage:   "Default timeout for step waits (e.g. '2s')",
	}
	WaitInterval = &cli.DurationFlag{
		Name:    "wait-interval",
		Value:   100 * time.Millisecond,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WAIT_INTERVAL"),
		Usage:   "Polling interval for step waits (e.g. '100ms')",
	}
	FatalSelector = &cli.StringFlag{
		Name:    "fatal-selector",
		Value:   ".wed-fatal-modal",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FATAL_SELECTOR"),
		Usage:   "CSS selector of the application's fatal error indicator",
	}
	FatalCheckWindow = &cli.DurationFlag{
		Name:    "fatal-check-window",
		Value:   500 * time.Millisecond,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FATAL_CHECK_WINDOW"),
		Usage:   "How long to watch for the fatal error indicator after each scenario",
	}
)

var requiredFlags = []cli.Flag{
	Features,
	Browsers,
	Browser,
}

var optionalFlags = []cli.Flag{
	Tags,
	Format,
	Strict,
	NoQuit,
	LogDir,
	Viewport,
	WaitTimeout,
	WaitInterval,
	FatalSelector,
	FatalCheckWindow,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
