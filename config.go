package acceptor

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/browser-acceptor/flags"
	"github.com/ethereum-optimism/infra/browser-acceptor/session"
)

// Config holds the application configuration
type Config struct {
	FeaturePaths     []string           // Feature files or directories, absolute
	ProfilesFile     string             // Browser profiles file, absolute
	BrowserID        string             // Profile to run against
	Tags             string             // Tag expression selecting scenarios
	Format           string             // Runner output format
	Strict           bool               // Fail on undefined or pending steps
	KeepPolicy       session.KeepPolicy // Whether to leave the session open after the suite
	Viewport         session.Viewport   // Window size every suite starts from
	WaitTimeout      time.Duration      // Default timeout for step waits
	WaitInterval     time.Duration      // Polling interval for step waits
	FatalSelector    string             // CSS selector of the fatal error indicator
	FatalCheckWindow time.Duration      // How long to watch for the indicator after each scenario
	LogDir           string             // Directory to store run logs
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, featurePaths []string, profilesFile string, browserID string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if len(featurePaths) == 0 {
		return nil, errors.New("at least one feature path is required")
	}
	if profilesFile == "" {
		return nil, errors.New("browser profiles file is required")
	}
	if browserID == "" {
		return nil, errors.New("browser profile is required")
	}

	absPaths := make([]string, 0, len(featurePaths))
	for _, p := range featurePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for feature path '%s': %w", p, err)
		}
		absPaths = append(absPaths, abs)
	}
	absProfiles, err := filepath.Abs(profilesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for browser profiles '%s': %w", profilesFile, err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	policy, err := session.ParseKeepPolicy(ctx.String(flags.NoQuit.Name))
	if err != nil {
		return nil, err
	}
	viewport, err := session.ParseViewport(ctx.String(flags.Viewport.Name))
	if err != nil {
		return nil, err
	}

	waitTimeout := ctx.Duration(flags.WaitTimeout.Name)
	waitInterval := ctx.Duration(flags.WaitInterval.Name)
	if waitTimeout <= 0 || waitInterval <= 0 || waitInterval > waitTimeout {
		return nil, fmt.Errorf("invalid wait durations: timeout %s, interval %s", waitTimeout, waitInterval)
	}
	checkWindow := ctx.Duration(flags.FatalCheckWindow.Name)
	if checkWindow <= 0 {
		return nil, fmt.Errorf("invalid fatal check window %s", checkWindow)
	}

	return &Config{
		FeaturePaths:     absPaths,
		ProfilesFile:     absProfiles,
		BrowserID:        browserID,
		Tags:             ctx.String(flags.Tags.Name),
		Format:           ctx.String(flags.Format.Name),
		Strict:           ctx.Bool(flags.Strict.Name),
		KeepPolicy:       policy,
		Viewport:         viewport,
		WaitTimeout:      waitTimeout,
		WaitInterval:     waitInterval,
		FatalSelector:    ctx.String(flags.FatalSelector.Name),
		FatalCheckWindow: checkWindow,
		LogDir:           logDir,
		Log:              log,
	}, nil
}
