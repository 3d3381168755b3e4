package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/session/sessiontest"
	"github.com/ethereum-optimism/infra/browser-acceptor/types"
	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
	"github.com/ethereum-optimism/infra/browser-acceptor/wait/waittest"
)

var startSize = session.Viewport{Width: 1000, Height: 560}

type harness struct {
	driver  *sessiontest.FakeDriver
	clock   *waittest.Clock
	outcome *types.SuiteOutcome
	ctrl    *Controller

	// fatalAt is when, relative to the first fatal probe, the indicator
	// appears. Negative means never.
	fatalAt    time.Duration
	firstProbe *time.Time
	checkErr   error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		driver:  sessiontest.NewFakeDriver("sess", startSize),
		clock:   waittest.NewClock(),
		outcome: types.NewSuiteOutcome("run"),
		fatalAt: -1,
	}
	h.driver.Script = func(_ string, args []any) (any, error) {
		if len(args) != 1 || args[0] != DefaultFatalSelector {
			return nil, nil
		}
		if h.checkErr != nil {
			return nil, h.checkErr
		}
		now := h.clock.Now()
		if h.firstProbe == nil {
			h.firstProbe = &now
		}
		return h.fatalAt >= 0 && now.Sub(*h.firstProbe) >= h.fatalAt, nil
	}

	poller, err := wait.NewPoller(h.driver, wait.WithClock(h.clock), wait.WithInterval(50*time.Millisecond))
	require.NoError(t, err)
	h.ctrl, err = NewController(Config{
		Driver:  h.driver,
		Poller:  poller,
		Outcome: h.outcome,
		Log:     log.New(),
		Browser: "fake",
	})
	require.NoError(t, err)
	return h
}

func (h *harness) run(t *testing.T, name string, step func(), stepErr error) (*types.ScenarioResult, error) {
	t.Helper()
	h.firstProbe = nil
	ctx, err := h.ctrl.BeforeScenario(context.Background(), name)
	require.NoError(t, err)
	require.Equal(t, PhaseRunning, h.ctrl.Phase())
	if step != nil {
		step()
	}
	result := &types.ScenarioResult{Name: name}
	err = h.ctrl.AfterScenario(ctx, result, stepErr)
	assert.Equal(t, PhaseRestored, h.ctrl.Phase())
	assert.Nil(t, h.ctrl.Snapshot())
	return result, err
}

func TestUnchangedViewportIssuesNoResize(t *testing.T) {
	h := newHarness(t)

	result, err := h.run(t, "no-op", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ScenarioStatusPass, result.Status)
	assert.False(t, result.ViewportRestored)
	assert.Zero(t, h.driver.ResizeCount())
}

func TestDriftedViewportIsRestoredOnce(t *testing.T) {
	h := newHarness(t)

	result, err := h.run(t, "resize", func() {
		h.driver.Drift(session.Viewport{Width: 800, Height: 600})
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.ViewportRestored)
	assert.Equal(t, []session.Viewport{startSize}, h.driver.Resizes)
	assert.Equal(t, startSize, h.driver.Size)

	// a second, well-behaved scenario does not resize again
	_, err = h.run(t, "after", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h.driver.ResizeCount())
}

func TestPostCheckPassesWithoutIndicator(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "clean", nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h.clock.Elapsed(), DefaultFatalCheckWindow, "the whole window is watched")
	assert.LessOrEqual(t, h.clock.Elapsed(), DefaultFatalCheckWindow+50*time.Millisecond)
}

func TestPostCheckFlagsInjectedIndicator(t *testing.T) {
	tests := []struct {
		name    string
		fatalAt time.Duration
	}{
		{name: "present immediately", fatalAt: 0},
		{name: "appears inside window", fatalAt: 300 * time.Millisecond},
		{name: "appears at window end", fatalAt: DefaultFatalCheckWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fatalAt = tt.fatalAt

			result, err := h.run(t, "broken", func() {
				h.driver.Drift(session.Viewport{Width: 640, Height: 480})
			}, nil)
			require.Error(t, err)
			assert.True(t, IsFatalApplicationError(err))
			assert.Equal(t, types.ScenarioStatusFatal, result.Status)
			assert.True(t, result.ViewportRestored, "viewport is restored even after a fatal error")
			assert.Equal(t, startSize, h.driver.Size)
			assert.True(t, h.outcome.Failed())
		})
	}
}

func TestStepErrorFailsScenario(t *testing.T) {
	h := newHarness(t)
	stepErr := &wait.TimeoutError{Condition: "errors to appear", Timeout: time.Second}

	result, err := h.run(t, "failing", nil, stepErr)
	require.Error(t, err)
	assert.ErrorIs(t, err, wait.ErrTimeout)
	assert.False(t, IsFatalApplicationError(err))
	assert.Equal(t, types.ScenarioStatusFail, result.Status)
	assert.Equal(t, stepErr.Error(), result.ErrorMessage())
}

func TestStepErrorAndFatalAreJoined(t *testing.T) {
	h := newHarness(t)
	h.fatalAt = 0
	stepErr := errors.New("assertion failed")

	result, err := h.run(t, "both", nil, stepErr)
	assert.ErrorIs(t, err, stepErr)
	assert.True(t, IsFatalApplicationError(err))
	assert.Equal(t, types.ScenarioStatusFatal, result.Status)
}

func TestPostCheckScriptErrorIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.checkErr = errors.New("javascript error: document is not defined")

	result, err := h.run(t, "script error", nil, nil)
	assert.ErrorIs(t, err, h.checkErr)
	assert.False(t, IsFatalApplicationError(err))
	assert.Equal(t, types.ScenarioStatusFail, result.Status)

	stats := h.outcome.Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Fatal, "a broken check script is not a fatal application error")
}

func TestSkippedScenarioKeepsStatus(t *testing.T) {
	h := newHarness(t)
	ctx, err := h.ctrl.BeforeScenario(context.Background(), "pending")
	require.NoError(t, err)
	result := &types.ScenarioResult{Name: "pending", Status: types.ScenarioStatusSkip}
	require.NoError(t, h.ctrl.AfterScenario(ctx, result, nil))
	assert.Equal(t, types.ScenarioStatusSkip, result.Status)
}

func TestPhaseOrdering(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, PhaseIdle, h.ctrl.Phase())

	err := h.ctrl.AfterScenario(context.Background(), &types.ScenarioResult{Name: "x"}, nil)
	assert.ErrorIs(t, err, ErrPhase)

	_, err = h.ctrl.BeforeScenario(context.Background(), "a")
	require.NoError(t, err)
	_, err = h.ctrl.BeforeScenario(context.Background(), "b")
	assert.ErrorIs(t, err, ErrPhase, "scenarios must not interleave")
	assert.Equal(t, "a", h.ctrl.Snapshot().Scenario)
}

func TestOutcomeAccumulatesAcrossScenarios(t *testing.T) {
	h := newHarness(t)

	_, _ = h.run(t, "one", nil, errors.New("failed"))
	_, _ = h.run(t, "two", nil, nil)

	require.Len(t, h.outcome.Results, 2)
	assert.True(t, h.outcome.Failed(), "an early failure fails the suite")
	assert.False(t, h.outcome.LastFailed())
}

func TestNewControllerValidation(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess", startSize)
	poller, err := wait.NewPoller(driver)
	require.NoError(t, err)
	outcome := types.NewSuiteOutcome("run")

	_, err = NewController(Config{Poller: poller, Outcome: outcome})
	assert.Error(t, err)
	_, err = NewController(Config{Driver: driver, Outcome: outcome})
	assert.Error(t, err)
	_, err = NewController(Config{Driver: driver, Poller: poller})
	assert.Error(t, err)

	c, err := NewController(Config{Driver: driver, Poller: poller, Outcome: outcome})
	require.NoError(t, err)
	assert.Equal(t, DefaultFatalSelector, c.fatal)
	assert.Equal(t, DefaultFatalCheckWindow, c.checkWindow)
}
