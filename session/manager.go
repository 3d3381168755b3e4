package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/browser-acceptor/status"
)

// Config configures the Manager.
type Config struct {
	Browser              BrowserConfig
	Viewport             Viewport
	RequiredCapabilities []string
	KeepPolicy           KeepPolicy
	Log                  log.Logger
}

// Manager owns the one browser session used by a whole suite. Scenario hooks
// and steps borrow the Driver it returns but must never Quit it.
type Manager struct {
	cfg    Config
	dialer Dialer
	sink   status.Sink
	log    log.Logger

	mu     sync.Mutex
	driver Driver
	used   bool
}

// NewManager creates a Manager. Defaults: DefaultViewport, nativeEvents required,
// a Noop status sink.
func NewManager(cfg Config, dialer Dialer, sink status.Sink) (*Manager, error) {
	if dialer == nil {
		return nil, errors.New("dialer is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Viewport == (Viewport{}) {
		cfg.Viewport = DefaultViewport
	}
	if !cfg.Viewport.Valid() {
		return nil, fmt.Errorf("invalid viewport %s", cfg.Viewport)
	}
	if cfg.RequiredCapabilities == nil {
		cfg.RequiredCapabilities = []string{NativeEvents}
	}
	if _, err := ParseKeepPolicy(string(cfg.KeepPolicy)); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = status.Noop{}
	}
	return &Manager{
		cfg:    cfg,
		dialer: dialer,
		sink:   sink,
		log:    cfg.Log,
	}, nil
}

// Start opens the suite's session, normalizes its viewport and checks the
// negotiated capabilities. A Manager starts at most one session in its lifetime.
func (m *Manager) Start(ctx context.Context) (Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used {
		return nil, ErrSessionExists
	}
	m.used = true

	m.log.Info("Starting browser session", "browser", m.cfg.Browser.Name, "remote", m.cfg.Browser.RemoteURL)
	driver, err := m.dialer.Dial(ctx, m.cfg.Browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}

	if err := driver.SetWindowSize(ctx, m.cfg.Viewport); err != nil {
		m.abandon(driver)
		return nil, fmt.Errorf("failed to set initial viewport %s: %w", m.cfg.Viewport, err)
	}

	caps := driver.Capabilities()
	var missing []string
	for _, name := range m.cfg.RequiredCapabilities {
		if !caps.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		m.abandon(driver)
		return nil, &CapabilityError{SessionID: driver.SessionID(), Missing: missing}
	}

	m.driver = driver
	m.log.Info("Browser session started", "session_id", driver.SessionID(), "viewport", m.cfg.Viewport)
	return driver, nil
}

// Session returns the running session, or nil before Start and after Stop.
func (m *Manager) Session() Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver
}

// RecordOutcome reports the suite result against the session ID. The report is
// advisory: callers log the error and carry on.
func (m *Manager) RecordOutcome(ctx context.Context, passed bool) error {
	driver := m.Session()
	if driver == nil {
		return ErrNoSession
	}
	if err := m.sink.SetTestStatus(ctx, driver.SessionID(), passed); err != nil {
		m.log.Warn("Failed to record test status", "session_id", driver.SessionID(), "passed", passed, "err", err)
		return fmt.Errorf("recording test status: %w", err)
	}
	m.log.Debug("Recorded test status", "session_id", driver.SessionID(), "passed", passed)
	return nil
}

// Stop ends the Manager's ownership of the session. The session is quit unless
// the keep policy says to leave it open for inspection.
func (m *Manager) Stop(ctx context.Context, failed bool) (Disposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.driver == nil {
		return "", ErrNoSession
	}
	driver := m.driver
	m.driver = nil

	if m.cfg.KeepPolicy.Keep(failed) {
		m.log.Warn("Leaving browser session open", "session_id", driver.SessionID(),
			"policy", m.cfg.KeepPolicy, "failed", failed)
		return DisposalKept, nil
	}
	if err := driver.Quit(); err != nil {
		return DisposalClosed, fmt.Errorf("failed to quit session %s: %w", driver.SessionID(), err)
	}
	m.log.Info("Browser session closed", "session_id", driver.SessionID())
	return DisposalClosed, nil
}

// abandon quits a session that never became the suite's session.
func (m *Manager) abandon(driver Driver) {
	if err := driver.Quit(); err != nil {
		m.log.Warn("Failed to quit abandoned session", "session_id", driver.SessionID(), "err", err)
	}
}
