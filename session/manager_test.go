package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/session/sessiontest"
	"github.com/ethereum-optimism/infra/browser-acceptor/status"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) SetTestStatus(ctx context.Context, sessionID string, passed bool) error {
	args := m.Called(sessionID, passed)
	return args.Error(0)
}

func newManager(t *testing.T, driver *sessiontest.FakeDriver, cfg session.Config, sink status.Sink) *session.Manager {
	t.Helper()
	cfg.Log = log.New()
	m, err := session.NewManager(cfg, sessiontest.Dialer(driver, nil), sink)
	require.NoError(t, err)
	return m
}

func TestManagerStart(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess-1", session.Viewport{Width: 1280, Height: 1024})
	var dialed session.BrowserConfig
	m, err := session.NewManager(session.Config{
		Browser: session.BrowserConfig{Name: "chrome", RemoteURL: "http://localhost:4444/wd/hub"},
		Log:     log.New(),
	}, sessiontest.Dialer(driver, &dialed), nil)
	require.NoError(t, err)

	got, err := m.Start(context.Background())
	require.NoError(t, err)
	assert.Same(t, driver, got)
	assert.Same(t, driver, m.Session())
	assert.Equal(t, "chrome", dialed.Name)
	assert.Equal(t, []session.Viewport{session.DefaultViewport}, driver.Resizes, "viewport is normalized once")
	assert.Zero(t, driver.QuitN)
}

func TestManagerStartsAtMostOneSession(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess-1", session.DefaultViewport)
	m := newManager(t, driver, session.Config{}, nil)

	_, err := m.Start(context.Background())
	require.NoError(t, err)
	_, err = m.Start(context.Background())
	assert.ErrorIs(t, err, session.ErrSessionExists)

	_, err = m.Stop(context.Background(), false)
	require.NoError(t, err)
	_, err = m.Start(context.Background())
	assert.ErrorIs(t, err, session.ErrSessionExists, "a stopped manager cannot start again")
}

func TestManagerStartMissingCapability(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess-1", session.DefaultViewport)
	driver.Caps = session.Capabilities{session.NativeEvents: false, "takesScreenshot": true}
	m := newManager(t, driver, session.Config{}, nil)

	_, err := m.Start(context.Background())
	require.Error(t, err)
	assert.True(t, session.IsCapabilityError(err))
	var capErr *session.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, []string{session.NativeEvents}, capErr.Missing)
	assert.Equal(t, "sess-1", capErr.SessionID)
	assert.Equal(t, 1, driver.QuitN, "the rejected session is quit")
	assert.Nil(t, m.Session())
}

func TestManagerStartCustomCapabilities(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess-1", session.DefaultViewport)
	driver.Caps = session.Capabilities{}
	m := newManager(t, driver, session.Config{RequiredCapabilities: []string{}}, nil)

	_, err := m.Start(context.Background())
	require.NoError(t, err, "an explicit empty list disables the capability check")
}

func TestManagerStartErrors(t *testing.T) {
	t.Run("dial failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		m, err := session.NewManager(session.Config{Log: log.New()},
			session.DialerFunc(func(context.Context, session.BrowserConfig) (session.Driver, error) {
				return nil, boom
			}), nil)
		require.NoError(t, err)

		_, err = m.Start(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.False(t, session.IsCapabilityError(err))
	})

	t.Run("resize failure", func(t *testing.T) {
		driver := sessiontest.NewFakeDriver("sess-1", session.DefaultViewport)
		driver.SetSizeErr = errors.New("window gone")
		m := newManager(t, driver, session.Config{}, nil)

		_, err := m.Start(context.Background())
		assert.ErrorIs(t, err, driver.SetSizeErr)
		assert.Equal(t, 1, driver.QuitN)
	})
}

func TestNewManagerValidation(t *testing.T) {
	dialer := sessiontest.Dialer(sessiontest.NewFakeDriver("x", session.DefaultViewport), nil)

	_, err := session.NewManager(session.Config{}, nil, nil)
	assert.Error(t, err)

	_, err = session.NewManager(session.Config{Viewport: session.Viewport{Width: -1, Height: 10}}, dialer, nil)
	assert.Error(t, err)

	_, err = session.NewManager(session.Config{KeepPolicy: "sometimes"}, dialer, nil)
	assert.ErrorIs(t, err, session.ErrInvalidPolicy)
}

func TestManagerRecordOutcome(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess-42", session.DefaultViewport)
	sink := new(mockSink)
	sink.On("SetTestStatus", "sess-42", false).Return(nil).Once()
	m := newManager(t, driver, session.Config{}, sink)

	assert.ErrorIs(t, m.RecordOutcome(context.Background(), true), session.ErrNoSession)

	_, err := m.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.RecordOutcome(context.Background(), false))
	sink.AssertExpectations(t)
}

func TestManagerRecordOutcomeSinkError(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess-42", session.DefaultViewport)
	sink := new(mockSink)
	boom := errors.New("api down")
	sink.On("SetTestStatus", "sess-42", true).Return(boom)
	m := newManager(t, driver, session.Config{}, sink)

	_, err := m.Start(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, m.RecordOutcome(context.Background(), true), boom)
	assert.Same(t, driver, m.Session(), "a status failure does not affect the session")
}

func TestManagerStopDisposalTable(t *testing.T) {
	tests := []struct {
		policy session.KeepPolicy
		failed bool
		want   session.Disposal
	}{
		{policy: session.KeepNever, failed: false, want: session.DisposalClosed},
		{policy: session.KeepNever, failed: true, want: session.DisposalClosed},
		{policy: session.KeepOnFailure, failed: false, want: session.DisposalClosed},
		{policy: session.KeepOnFailure, failed: true, want: session.DisposalKept},
		{policy: session.KeepAlways, failed: false, want: session.DisposalKept},
		{policy: session.KeepAlways, failed: true, want: session.DisposalKept},
	}

	for _, tt := range tests {
		name := tt.policy.String()
		if tt.failed {
			name += "/failed"
		} else {
			name += "/passed"
		}
		t.Run(name, func(t *testing.T) {
			driver := sessiontest.NewFakeDriver("sess", session.DefaultViewport)
			m := newManager(t, driver, session.Config{KeepPolicy: tt.policy}, nil)
			_, err := m.Start(context.Background())
			require.NoError(t, err)

			got, err := m.Stop(context.Background(), tt.failed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want == session.DisposalClosed {
				assert.Equal(t, 1, driver.QuitN)
			} else {
				assert.Zero(t, driver.QuitN)
			}
			assert.Nil(t, m.Session(), "ownership ends either way")
		})
	}
}

func TestManagerStopErrors(t *testing.T) {
	driver := sessiontest.NewFakeDriver("sess", session.DefaultViewport)
	driver.QuitErr = errors.New("already gone")
	m := newManager(t, driver, session.Config{}, nil)

	_, err := m.Stop(context.Background(), false)
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = m.Start(context.Background())
	require.NoError(t, err)
	got, err := m.Stop(context.Background(), false)
	assert.ErrorIs(t, err, driver.QuitErr)
	assert.Equal(t, session.DisposalClosed, got)
}
