// Package status reports suite results to the service hosting the browser.
package status

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

const (
	ProviderNone      = "none"
	ProviderSauceLabs = "saucelabs"

	DefaultSauceLabsURL = "https://saucelabs.com"
	DefaultTimeout      = 10 * time.Second
)

// Sink records whether the suite that used a session passed.
type Sink interface {
	SetTestStatus(ctx context.Context, sessionID string, passed bool) error
}

// Config selects and configures a Sink.
type Config struct {
	Provider  string        `yaml:"provider" toml:"provider"`
	BaseURL   string        `yaml:"base_url,omitempty" toml:"base_url"`
	User      string        `yaml:"user,omitempty" toml:"user"`
	AccessKey string        `yaml:"access_key,omitempty" toml:"access_key"`
	Timeout   time.Duration `yaml:"timeout,omitempty" toml:"timeout"`
}

// New builds the sink described by cfg. An empty provider yields Noop.
func New(cfg Config, logger log.Logger) (Sink, error) {
	if logger == nil {
		logger = log.New()
	}
	switch cfg.Provider {
	case "", ProviderNone:
		return Noop{}, nil
	case ProviderSauceLabs:
		return NewSauceLabs(cfg, logger)
	default:
		return nil, errors.Errorf("unknown status provider %q", cfg.Provider)
	}
}

// Noop discards statuses. Used for local browsers.
type Noop struct{}

func (Noop) SetTestStatus(context.Context, string, bool) error {
	return nil
}

// SauceLabs marks jobs as passed or failed through the Sauce Labs REST API.
type SauceLabs struct {
	baseURL   *url.URL
	user      string
	accessKey string
	client    *http.Client
	log       log.Logger
}

func NewSauceLabs(cfg Config, logger log.Logger) (*SauceLabs, error) {
	if cfg.User == "" || cfg.AccessKey == "" {
		return nil, errors.New("saucelabs status provider requires user and access_key")
	}
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultSauceLabsURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid saucelabs base url %q", raw)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SauceLabs{
		baseURL:   base,
		user:      cfg.User,
		accessKey: cfg.AccessKey,
		client:    &http.Client{Timeout: timeout},
		log:       logger,
	}, nil
}

func (s *SauceLabs) SetTestStatus(ctx context.Context, sessionID string, passed bool) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	body, err := json.Marshal(map[string]bool{"passed": passed})
	if err != nil {
		return errors.Wrap(err, "encoding job status")
	}

	endpoint := s.baseURL.JoinPath("rest", "v1", s.user, "jobs", sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building job status request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.user, s.accessKey)

	s.log.Debug("Setting job status", "session_id", sessionID, "passed", passed, "url", endpoint.String())
	res, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to set status for job %s", sessionID)
	}
	defer res.Body.Close()
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return errors.Errorf("setting status for job %s: unexpected response %s: %s", sessionID, res.Status, bytes.TrimSpace(msg))
	}
	return nil
}
