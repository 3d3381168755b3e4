package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Defaults used by Wait when no option overrides them.
const (
	DefaultTimeout  = 2 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Outcome labels reported to an Observer.
const (
	OutcomeMet     = "met"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Observer is notified once per finished wait.
type Observer func(outcome string, elapsed time.Duration)

// Poller repeatedly evaluates conditions against a single session.
// It is not safe for concurrent use; the harness drives it from one goroutine.
type Poller struct {
	session  Session
	clock    Clock
	timeout  time.Duration
	interval time.Duration
	log      log.Logger
	observer Observer
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the system clock, typically with a simulated one in tests.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithDefaultTimeout sets the timeout used by Wait.
func WithDefaultTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithInterval sets the delay between probes.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithLogger sets the logger wait timeouts are reported to.
func WithLogger(l log.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithObserver registers o to be called when each wait finishes.
func WithObserver(o Observer) Option {
	return func(p *Poller) { p.observer = o }
}

// NewPoller creates a Poller bound to the given session.
func NewPoller(s Session, opts ...Option) (*Poller, error) {
	p := &Poller{
		session:  s,
		clock:    SystemClock{},
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = log.New()
	}
	if err := validate(p.timeout, p.interval); err != nil {
		return nil, err
	}
	return p, nil
}

// Timeout returns the current default timeout.
func (p *Poller) Timeout() time.Duration {
	return p.timeout
}

// Interval returns the default poll interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Session returns the session conditions are evaluated against.
func (p *Poller) Session() Session {
	return p.session
}

// Wait polls cond with the default timeout and interval.
func (p *Poller) Wait(ctx context.Context, cond Condition) (any, error) {
	return p.WaitFor(ctx, cond, p.timeout, p.interval)
}

// WaitFor polls cond until it returns a truthy value, returns an error, or
// timeout elapses. The final probe happens at the deadline, so a TimeoutError
// is never returned before timeout and never later than timeout+interval.
func (p *Poller) WaitFor(ctx context.Context, cond Condition, timeout, interval time.Duration) (any, error) {
	if err := validate(timeout, interval); err != nil {
		return nil, err
	}

	start := p.clock.Now()
	deadline := start.Add(timeout)
	polls := 0
	for {
		polls++
		v, err := cond.Check(ctx, p.session)
		if err != nil {
			p.observe(OutcomeError, start)
			return nil, err
		}
		if Truthy(v) {
			p.observe(OutcomeMet, start)
			return v, nil
		}

		now := p.clock.Now()
		if !now.Before(deadline) {
			p.observe(OutcomeTimeout, start)
			p.log.Debug("Wait timed out", "condition", Describe(cond), "timeout", timeout, "polls", polls)
			return nil, &TimeoutError{
				Condition: Describe(cond),
				Timeout:   timeout,
				Elapsed:   now.Sub(start),
				Polls:     polls,
			}
		}

		sleep := interval
		if remaining := deadline.Sub(now); remaining < sleep {
			sleep = remaining
		}
		if err := p.clock.Sleep(ctx, sleep); err != nil {
			p.observe(OutcomeError, start)
			return nil, fmt.Errorf("waiting for %s: %w", Describe(cond), err)
		}
	}
}

// WithTimeout runs fn with the default timeout set to d. The previous default
// is restored however fn exits, including by panic.
func (p *Poller) WithTimeout(d time.Duration, fn func() error) error {
	if d <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidDuration, d)
	}
	prev := p.timeout
	p.timeout = d
	defer func() { p.timeout = prev }()
	return fn()
}

// ExpectTimeout succeeds only if cond never becomes truthy within timeout.
// It is how a step asserts the absence of something.
func (p *Poller) ExpectTimeout(ctx context.Context, cond Condition, timeout time.Duration) error {
	interval := p.interval
	if interval > timeout {
		interval = timeout
	}
	v, err := p.WaitFor(ctx, cond, timeout, interval)
	if err == nil {
		return &ConditionMetError{Condition: Describe(cond), Value: v}
	}
	if IsTimeout(err) {
		return nil
	}
	return err
}

func (p *Poller) observe(outcome string, start time.Time) {
	if p.observer != nil {
		p.observer(outcome, p.clock.Now().Sub(start))
	}
}

func validate(timeout, interval time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidDuration, timeout)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidDuration, interval)
	}
	if interval > timeout {
		return fmt.Errorf("%w: poll interval %s exceeds timeout %s", ErrInvalidDuration, interval, timeout)
	}
	return nil
}
