// Package sessiontest provides an in-memory session.Driver for tests.
package sessiontest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
)

// ScriptFunc answers ExecuteScript calls.
type ScriptFunc func(script string, args []any) (any, error)

// FakeDriver records every command it receives. By default window resizes are
// applied immediately and scripts return nil.
type FakeDriver struct {
	mu sync.Mutex

	ID         string
	Caps       session.Capabilities
	Size       session.Viewport
	Script     ScriptFunc
	Elements   map[session.Selector]*FakeElement
	Body       *FakeElement
	SetSizeErr error
	QuitErr    error

	Resizes  []session.Viewport
	Scripts  []string
	QuitN    int
	Finds    []session.Selector
	sizeHook func(session.Viewport) session.Viewport
	active   *FakeElement
}

var _ session.Driver = (*FakeDriver)(nil)

// NewFakeDriver returns a driver with native events and the given initial size.
func NewFakeDriver(id string, size session.Viewport) *FakeDriver {
	return &FakeDriver{
		ID:       id,
		Caps:     session.Capabilities{session.NativeEvents: true},
		Size:     size,
		Elements: make(map[session.Selector]*FakeElement),
		Body:     &FakeElement{Displayed: true},
	}
}

// OnResize lets a test change what size a resize actually produces.
func (d *FakeDriver) OnResize(fn func(requested session.Viewport) session.Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sizeHook = fn
}

func (d *FakeDriver) SessionID() string {
	return d.ID
}

func (d *FakeDriver) Capabilities() session.Capabilities {
	return d.Caps
}

func (d *FakeDriver) ExecuteScript(_ context.Context, script string, args ...any) (any, error) {
	d.mu.Lock()
	d.Scripts = append(d.Scripts, script)
	fn := d.Script
	d.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(script, args)
}

func (d *FakeDriver) WindowSize(context.Context) (session.Viewport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Size, nil
}

func (d *FakeDriver) SetWindowSize(_ context.Context, vp session.Viewport) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SetSizeErr != nil {
		return d.SetSizeErr
	}
	d.Resizes = append(d.Resizes, vp)
	if d.sizeHook != nil {
		d.Size = d.sizeHook(vp)
	} else {
		d.Size = vp
	}
	return nil
}

// Drift changes the window size without recording a resize, as a scenario
// step would.
func (d *FakeDriver) Drift(vp session.Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Size = vp
}

func (d *FakeDriver) FindElement(_ context.Context, sel session.Selector) (session.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Finds = append(d.Finds, sel)
	if el, ok := d.Elements[sel]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", session.ErrNoSuchElement, sel)
}

// Focus gives el keyboard focus. A nil el focuses the body.
func (d *FakeDriver) Focus(el *FakeElement) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = el
}

func (d *FakeDriver) ActiveElement(context.Context) (session.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return d.Body, nil
	}
	return d.active, nil
}

func (d *FakeDriver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.QuitN++
	return d.QuitErr
}

// ResizeCount returns how many resize commands were issued.
func (d *FakeDriver) ResizeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Resizes)
}

// FakeElement records interactions.
type FakeElement struct {
	Displayed bool
	Clicks    int
	Keys      []string
	// OnClick runs after each click, e.g. to move focus elsewhere.
	OnClick func()
}

func (e *FakeElement) Click() error {
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *FakeElement) SendKeys(keys string) error {
	e.Keys = append(e.Keys, keys)
	return nil
}

func (e *FakeElement) IsDisplayed() (bool, error) {
	return e.Displayed, nil
}

// Dialer returns a session.Dialer that hands out d and records the config.
func Dialer(d *FakeDriver, got *session.BrowserConfig) session.Dialer {
	return session.DialerFunc(func(_ context.Context, cfg session.BrowserConfig) (session.Driver, error) {
		if got != nil {
			*got = cfg
		}
		return d, nil
	})
}
