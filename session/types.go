package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
)

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// DefaultViewport is the canonical size every suite starts from, so layout
// dependent assertions behave the same in every browser.
var DefaultViewport = Viewport{Width: 1000, Height: 560}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Valid reports whether both dimensions are positive.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// ParseViewport parses sizes written as "WIDTHxHEIGHT", e.g. "1000x560".
func ParseViewport(s string) (Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Viewport{}, fmt.Errorf("invalid viewport %q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Viewport{}, fmt.Errorf("invalid viewport width in %q: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Viewport{}, fmt.Errorf("invalid viewport height in %q: %w", s, err)
	}
	vp := Viewport{Width: width, Height: height}
	if !vp.Valid() {
		return Viewport{}, fmt.Errorf("invalid viewport %q: dimensions must be positive", s)
	}
	return vp, nil
}

// Capabilities are the feature flags negotiated when the session was created.
type Capabilities map[string]any

// NativeEvents is required so steps can simulate realistic keyboard and mouse input.
const NativeEvents = "nativeEvents"

// Has reports whether the named capability was negotiated with a truthy value.
func (c Capabilities) Has(name string) bool {
	v, ok := c[name]
	return ok && wait.Truthy(v)
}

// By names an element location strategy.
type By string

const (
	ByCSSSelector By = "css selector"
	ByClassName   By = "class name"
	ByID          By = "id"
	ByXPath       By = "xpath"
)

// Selector locates an element.
type Selector struct {
	By    By
	Value string
}

func CSS(value string) Selector {
	return Selector{By: ByCSSSelector, Value: value}
}

func ClassName(value string) Selector {
	return Selector{By: ByClassName, Value: value}
}

func (s Selector) String() string {
	return fmt.Sprintf("%s=%s", s.By, s.Value)
}

// Element is a handle to a DOM element in the remote browser.
type Element interface {
	Click() error
	SendKeys(keys string) error
	IsDisplayed() (bool, error)
}

// Driver is the remote browser capability surface. Every call is a blocking
// round trip; an issued command cannot be cancelled.
type Driver interface {
	wait.Session

	SessionID() string
	Capabilities() Capabilities
	WindowSize(ctx context.Context) (Viewport, error)
	SetWindowSize(ctx context.Context, vp Viewport) error
	// FindElement returns ErrNoSuchElement when nothing matches.
	FindElement(ctx context.Context, sel Selector) (Element, error)
	// ActiveElement returns the element that has keyboard focus, or the
	// document body when nothing does.
	ActiveElement(ctx context.Context) (Element, error)
	Quit() error
}

// BrowserConfig describes how to reach and configure a remote browser.
type BrowserConfig struct {
	Name         string
	RemoteURL    string
	Capabilities map[string]any
}

// Dialer opens new driver sessions.
type Dialer interface {
	Dial(ctx context.Context, cfg BrowserConfig) (Driver, error)
}

// DialerFunc adapts a function into a Dialer.
type DialerFunc func(ctx context.Context, cfg BrowserConfig) (Driver, error)

func (f DialerFunc) Dial(ctx context.Context, cfg BrowserConfig) (Driver, error) {
	return f(ctx, cfg)
}
