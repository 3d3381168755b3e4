package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tebeka/selenium"
)

const windowSizeScript = `return [window.outerWidth, window.outerHeight];`

// WebDriverDialer opens sessions on a remote WebDriver endpoint (Selenium
// server, chromedriver, geckodriver or a cloud grid).
type WebDriverDialer struct {
	Log log.Logger
}

var _ Dialer = WebDriverDialer{}

func (d WebDriverDialer) Dial(ctx context.Context, cfg BrowserConfig) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.RemoteURL == "" {
		return nil, errors.New("remote url is required")
	}
	logger := d.Log
	if logger == nil {
		logger = log.New()
	}

	caps := selenium.Capabilities{}
	for k, v := range cfg.Capabilities {
		caps[k] = v
	}
	wd, err := selenium.NewRemote(caps, cfg.RemoteURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.RemoteURL, err)
	}

	negotiated, err := wd.Capabilities()
	if err != nil {
		_ = wd.Quit()
		return nil, fmt.Errorf("reading negotiated capabilities: %w", err)
	}
	logger.Debug("WebDriver session created", "session_id", wd.SessionID(), "capabilities", len(negotiated))
	return &webDriver{wd: wd, caps: Capabilities(negotiated)}, nil
}

// webDriver adapts selenium.WebDriver to Driver. The selenium client has no
// context support, so ctx is only checked before a command is issued.
type webDriver struct {
	wd   selenium.WebDriver
	caps Capabilities
}

func (w *webDriver) SessionID() string {
	return w.wd.SessionID()
}

func (w *webDriver) Capabilities() Capabilities {
	return w.caps
}

func (w *webDriver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	return w.wd.ExecuteScript(script, args)
}

func (w *webDriver) WindowSize(ctx context.Context) (Viewport, error) {
	v, err := w.ExecuteScript(ctx, windowSizeScript)
	if err != nil {
		return Viewport{}, err
	}
	return viewportFromScript(v)
}

func (w *webDriver) SetWindowSize(ctx context.Context, vp Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	handle, err := w.wd.CurrentWindowHandle()
	if err != nil {
		return fmt.Errorf("reading current window handle: %w", err)
	}
	return w.wd.ResizeWindow(handle, vp.Width, vp.Height)
}

func (w *webDriver) FindElement(ctx context.Context, sel Selector) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := w.wd.FindElement(string(sel.By), sel.Value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchElement, sel)
		}
		return nil, err
	}
	return el, nil
}

func (w *webDriver) ActiveElement(ctx context.Context) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := w.wd.ActiveElement()
	if err != nil {
		return nil, fmt.Errorf("reading active element: %w", err)
	}
	return el, nil
}

func (w *webDriver) Quit() error {
	return w.wd.Quit()
}

func isNoSuchElement(err error) bool {
	var selErr *selenium.Error
	if errors.As(err, &selErr) && selErr.Err == "no such element" {
		return true
	}
	return strings.Contains(err.Error(), "no such element")
}

// viewportFromScript decodes the [width, height] pair returned by windowSizeScript.
func viewportFromScript(v any) (Viewport, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return Viewport{}, fmt.Errorf("unexpected window size result %v", v)
	}
	dims := make([]int, 2)
	for i, d := range pair {
		switch n := d.(type) {
		case float64:
			dims[i] = int(n)
		case int:
			dims[i] = n
		default:
			return Viewport{}, fmt.Errorf("unexpected window dimension %v (%T)", d, d)
		}
	}
	return Viewport{Width: dims[0], Height: dims[1]}, nil
}
