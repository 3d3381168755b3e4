package steps

import (
	"context"
	"fmt"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
)

// ResizeWindow changes the viewport. The scenario hooks put it back afterwards.
func (e *Editor) ResizeWindow(ctx context.Context, width, height int) error {
	vp := session.Viewport{Width: width, Height: height}
	if !vp.Valid() {
		return fmt.Errorf("invalid window size %s", vp)
	}
	return session.Resize(ctx, e.driver, e.poller, vp)
}

// WindowSizeIs asserts the current viewport.
func (e *Editor) WindowSizeIs(ctx context.Context, width, height int) error {
	got, err := e.driver.WindowSize(ctx)
	if err != nil {
		return err
	}
	if want := (session.Viewport{Width: width, Height: height}); got != want {
		return fmt.Errorf("expected window size %s, got %s", want, got)
	}
	return nil
}
