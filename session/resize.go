package session

import (
	"context"
	"fmt"

	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
)

// Resize issues a single resize and then polls until the window reports the
// requested size, since some drivers apply it asynchronously.
func Resize(ctx context.Context, driver Driver, poller *wait.Poller, vp Viewport) error {
	if err := driver.SetWindowSize(ctx, vp); err != nil {
		return fmt.Errorf("resizing window to %s: %w", vp, err)
	}
	_, err := poller.Wait(ctx, wait.Func(func(ctx context.Context, _ wait.Session) (any, error) {
		got, err := driver.WindowSize(ctx)
		if err != nil {
			return nil, err
		}
		return got == vp, nil
	}))
	if err != nil {
		return fmt.Errorf("window did not reach %s: %w", vp, err)
	}
	return nil
}
