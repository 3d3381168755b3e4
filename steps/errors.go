package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/wait"
)

var (
	titleLabel    = session.CSS(".__start_label._title_label")
	lastErrorItem = session.CSS("#sb-errorlist > :last-child")
)

const (
	errorsPresentScript = `return jQuery("#sb-errorlist").children().length !== 0;`

	revealLastErrorScript = `
var $ = jQuery;
var $collapse = $("#sb-errors-collapse");
if (!$collapse.is(".in"))
    $collapse.collapse('show');
var $last = $("#sb-errorlist").children().last();
if ($last.length === 0)
    return false;
$last[0].scrollIntoView();
return true;`

	markerAtTopScript = `return jQuery(".wed-validation-error").last().position().top === 0;`
)

// IntroduceError clicks the document title, which moves the caret into it,
// and deletes a character. That makes the document invalid.
func (e *Editor) IntroduceError(ctx context.Context) error {
	title, err := e.driver.FindElement(ctx, titleLabel)
	if err != nil {
		return fmt.Errorf("finding title label: %w", err)
	}
	if err := title.Click(); err != nil {
		return fmt.Errorf("clicking title label: %w", err)
	}
	return e.Type(ctx, "DELETE")
}

// Type sends keys to whatever has keyboard focus, normally the caret.
func (e *Editor) Type(ctx context.Context, what string) error {
	keys, err := keysFor(what)
	if err != nil {
		return err
	}
	focused, err := e.driver.ActiveElement(ctx)
	if err != nil {
		return err
	}
	return focused.SendKeys(keys)
}

// ErrorsAppear waits until the error panel lists at least one error.
func (e *Editor) ErrorsAppear(ctx context.Context) error {
	_, err := e.poller.Wait(ctx, wait.Script(errorsPresentScript))
	return err
}

// ClickLastError expands the error panel, scrolls its last entry into view
// and clicks it once it is displayed.
func (e *Editor) ClickLastError(ctx context.Context) error {
	revealed, err := e.driver.ExecuteScript(ctx, revealLastErrorScript)
	if err != nil {
		return fmt.Errorf("revealing last error: %w", err)
	}
	if !wait.Truthy(revealed) {
		return errors.New("the error panel is empty")
	}
	el, err := e.driver.FindElement(ctx, lastErrorItem)
	if err != nil {
		return fmt.Errorf("finding last error: %w", err)
	}
	displayed := wait.Func(func(context.Context, wait.Session) (any, error) {
		return el.IsDisplayed()
	})
	if _, err := e.poller.Wait(ctx, displayed); err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("clicking last error: %w", err)
	}
	return nil
}

// LastMarkerVisible waits until the last validation marker sits at the top of
// its scrolled container.
func (e *Editor) LastMarkerVisible(ctx context.Context) error {
	_, err := e.poller.Wait(ctx, wait.Script(markerAtTopScript))
	return err
}
