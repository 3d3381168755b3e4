package lifecycle

import (
	"errors"
	"fmt"
)

// FatalApplicationError means the application under test showed its fatal
// error indicator. The scenario fails, but the suite continues on the same
// session.
type FatalApplicationError struct {
	Scenario string
	Selector string
}

func (e *FatalApplicationError) Error() string {
	return fmt.Sprintf("scenario %q tripped a fatal application error (%s present)", e.Scenario, e.Selector)
}

// IsFatalApplicationError checks if the error is or wraps a FatalApplicationError
func IsFatalApplicationError(err error) bool {
	var fatalErr *FatalApplicationError
	return err != nil && errors.As(err, &fatalErr)
}
