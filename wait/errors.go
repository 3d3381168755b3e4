package wait

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimeout         = errors.New("condition timed out")
	ErrInvalidDuration = errors.New("invalid wait duration")
)

// TimeoutError reports that a condition never became truthy before its deadline.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	Polls     int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s (%d polls)", e.Timeout, e.Condition, e.Polls)
}

// Is makes errors.Is(err, ErrTimeout) match any TimeoutError
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsTimeout checks if the error is or wraps a TimeoutError
func IsTimeout(err error) bool {
	return err != nil && errors.Is(err, ErrTimeout)
}

// ConditionMetError is returned by ExpectTimeout when the condition it expected
// never to hold became truthy.
type ConditionMetError struct {
	Condition string
	Value     any
}

func (e *ConditionMetError) Error() string {
	return fmt.Sprintf("expected %s not to hold, but it returned %v", e.Condition, e.Value)
}

// IsConditionMet checks if the error is or wraps a ConditionMetError
func IsConditionMet(err error) bool {
	var metErr *ConditionMetError
	return err != nil && errors.As(err, &metErr)
}
