package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionExists = errors.New("browser session already started")
	ErrNoSession     = errors.New("browser session not started")
	ErrNoSuchElement = errors.New("no such element")
	ErrInvalidPolicy = errors.New("invalid keep policy")
)

// CapabilityError reports required capabilities missing from a new session.
// It is fatal to the whole suite.
type CapabilityError struct {
	SessionID string
	Missing   []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("session %s lacks required capabilities: %s; you may have to use a browser version for which native events are supported",
		e.SessionID, strings.Join(e.Missing, ", "))
}

// IsCapabilityError checks if the error is or wraps a CapabilityError
func IsCapabilityError(err error) bool {
	var capErr *CapabilityError
	return err != nil && errors.As(err, &capErr)
}
