package session

import "fmt"

// KeepPolicy decides whether the session survives the end of the suite so a
// developer can inspect the browser.
type KeepPolicy string

const (
	KeepNever     KeepPolicy = ""
	KeepOnFailure KeepPolicy = "on-failure"
	KeepAlways    KeepPolicy = "always"
)

// ParseKeepPolicy accepts the values of the no-quit environment variable.
func ParseKeepPolicy(s string) (KeepPolicy, error) {
	switch p := KeepPolicy(s); p {
	case KeepNever, KeepOnFailure, KeepAlways:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q, must be one of %q, %q or unset", ErrInvalidPolicy, s, KeepOnFailure, KeepAlways)
	}
}

// Keep reports whether the session should stay open given the suite outcome.
func (p KeepPolicy) Keep(failed bool) bool {
	return (failed && p == KeepOnFailure) || p == KeepAlways
}

func (p KeepPolicy) String() string {
	if p == KeepNever {
		return "never"
	}
	return string(p)
}

// Disposal is what Stop did with the session.
type Disposal string

const (
	DisposalClosed Disposal = "closed"
	DisposalKept   Disposal = "kept"
)
