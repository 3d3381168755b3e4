package wait

import (
	"context"
	"fmt"
	"reflect"
)

// Session is the capability conditions are evaluated against: running a
// script in the page under test.
type Session interface {
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
}

// Condition is a predicate polled by a Poller. A truthy value ends the wait;
// a non-nil error aborts it.
type Condition interface {
	Check(ctx context.Context, s Session) (any, error)
}

// Func adapts a plain function into a Condition.
type Func func(ctx context.Context, s Session) (any, error)

func (f Func) Check(ctx context.Context, s Session) (any, error) {
	return f(ctx, s)
}

func (f Func) String() string {
	return "function condition"
}

type scriptCondition struct {
	script string
	args   []any
}

// Script is satisfied when the script returns a truthy value.
func Script(script string, args ...any) Condition {
	return &scriptCondition{script: script, args: args}
}

func (c *scriptCondition) Check(ctx context.Context, s Session) (any, error) {
	return s.ExecuteScript(ctx, c.script, c.args...)
}

func (c *scriptCondition) String() string {
	return fmt.Sprintf("script %q", c.script)
}

const presentScript = `return document.querySelector(arguments[0]) !== null;`

type presentCondition struct {
	selector string
}

// Present is satisfied when at least one element matches the CSS selector.
func Present(selector string) Condition {
	return &presentCondition{selector: selector}
}

func (c *presentCondition) Check(ctx context.Context, s Session) (any, error) {
	return s.ExecuteScript(ctx, presentScript, c.selector)
}

func (c *presentCondition) String() string {
	return fmt.Sprintf("element %q to be present", c.selector)
}

type notCondition struct {
	inner Condition
}

// Not is satisfied when the wrapped condition is falsy. Errors still propagate.
func Not(c Condition) Condition {
	return &notCondition{inner: c}
}

func (c *notCondition) Check(ctx context.Context, s Session) (any, error) {
	v, err := c.inner.Check(ctx, s)
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

func (c *notCondition) String() string {
	return "not " + Describe(c.inner)
}

// Describe returns a human readable name for a condition.
func Describe(c Condition) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

// Truthy reports whether a script result counts as a satisfied condition.
// nil, false, zero numbers, empty strings and empty collections are falsy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32:
		return rv.Float() != 0
	}
	return true
}
