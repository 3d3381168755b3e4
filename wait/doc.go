// Package wait provides the polling primitive every browser step synchronizes on.
//
// The main components are:
//   - Poller: evaluates a Condition against a Session until it reports a truthy
//     value or a deadline elapses
//   - Condition: a predicate over the {evaluate-in-session} capability
//   - Clock: the time source used between polls, replaceable in tests
//
// A Condition error is never retried: it propagates unchanged to the caller.
// Only a falsy result causes another poll.
package wait
