// Package exitcodes defines the process exit codes of a browser-acceptor run.
package exitcodes

const (
	Success     = 0 // every scenario passed or was skipped
	TestFailure = 1 // a scenario failed or tripped the fatal error indicator
	RuntimeErr  = 2 // the suite could not run: configuration, dial or capability errors
)

// Describe returns a short label for code, for logs.
func Describe(code int) string {
	switch code {
	case Success:
		return "success"
	case TestFailure:
		return "scenario failure"
	case RuntimeErr:
		return "runtime error"
	default:
		return "unknown"
	}
}
