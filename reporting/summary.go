package reporting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum-optimism/infra/browser-acceptor/types"
)

const SummaryFilename = "summary.log"

// FormatSummary renders the outcome as plain text
func FormatSummary(outcome *types.SuiteOutcome, browser string) string {
	var buf bytes.Buffer
	stats := outcome.Stats()

	buf.WriteString("Scenario Results Summary\n")
	buf.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&buf, "Run ID: %s\n", outcome.RunID)
	if browser != "" {
		fmt.Fprintf(&buf, "Browser: %s\n", browser)
	}
	fmt.Fprintf(&buf, "Duration: %s\n", formatDuration(outcome.Duration()))
	fmt.Fprintf(&buf, "Total Scenarios: %d\n", stats.Total)
	fmt.Fprintf(&buf, "Passed: %d\n", stats.Passed)
	fmt.Fprintf(&buf, "Failed: %d\n", stats.Failed)
	fmt.Fprintf(&buf, "Fatal: %d\n", stats.Fatal)
	fmt.Fprintf(&buf, "Skipped: %d\n", stats.Skipped)
	fmt.Fprintf(&buf, "Status: %s\n\n", strings.ToUpper(string(outcome.Status())))

	buf.WriteString("Scenarios:\n")
	buf.WriteString(strings.Repeat("-", 30) + "\n")
	for _, r := range outcome.Results {
		fmt.Fprintf(&buf, "[%s] %s (%s)\n", strings.ToUpper(string(r.Status)), r.DisplayName(), formatDuration(r.Duration))
	}

	var failed []*types.ScenarioResult
	for _, r := range outcome.Results {
		if r.Status.Failed() {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		buf.WriteString("\nFailed Scenarios:\n")
		buf.WriteString(strings.Repeat("-", 20) + "\n")
		for _, r := range failed {
			fmt.Fprintf(&buf, "- %s", r.DisplayName())
			if msg := r.ErrorMessage(); msg != "" {
				fmt.Fprintf(&buf, " (Error: %s)", msg)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// WriteSummary writes summary.log into dir and returns its path
func WriteSummary(dir string, outcome *types.SuiteOutcome, browser string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, SummaryFilename)
	if err := os.WriteFile(path, []byte(FormatSummary(outcome, browser)), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}
