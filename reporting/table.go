package reporting

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/browser-acceptor/types"
)

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// getResultString returns a short marker for a scenario status
func getResultString(status types.ScenarioStatus) string {
	switch status {
	case types.ScenarioStatusPass:
		return "✓ pass"
	case types.ScenarioStatusSkip:
		return "- skip"
	case types.ScenarioStatusFatal:
		return "✗ fatal"
	default:
		return "✗ fail"
	}
}

// TableReporter renders a suite outcome as an ASCII table
type TableReporter struct {
	title string
}

// NewTableReporter creates a table reporter with the given title
func NewTableReporter(title string) *TableReporter {
	return &TableReporter{title: title}
}

// Format renders the outcome. Scenarios are listed in the order they ran,
// grouped under their feature.
func (r *TableReporter) Format(outcome *types.SuiteOutcome) (string, error) {
	if outcome == nil {
		return "", fmt.Errorf("outcome is required")
	}
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (%s)", r.title, formatDuration(outcome.Duration())))
	t.AppendHeader(table.Row{"FEATURE", "SCENARIO", "DURATION", "STATUS", "RESTORED", "ERROR"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "FEATURE", AutoMerge: true},
		{Name: "SCENARIO", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "ERROR", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, res := range outcome.Results {
		restored := ""
		if res.ViewportRestored {
			restored = "yes"
		}
		t.AppendRow(table.Row{
			res.Feature,
			res.Name,
			formatDuration(res.Duration),
			getResultString(res.Status),
			restored,
			res.ErrorMessage(),
		})
	}

	switch outcome.Status() {
	case types.ScenarioStatusPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.ScenarioStatusSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	stats := outcome.Stats()
	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d scenarios", stats.Total),
		formatDuration(outcome.Duration()),
		strings.ToUpper(string(outcome.Status())),
		"",
		fmt.Sprintf("%d passed, %d failed, %d fatal, %d skipped", stats.Passed, stats.Failed, stats.Fatal, stats.Skipped),
	})

	t.Render()
	return buf.String(), nil
}

// Print writes the rendered table to w
func (r *TableReporter) Print(w io.Writer, outcome *types.SuiteOutcome) error {
	content, err := r.Format(outcome)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}
