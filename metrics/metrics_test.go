package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/browser-acceptor/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordErrorDetails(t *testing.T) {
	// Test with nil error
	RecordErrorDetails("test", nil)

	// Test with actual error
	RecordErrorDetails("test", errors.New("sample error"))
}

func TestRecordScenario(t *testing.T) {
	before := testutil.ToFloat64(fatalErrorsTotal.WithLabelValues("firefox"))

	RecordScenario("firefox", types.ScenarioStatusPass, time.Second)
	RecordScenario("firefox", types.ScenarioStatusFatal, time.Second)
	RecordScenario("firefox", types.ScenarioStatus("bogus"), time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(fatalErrorsTotal.WithLabelValues("firefox")))
	assert.Equal(t, float64(0), testutil.ToFloat64(scenariosTotal.WithLabelValues("firefox", "bogus")))
}

func TestRecordWait(t *testing.T) {
	before := testutil.ToFloat64(waitsTotal.WithLabelValues("timeout"))
	RecordWait("timeout", 500*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(waitsTotal.WithLabelValues("timeout")))
}

func TestRecordSuiteAndDisposal(t *testing.T) {
	RecordSuite("chrome", "run1", types.ScenarioStatusPass, time.Minute)
	RecordSessionDisposal("chrome", "kept")
	RecordViewportRestore("chrome")

	assert.Equal(t, float64(60), testutil.ToFloat64(suiteDuration.WithLabelValues("chrome", "run1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sessionDisposalsTotal.WithLabelValues("chrome", "kept")))
}
