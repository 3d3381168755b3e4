package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/browser-acceptor/types"
)

const (
	MetricsNamespace = "browser_acceptor"
)

var (
	Debug                bool = true
	validResults              = []types.ScenarioStatus{types.ScenarioStatusPass, types.ScenarioStatusFail, types.ScenarioStatusFatal, types.ScenarioStatusSkip}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	scenariosTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "scenarios_total",
		Help:      "Count of scenarios by result",
	}, []string{
		"browser",
		"result",
	})

	scenarioDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "scenario_duration_seconds",
		Help:      "Duration of scenarios",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{
		"browser",
	})

	fatalErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "fatal_errors_total",
		Help:      "Count of scenarios that left the application in a fatal state",
	}, []string{
		"browser",
	})

	viewportRestoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "viewport_restores_total",
		Help:      "Count of corrective resizes issued after scenarios",
	}, []string{
		"browser",
	})

	waitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "waits_total",
		Help:      "Count of condition waits by outcome",
	}, []string{
		"outcome",
	})

	waitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "wait_duration_seconds",
		Help:      "Time spent polling conditions",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	sessionDisposalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "session_disposals_total",
		Help:      "Count of sessions closed or kept open at suite end",
	}, []string{
		"browser",
		"action",
	})

	suiteResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_results",
		Help:      "Result of suite runs",
	}, []string{
		"browser",
		"run_id",
		"result",
	})

	suiteDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration",
		Help:      "Duration of suite runs",
	}, []string{
		"browser",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordScenario(browser string, result types.ScenarioStatus, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordScenario - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "scenarios_total",
			"browser", browser,
			"result", result)
	}
	scenariosTotal.WithLabelValues(browser, string(result)).Inc()
	scenarioDuration.WithLabelValues(browser).Observe(duration.Seconds())
	if result == types.ScenarioStatusFatal {
		fatalErrorsTotal.WithLabelValues(browser).Inc()
	}
}

func RecordViewportRestore(browser string) {
	viewportRestoresTotal.WithLabelValues(browser).Inc()
}

// RecordWait matches wait.Observer so it can be handed to a Poller directly.
func RecordWait(outcome string, elapsed time.Duration) {
	waitsTotal.WithLabelValues(outcome).Inc()
	waitDuration.Observe(elapsed.Seconds())
}

func RecordSessionDisposal(browser string, action string) {
	sessionDisposalsTotal.WithLabelValues(browser, action).Inc()
}

func RecordSuite(browser string, runID string, result types.ScenarioStatus, duration time.Duration) {
	suiteResults.WithLabelValues(browser, runID, string(result)).Set(1)
	suiteDuration.WithLabelValues(browser, runID).Set(duration.Seconds())
}

func isValidResult(result types.ScenarioStatus) bool {
	return slices.Contains(validResults, result)
}
