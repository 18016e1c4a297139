// Package metrics exports sync-run counters on a private Prometheus registry.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	ResultEmitted = "emitted"
	ResultFailed  = "failed"
)

// Recorder records sync-run metrics.
type Recorder struct {
	registry      *prometheus.Registry
	pairsTotal    *prometheus.CounterVec
	intentsTotal  *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		pairsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxsentinel_pairs_total",
				Help: "Pairs processed, by result",
			},
			[]string{"result"},
		),
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxsentinel_intents_total",
				Help: "Write intents applied to the record store, by kind",
			},
			[]string{"kind"},
		),
		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxsentinel_provider_calls_total",
				Help: "Upstream market-data calls, by query and outcome",
			},
			[]string{"query", "outcome"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fxsentinel_run_duration_seconds",
				Help:    "Wall time of one sync run",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
			},
		),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) RecordPair(result string) {
	r.pairsTotal.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordIntent(kind string) {
	r.intentsTotal.WithLabelValues(kind).Inc()
}

// RecordProviderCall counts one upstream call. It matches the provider's
// Observe hook.
func (r *Recorder) RecordProviderCall(query string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.providerCalls.WithLabelValues(query, outcome).Inc()
}

func (r *Recorder) RecordRun(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
}

// Push sends the registry to a Prometheus Pushgateway under job.
func (r *Recorder) Push(url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).Push(); err != nil {
		return errors.Wrap(err, "push metrics")
	}
	return nil
}
