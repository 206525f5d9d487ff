// Package metrics holds the Prometheus counters of a migration run.
// A run is a batch job, so the counters are pushed to a Pushgateway once at the end.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "kepka"

// Result labels
const (
	ResultCreated  = "created"
	ResultUpdated  = "updated"
	ResultFailed   = "failed"
	ResultUploaded = "uploaded"
	ResultLinked   = "linked"
)

// Recorder owns a private registry so runs and tests do not share state
type Recorder struct {
	registry *prometheus.Registry

	items   *prometheus.CounterVec
	assets  *prometheus.CounterVec
	links   *prometheus.CounterVec
	fetched *prometheus.CounterVec
	lastRun prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "migration",
				Name:      "items_total",
				Help:      "Destination records processed by collection and result",
			},
			[]string{"collection", "result"},
		),
		assets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "migration",
				Name:      "assets_total",
				Help:      "Distinct source assets processed by result",
			},
			[]string{"result"},
		),
		links: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "migration",
				Name:      "link_reconciliations_total",
				Help:      "Junction reconciliations by result",
			},
			[]string{"collection", "result"},
		),
		fetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "migration",
				Name:      "source_records_total",
				Help:      "Source records fetched by collection",
			},
			[]string{"collection"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "migration",
				Name:      "last_completion_timestamp_seconds",
				Help:      "Unix time of the last completed run",
			},
		),
	}

	r.registry.MustRegister(r.items, r.assets, r.links, r.fetched, r.lastRun)
	return r
}

func (r *Recorder) RecordsFetched(collection string, n int) {
	r.fetched.WithLabelValues(collection).Add(float64(n))
}

func (r *Recorder) ItemProcessed(collection, result string) {
	r.items.WithLabelValues(collection, result).Inc()
}

func (r *Recorder) AssetProcessed(result string) {
	r.assets.WithLabelValues(result).Inc()
}

func (r *Recorder) LinksReconciled(collection, result string) {
	r.links.WithLabelValues(collection, result).Inc()
}

// Completed stamps the completion gauge
func (r *Recorder) Completed() {
	r.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends every collector to the Pushgateway at url under job
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
