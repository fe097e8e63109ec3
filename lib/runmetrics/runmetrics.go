// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package runmetrics exports pipeline run summaries to a Prometheus
// Pushgateway, so a dashboard can track run health across invocations
// of "runs summarize".
package runmetrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/jeffbrennan/mario/lib/runstats"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "mario"

const namespace = "mario"

// Options configures Push.
type Options struct {
	// URL is the Pushgateway base URL, e.g. "http://localhost:9091".
	URL string

	// Job overrides DefaultJob.
	Job string

	// Client overrides http.DefaultClient.
	Client *http.Client
}

// Collectors holds the gauges pushed for one factory.
type Collectors struct {
	Runs           *prometheus.GaugeVec
	RuntimeTotal   *prometheus.GaugeVec
	RuntimeAverage *prometheus.GaugeVec
	registry       *prometheus.Registry
}

// NewCollectors returns gauges registered on a fresh registry.
func NewCollectors() *Collectors {
	collectors := &Collectors{
		Runs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs",
			Help:      "Pipeline runs in the summary window, by status.",
		}, []string{"pipeline", "status"}),
		RuntimeTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runtime_total_minutes",
			Help:      "Summed run duration in the summary window.",
		}, []string{"pipeline"}),
		RuntimeAverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runtime_average_minutes",
			Help:      "Mean duration of finished runs in the summary window.",
		}, []string{"pipeline"}),
		registry: prometheus.NewRegistry(),
	}
	collectors.registry.MustRegister(collectors.Runs, collectors.RuntimeTotal, collectors.RuntimeAverage)
	return collectors
}

// Gatherer exposes the registry holding the gauges.
func (c *Collectors) Gatherer() prometheus.Gatherer { return c.registry }

// Observe sets the gauges from summaries.
func (c *Collectors) Observe(summaries []runstats.RunSummary) {
	for _, summary := range summaries {
		counts := map[string]int{
			"succeeded":   summary.Succeeded,
			"failed":      summary.Failed,
			"in_progress": summary.InProgress,
			"queued":      summary.Queued,
			"cancelled":   summary.Cancelled,
		}
		for status, count := range counts {
			c.Runs.WithLabelValues(summary.Pipeline, status).Set(float64(count))
		}
		c.RuntimeTotal.WithLabelValues(summary.Pipeline).Set(summary.TotalRuntimeMinutes)
		c.RuntimeAverage.WithLabelValues(summary.Pipeline).Set(summary.AverageRuntimeMinutes)
	}
}

// Push replaces the metrics grouped under factoryName on the gateway
// with gauges built from summaries.
func Push(ctx context.Context, options Options, factoryName string, summaries []runstats.RunSummary) error {
	if options.URL == "" {
		return fmt.Errorf("pushgateway URL is required")
	}
	job := options.Job
	if job == "" {
		job = DefaultJob
	}

	collectors := NewCollectors()
	collectors.Observe(summaries)

	pusher := push.New(options.URL, job).
		Gatherer(collectors.Gatherer()).
		Grouping("factory", factoryName)
	if options.Client != nil {
		pusher = pusher.Client(options.Client)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing run metrics to %s: %w", options.URL, err)
	}
	return nil
}
