package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector records per-run validation metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// CasesTotal counts graded test cases by group and verdict
	CasesTotal *prometheus.CounterVec

	// ProcessDuration tracks wall time spent in each binary
	ProcessDuration *prometheus.HistogramVec

	// GroupAccuracy is the exact/total ratio of each reported group
	GroupAccuracy *prometheus.GaugeVec
}

// NewCollector registers the mdstval metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		CasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdstval_cases_total",
				Help: "Total number of graded test cases",
			},
			[]string{"group", "verdict"},
		),
		ProcessDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mdstval_process_duration_seconds",
				Help:    "Wall time of one binary invocation",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"binary"},
		),
		GroupAccuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mdstval_group_accuracy",
				Help: "Share of exact verdicts in a test group",
			},
			[]string{"group"},
		),
	}
	registry.MustRegister(c.CasesTotal, c.ProcessDuration, c.GroupAccuracy)
	return c
}

// ObserveCase counts one verdict.
func (c *Collector) ObserveCase(group, verdict string) {
	if c == nil {
		return
	}
	c.CasesTotal.WithLabelValues(group, verdict).Inc()
}

// ObserveProcess records one binary invocation.
func (c *Collector) ObserveProcess(binary string, d time.Duration) {
	if c == nil {
		return
	}
	c.ProcessDuration.WithLabelValues(binary).Observe(d.Seconds())
}

// SetAccuracy publishes a group's final ratio.
func (c *Collector) SetAccuracy(group string, ratio float64) {
	if c == nil {
		return
	}
	c.GroupAccuracy.WithLabelValues(group).Set(ratio)
}

// Encode writes every metric family in the Prometheus text format.
func (c *Collector) Encode(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
