package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector kinds understood by NewMetric.
const (
	KindCounterVec   = "counter_vec"
	KindHistogramVec = "histogram_vec"
	KindSummaryVec   = "summary_vec"
)

// HistogramBuckets are latency bounds in milliseconds. Click gives up on a
// callback after a few seconds, so resolution is concentrated below that.
var HistogramBuckets = []float64{
	5, 10, 25, 50, 75, 100, 150, 200, 300, 500, 750,
	1000, 1500, 2000, 3000, 5000, 10000, 30000,
}

// Metric describes one collector; MetricCollector is filled in on registration.
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric builds the labelled collector for m.Type, or nil for an unknown kind.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case KindCounterVec:
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem, Name: m.Name, Help: m.Description,
		}, m.Args)
	case KindHistogramVec:
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets,
		}, m.Args)
	case KindSummaryVec:
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Subsystem: subsystem, Name: m.Name, Help: m.Description,
		}, m.Args)
	}
	return nil
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        KindHistogramVec,
	Args:        []string{"type", "subtype"},
}

var MetricsCallbackResult = &Metric{
	ID:          "cbRes",
	Name:        "click_callback_total",
	Description: "Provider callbacks answered, partitioned by action and provider error code.",
	Type:        KindCounterVec,
	Args:        []string{"action", "error"},
}

// BusinessMetrics are registered alongside the standard HTTP metrics.
var BusinessMetrics = []*Metric{
	MetricsBusinessProcess,
	MetricsCallbackResult,
}

// ObserveBusinessProcess records the latency since start. It is a no-op until
// the metric has been registered by NewPrometheus.
func ObserveBusinessProcess(typ, subtype string, start time.Time) {
	if h, ok := MetricsBusinessProcess.MetricCollector.(*prometheus.HistogramVec); ok {
		h.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
	}
}

// IncCallbackResult counts an answered callback.
func IncCallbackResult(action string, code int) {
	if c, ok := MetricsCallbackResult.MetricCollector.(*prometheus.CounterVec); ok {
		c.WithLabelValues(action, strconv.Itoa(code)).Inc()
	}
}

// MillisecondsSince returns elapsed milliseconds as float64.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

const (
	RefererKey = "X-Referer"
)
