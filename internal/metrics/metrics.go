// Package metrics instruments index façade operations with prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks operation counts and latency. A nil Recorder is a no-op so
// instrumentation stays optional.
type Recorder struct {
	ops *prometheus.CounterVec
	dur *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "searchdex",
				Name:      "operations_total",
				Help:      "Total number of index operations",
			},
			[]string{"op", "status"},
		),
		dur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "searchdex",
				Name:      "operation_duration_seconds",
				Help:      "Index operation duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(r.ops, r.dur)
	return r
}

// Observe records one completed operation.
func (r *Recorder) Observe(op string, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ops.WithLabelValues(op, status).Inc()
	r.dur.WithLabelValues(op).Observe(d.Seconds())
}
