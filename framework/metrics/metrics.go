// Package metrics holds the Prometheus instruments exported by the framework.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution counts registry resolutions and how long each one waited.
//
// A nil *Resolution is valid and records nothing.
type Resolution struct {
	Total    *prometheus.CounterVec
	Wait     *prometheus.HistogramVec
	Bindings prometheus.Gauge
}

// NewResolution creates the instruments and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewResolution(reg prometheus.Registerer) *Resolution {
	factory := promauto.With(reg)
	return &Resolution{
		Total: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ioc",
			Name:      "resolutions_total",
			Help:      "Registry resolutions by access mode and outcome.",
		}, []string{"mode", "outcome"}),
		Wait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ioc",
			Name:      "resolution_seconds",
			Help:      "Time spent resolving, including lock acquisition and factory calls.",
			Buckets:   []float64{.00001, .0001, .001, .01, .1, 1, 10},
		}, []string{"mode"}),
		Bindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ioc",
			Name:      "bindings",
			Help:      "Number of service types bound in the registry.",
		}),
	}
}

// Observe records one resolution.
func (m *Resolution) Observe(mode, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Total.WithLabelValues(mode, outcome).Inc()
	m.Wait.WithLabelValues(mode).Observe(took.Seconds())
}

// SetBindings records the current binding count.
func (m *Resolution) SetBindings(n int) {
	if m == nil {
		return
	}
	m.Bindings.Set(float64(n))
}
