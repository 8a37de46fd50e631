// Package metrics exposes the Prometheus counters and gauges spec.md §8's
// Scenario D/E observability requirements imply: session lifecycle counts,
// admission rejections, and per-state population. Grounded on nabbar-golib's
// use of github.com/prometheus/client_golang for exactly this kind of
// ambient service instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the manager and server layers publish to.
// New always returns a usable value registered against the supplied
// registerer (promauto-equivalent, done by hand to avoid pulling in the
// promauto subpackage for nine calls). The manager and server accept a nil
// *Metrics and then publish nothing.
type Metrics struct {
	SessionsAccepted   prometheus.Counter
	SessionsRejected   *prometheus.CounterVec
	SessionsClosed     *prometheus.CounterVec
	SessionsActive     prometheus.Gauge
	SessionsByState    *prometheus.GaugeVec
	BytesIn            prometheus.Counter
	BytesOut           prometheus.Counter
	PacketsIn          prometheus.Counter
	PacketsOut         prometheus.Counter
}

// New registers every collector against reg and returns the bundle. reg may
// be prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "sessions", Name: "accepted_total",
			Help: "Connections accepted by the server core.",
		}),
		SessionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "sessions", Name: "rejected_total",
			Help: "Connections rejected at admission, by reason.",
		}, []string{"reason"}),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "sessions", Name: "closed_total",
			Help: "Sessions torn down, by disconnect reason.",
		}, []string{"reason"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcserver", Subsystem: "sessions", Name: "active",
			Help: "Sessions currently registered with the manager.",
		}),
		SessionsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mcserver", Subsystem: "sessions", Name: "by_state",
			Help: "Sessions currently in each protocol state.",
		}, []string{"state"}),
		BytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "traffic", Name: "bytes_in_total",
			Help: "Bytes received across all sessions.",
		}),
		BytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "traffic", Name: "bytes_out_total",
			Help: "Bytes sent across all sessions.",
		}),
		PacketsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "traffic", Name: "packets_in_total",
			Help: "Packets dispatched across all sessions.",
		}),
		PacketsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver", Subsystem: "traffic", Name: "packets_out_total",
			Help: "Packets sent across all sessions.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.SessionsAccepted, m.SessionsRejected, m.SessionsClosed,
		m.SessionsActive, m.SessionsByState, m.BytesIn, m.BytesOut,
		m.PacketsIn, m.PacketsOut,
	} {
		reg.MustRegister(c)
	}
	return m
}
