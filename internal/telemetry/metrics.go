package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

const namespace = "chargebox"

// Metrics counts requests and times responses per direction and action.
type Metrics struct {
	reg      prometheus.Registerer
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the exchange collectors with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reg: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ocpp_requests_total",
				Help:      "Requests sent to or received from charge boxes, by direction and action.",
			},
			[]string{"direction", "action"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ocpp_response_seconds",
				Help:      "Time from request to response, by direction, action and outcome.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"direction", "action", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveRequest implements Sink.
func (m *Metrics) ObserveRequest(_ context.Context, ev ocpp.RequestEvent) error {
	m.requests.WithLabelValues(string(ev.Direction), actionOf(ev.Request)).Inc()
	return nil
}

// ObserveResponse implements Sink.
func (m *Metrics) ObserveResponse(_ context.Context, ev ocpp.ResponseEvent) error {
	m.latency.WithLabelValues(string(ev.Direction), actionOf(ev.Request), ev.Outcome()).
		Observe(ev.Elapsed.Seconds())
	return nil
}

// TrackGauge registers a gauge named chargebox_{name} whose value is read
// from fn at scrape time.
func (m *Metrics) TrackGauge(name, help string, fn func() float64) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, fn)
	if err := m.reg.Register(g); err != nil {
		return fmt.Errorf("registering gauge %s: %w", name, err)
	}
	return nil
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func actionOf(req *ocpp.Request) string {
	if req == nil {
		return ""
	}
	return string(req.Action)
}
