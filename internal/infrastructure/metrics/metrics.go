package metrics

import (
	"net/http"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feedrelay"

// Collectors implements port.Metrics on a private Prometheus registry.
type Collectors struct {
	registry *prometheus.Registry

	adapterFetch    *prometheus.CounterVec
	adapterQuotes   *prometheus.GaugeVec
	adapterDuration *prometheus.HistogramVec
	relayWrites     *prometheus.CounterVec
	subscribers     prometheus.Gauge
	cycleSkipped    prometheus.Counter
}

func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		adapterFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_fetch_total",
			Help:      "Source adapter fetches by outcome.",
		}, []string{"source", "result"}),
		adapterQuotes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "adapter_quotes",
			Help:      "Quotes returned by the last fetch of each source.",
		}, []string{"source"}),
		adapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_fetch_seconds",
			Help:      "Source adapter fetch latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8},
		}, []string{"source"}),
		relayWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_writes_total",
			Help:      "On-chain updatePrice attempts by outcome.",
		}, []string{"source", "result"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_subscribers",
			Help:      "Connected push-channel subscribers.",
		}),
		cycleSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_skipped_total",
			Help:      "Relay ticks skipped because the previous cycle was still running.",
		}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.adapterFetch,
		c.adapterQuotes,
		c.adapterDuration,
		c.relayWrites,
		c.subscribers,
		c.cycleSkipped,
	)
	return c
}

func (c *Collectors) AdapterFetched(src domain.Source, err error, quotes int, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.adapterFetch.WithLabelValues(string(src), result).Inc()
	c.adapterQuotes.WithLabelValues(string(src)).Set(float64(quotes))
	c.adapterDuration.WithLabelValues(string(src)).Observe(elapsed.Seconds())
}

func (c *Collectors) RelayWrite(src domain.Source, status domain.RelayStatus) {
	c.relayWrites.WithLabelValues(string(src), string(status)).Inc()
}

func (c *Collectors) Subscribers(n int) { c.subscribers.Set(float64(n)) }

func (c *Collectors) CycleSkipped() { c.cycleSkipped.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ port.Metrics = (*Collectors)(nil)
