// Package metrics exposes acquisition statistics in the Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mklimuk/barometer/mpl115a2"
)

const namespace = "mpl115a2"

// Collector tracks acquisitions on its own registry so that several
// instances can coexist in tests.
type Collector struct {
	registry     *prometheus.Registry
	acquisitions *prometheus.CounterVec
	retries      *prometheus.CounterVec
	faults       *prometheus.CounterVec
	pressure     prometheus.Gauge
	lastSuccess  prometheus.Gauge
	now          func() time.Time
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquisitions_total",
			Help:      "Acquisition cycles by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried register operations.",
		}, []string{"op"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Register validation faults by kind.",
		}, []string{"kind"}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pressure_hpa",
			Help:      "Last compensated pressure in hPa.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful acquisition.",
		}),
		now: time.Now,
	}
	c.registry.MustRegister(c.acquisitions, c.retries, c.faults, c.pressure, c.lastSuccess)
	return c
}

// ObserveRetry has the signature of retry.Policy.OnRetry.
func (c *Collector) ObserveRetry(op string, _ int, err error) {
	c.retries.WithLabelValues(op).Inc()
	c.observeFault(err)
}

func (c *Collector) ObserveReading(r mpl115a2.Reading) {
	c.acquisitions.WithLabelValues("success").Inc()
	c.pressure.Set(r.HectoPascal())
	c.lastSuccess.Set(float64(c.now().Unix()))
}

func (c *Collector) ObserveFailure(err error) {
	c.acquisitions.WithLabelValues("failure").Inc()
	c.observeFault(err)
}

func (c *Collector) observeFault(err error) {
	var fault *mpl115a2.FaultError
	if errors.As(err, &fault) {
		c.faults.WithLabelValues(fault.Kind.String()).Inc()
	}
}

// WriteTextfile stores the current values for the node exporter textfile
// collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
