// Package metrics exposes supervision counters as Prometheus metrics.
//
// The manager has no HTTP surface, so the registry is exported with
// WriteTextfile in the node_exporter textfile collector format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hsu_init"

// Outcome label values
const (
	OutcomeExited      = "exited"
	OutcomeSignaled    = "signaled"
	OutcomeSpawnFailed = "spawn_failed"
	OutcomeSkipped     = "skipped"
	OutcomeCancelled   = "cancelled"
)

// Recorder receives supervision events. The supervisor accepts a nil
// Recorder and uses Discard.
type Recorder interface {
	ServiceSpawned(name string)
	ServiceFinished(name string, outcome string)
	UnitsLoaded(count int)
}

// Collector is a prometheus.Collector for one manager run.
type Collector struct {
	unitsLoaded     prometheus.Gauge
	runningServices prometheus.Gauge
	spawns          prometheus.Counter
	outcomes        *prometheus.CounterVec
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		unitsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "units_loaded",
				Help:      "The number of units loaded from the unit directory.",
			},
		),
		runningServices: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "running_services",
				Help:      "The number of supervised services currently running.",
			},
		),
		spawns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "spawns_total",
				Help:      "The number of service processes spawned.",
			},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "service_outcomes_total",
				Help:      "The number of services that reached a final state, by outcome.",
			}, []string{"outcome"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.unitsLoaded.Describe(ch)
	c.runningServices.Describe(ch)
	c.spawns.Describe(ch)
	c.outcomes.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.unitsLoaded.Collect(ch)
	c.runningServices.Collect(ch)
	c.spawns.Collect(ch)
	c.outcomes.Collect(ch)
}

func (c *Collector) UnitsLoaded(count int) {
	c.unitsLoaded.Set(float64(count))
}

func (c *Collector) ServiceSpawned(name string) {
	c.spawns.Inc()
	c.runningServices.Inc()
}

func (c *Collector) ServiceFinished(name string, outcome string) {
	if outcome == OutcomeExited || outcome == OutcomeSignaled {
		c.runningServices.Dec()
	}
	c.outcomes.WithLabelValues(outcome).Inc()
}

// WriteTextfile registers the collector on a fresh registry and writes it to
// path atomically.
func (c *Collector) WriteTextfile(path string) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, registry)
}

type discard struct{}

func (discard) ServiceSpawned(string)          {}
func (discard) ServiceFinished(string, string) {}
func (discard) UnitsLoaded(int)                {}

// Discard ignores every event.
var Discard Recorder = discard{}
