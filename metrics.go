package knuffimap

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var EventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "knuffimap",
	Subsystem: "adapter",
	Name:      "events_applied",
}, []string{"name", "type"})

var Emissions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "knuffimap",
	Subsystem: "adapter",
	Name:      "emissions",
}, []string{"name"})

var Failures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "knuffimap",
	Subsystem: "adapter",
	Name:      "failures",
}, []string{"name"})

var MapSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "knuffimap",
	Subsystem: "adapter",
	Name:      "map_size",
}, []string{"name"})

// RegisterMetrics registers the adapter metrics, tolerating a registry that
// already holds them.
func RegisterMetrics(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{EventsApplied, Emissions, Failures, MapSize} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
