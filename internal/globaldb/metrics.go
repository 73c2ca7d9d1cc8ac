package globaldb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	operations     *prometheus.CounterVec
	pricesInserted prometheus.Counter
	pricesDropped  prometheus.Counter
	resets         *prometheus.CounterVec
	catalogSize    prometheus.Gauge
}

// newMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "globaldb_operations_total",
			Help: "The total number of global DB operations by outcome",
		}, []string{"op", "result"}),
		pricesInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "globaldb_prices_inserted_total",
			Help: "The total number of historical prices written",
		}),
		pricesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "globaldb_prices_dropped_total",
			Help: "The total number of historical prices rejected by a constraint",
		}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "globaldb_resets_total",
			Help: "The total number of assets list resets by kind and outcome",
		}, []string{"kind", "result"}),
		catalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "globaldb_assets",
			Help: "The number of assets in the catalog as of the last reset",
		}),
	}
}

func (m *metrics) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *metrics) reset(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "refused"
	}
	m.resets.WithLabelValues(kind, result).Inc()
}
