// Package metrics exports collection activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/collist/pkg/core"
)

// Metrics holds the collectors shared by every observed collection.
type Metrics struct {
	Batches   *prometheus.CounterVec
	Changes   *prometheus.CounterVec
	BatchSize *prometheus.HistogramVec
	Objects   *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collist",
			Subsystem: "collection",
			Name:      "batches_total",
			Help:      "Change batches published.",
		}, []string{"collection"}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collist",
			Subsystem: "collection",
			Name:      "changes_total",
			Help:      "Change records published, by kind.",
		}, []string{"collection", "kind"}),
		BatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "collist",
			Subsystem: "collection",
			Name:      "batch_size",
			Help:      "Change records per batch.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
		}, []string{"collection"}),
		Objects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "collist",
			Subsystem: "collection",
			Name:      "objects",
			Help:      "Objects in the collection after the last batch.",
		}, []string{"collection"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Batches, m.Changes, m.BatchSize, m.Objects} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe subscribes to c and records its batches under name.
// The returned function unsubscribes.
func Observe[T comparable](m *Metrics, name string, c core.Collection[T]) (stop func()) {
	o := &observer[T]{metrics: m, name: name, collection: c}
	m.Objects.WithLabelValues(name).Set(float64(c.Snapshot().Len()))
	c.AddObserver(o)
	return func() { c.RemoveObserver(o) }
}

type observer[T comparable] struct {
	metrics    *Metrics
	name       string
	collection core.Collection[T]
	size       int
}

func (o *observer[T]) WillChangeContent() {
	o.size = 0
}

func (o *observer[T]) DidChange(c core.Change[T]) {
	o.size++
	o.metrics.Changes.WithLabelValues(o.name, c.Kind.String()).Inc()
}

func (o *observer[T]) DidChangeContent() {
	o.metrics.Batches.WithLabelValues(o.name).Inc()
	o.metrics.BatchSize.WithLabelValues(o.name).Observe(float64(o.size))
	o.metrics.Objects.WithLabelValues(o.name).Set(float64(o.collection.Snapshot().Len()))
}
