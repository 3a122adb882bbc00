// Package metrics provides Prometheus instrumentation for the graph engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Mutations        *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec
	CollectionSize   prometheus.Histogram
	NoopRelations    prometheus.Counter
}

// New registers the graph metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "famtree_person_mutations_total",
			Help: "Graph mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		MutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "famtree_person_mutation_duration_seconds",
			Help:    "Duration of load-mutate-save cycles",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		CollectionSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "famtree_person_collection_size",
			Help:    "Persons per collection at save time",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		NoopRelations: f.NewCounter(prometheus.CounterOpts{
			Name: "famtree_person_noop_relations_total",
			Help: "AddRelation calls that found the edge already present",
		}),
	}
}

// ObserveMutation records one finished operation. Call with the start time.
func (m *Metrics) ObserveMutation(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
	m.MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveCollectionSize(n int) {
	m.CollectionSize.Observe(float64(n))
}

func (m *Metrics) IncNoopRelation() {
	m.NoopRelations.Inc()
}
