// Package metrics instruments undo and simulation outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Undos       *prometheus.CounterVec
	Simulations *prometheus.CounterVec
	Recorded    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Undos: f.NewCounterVec(prometheus.CounterOpts{
			Name: "famtree_history_undo_total",
			Help: "Undo requests by original action and outcome",
		}, []string{"action", "outcome"}),
		Simulations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "famtree_history_simulations_total",
			Help: "Undo simulations by original action",
		}, []string{"action"}),
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "famtree_history_entries_total",
			Help: "Change-log entries appended by action",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncUndo(action, outcome string) {
	m.Undos.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncSimulation(action string) {
	m.Simulations.WithLabelValues(action).Inc()
}

func (m *Metrics) IncRecorded(action string) {
	m.Recorded.WithLabelValues(action).Inc()
}
