// Package metrics counts the non-fatal conditions met while building event
// contexts. The counters live on a private registry and are exported to a
// Prometheus text file at the end of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Modes reported by the contexts counter.
const (
	ModeSimple         = "simple"
	ModeTransformation = "transformation"
)

// Registry holds the counters. A nil *Registry is valid and records nothing.
type Registry struct {
	reg               *prometheus.Registry
	Contexts          *prometheus.CounterVec
	MissingReferences *prometheus.CounterVec
	MissingTimestamps prometheus.Counter
	Inconsistencies   *prometheus.CounterVec
	UnmappedRows      prometheus.Counter
}

// NewRegistry creates the counters on a fresh private registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	contexts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "epcgen_contexts_total",
		Help: "Event contexts built, by mode.",
	}, []string{"mode"})
	missingRefs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "epcgen_missing_references_total",
		Help: "Codes not found in a reference table.",
	}, []string{"table"})
	missingTS := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "epcgen_missing_timestamps_total",
		Help: "Rows or contexts without a resolvable event time.",
	})
	inconsistent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "epcgen_inconsistent_values_total",
		Help: "Conflicting values for a field expected constant within a group.",
	}, []string{"field"})
	unmapped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "epcgen_unmapped_rows_total",
		Help: "From rows that matched no purchase order interval.",
	})

	r.MustRegister(contexts, missingRefs, missingTS, inconsistent, unmapped)
	return &Registry{
		reg:               r,
		Contexts:          contexts,
		MissingReferences: missingRefs,
		MissingTimestamps: missingTS,
		Inconsistencies:   inconsistent,
		UnmappedRows:      unmapped,
	}
}

// ContextBuilt counts one finished context of the given mode.
func (r *Registry) ContextBuilt(mode string) {
	if r == nil {
		return
	}
	r.Contexts.WithLabelValues(mode).Inc()
}

// MissingReference counts a code that table does not hold.
func (r *Registry) MissingReference(table string) {
	if r == nil {
		return
	}
	r.MissingReferences.WithLabelValues(table).Inc()
}

// MissingTimestamp counts a row or context left without an event time.
func (r *Registry) MissingTimestamp() {
	if r == nil {
		return
	}
	r.MissingTimestamps.Inc()
}

// Inconsistent counts a discarded value of field that disagreed with the
// group's first value.
func (r *Registry) Inconsistent(field string) {
	if r == nil {
		return
	}
	r.Inconsistencies.WithLabelValues(field).Inc()
}

// Unmapped counts a "from" row that fell in no purchase order interval.
func (r *Registry) Unmapped() {
	if r == nil {
		return
	}
	r.UnmappedRows.Inc()
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes all counters to path in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}
