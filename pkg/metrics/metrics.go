// Package metrics holds the pipeline counters exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeadsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blackkeyx",
		Name:      "leads_submitted_total",
		Help:      "Lead submissions by result (created, duplicate).",
	}, []string{"result"})

	StageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blackkeyx",
		Name:      "lead_stage_transitions_total",
		Help:      "Lead stage changes by target stage.",
	}, []string{"stage"})

	DealExtractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blackkeyx",
		Name:      "deal_extractions_total",
		Help:      "Deal memo extractions by outcome (ok, degraded).",
	}, []string{"outcome"})

	DocumentsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blackkeyx",
		Name:      "documents_processed_total",
		Help:      "Pending documents handled by the extraction sweep.",
	})
)

func LeadSubmitted(created bool) {
	if created {
		LeadsSubmitted.WithLabelValues("created").Inc()
		return
	}
	LeadsSubmitted.WithLabelValues("duplicate").Inc()
}

func Extraction(degraded bool) {
	if degraded {
		DealExtractions.WithLabelValues("degraded").Inc()
		return
	}
	DealExtractions.WithLabelValues("ok").Inc()
}
