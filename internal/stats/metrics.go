// Package stats espone le metriche Prometheus dell'agente.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal conta le richieste di generazione per provider,
	// task type ed esito
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "requests_total",
		Help:      "Total generation attempts per provider, task type and outcome.",
	}, []string{"provider", "task_type", "outcome"})

	// RequestDuration osserva la latenza delle chiamate ai provider
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "request_duration_seconds",
		Help:      "Latency of provider calls.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider", "task_type"})

	// FallbackDepth osserva quanti provider sono stati tentati prima di
	// produrre una risposta (1 = il primo ha risposto)
	FallbackDepth = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "fallback_depth",
		Help:      "Providers attempted before a response was produced.",
		Buckets:   []float64{1, 2, 3, 4, 5},
	}, []string{"task_type"})

	// ExhaustedTotal conta le richieste per cui nessun provider ha
	// prodotto una risposta
	ExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "exhausted_total",
		Help:      "Requests for which every provider failed or was unavailable.",
	}, []string{"task_type"})

	// TokensUsed conta i token consumati per provider
	TokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "tokens_used_total",
		Help:      "Tokens consumed per provider.",
	}, []string{"provider"})

	// ProvidersAvailable espone il numero di provider disponibili
	ProvidersAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "providers_available",
		Help:      "Providers that passed initialization.",
	})

	// PanicsTotal conta i panic contenuti durante le chiamate ai provider
	PanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "pipeline",
		Name:      "provider_panics_total",
		Help:      "Panics recovered from provider calls.",
	}, []string{"provider"})

	// TasksProcessed conta i task accodati processati per esito
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "tasks",
		Name:      "processed_total",
		Help:      "Queued tasks processed per outcome.",
	}, []string{"outcome"})

	// CommandsAssessed conta le valutazioni di sicurezza per verdetto
	CommandsAssessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agent",
		Subsystem: "security",
		Name:      "commands_assessed_total",
		Help:      "Command risk assessments per verdict.",
	}, []string{"verdict"})
)
