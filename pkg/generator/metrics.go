package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task labels.
const (
	TaskCoverLetter = "cover_letter"
	TaskPitch       = "pitch"
	TaskTailorCV    = "tailor_cv"
	TaskKeySkills   = "key_skills"
	TaskDraft       = "draft"
)

// Attempt outcome labels.
const (
	OutcomeAccepted       = "accepted"
	OutcomeRejected       = "rejected"
	OutcomeTransportError = "transport_error"
	OutcomeEmptyResponse  = "empty_response"
)

// Result labels.
const (
	ResultGenerated = "generated"
	ResultFallback  = "fallback"
)

//nolint:gochecknoglobals // Prometheus collectors register once per process
var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvtailor_generation_attempts_total",
			Help: "Generation attempts by task and outcome",
		},
		[]string{"task", "outcome"},
	)

	resultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvtailor_generation_results_total",
			Help: "Finished generations by task and whether the model output or a fallback was returned",
		},
		[]string{"task", "result"},
	)
)
