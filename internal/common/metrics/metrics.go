// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineStagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stages_completed_total",
			Help: "Total number of pipeline stages completed",
		},
		[]string{"stage"},
	)

	PipelineStagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stages_failed_total",
			Help: "Total number of pipeline stages failed",
		},
		[]string{"stage", "error_code"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of pipeline stage processing in seconds",
		},
		[]string{"stage"},
	)

	PipelineRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_runs_active",
			Help: "Number of verification runs currently in flight",
		},
	)

	PipelineRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_completed_total",
			Help: "Total number of verification runs completed, by risk level",
		},
		[]string{"risk_level"},
	)

	FraudFlagsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_flags_raised_total",
			Help: "Total number of fraud flags raised, by type and severity",
		},
		[]string{"flag_type", "severity"},
	)
)
