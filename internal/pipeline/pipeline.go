// internal/pipeline/pipeline.go

// Package pipeline orchestrates one verification run as a sequential state
// machine. It is the only component that touches persistence; the stages it
// calls are pure functions over explicit inputs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"refcheck/internal/common/config"
	stderrors "refcheck/internal/common/errors"
	"refcheck/internal/common/logger"
	"refcheck/internal/common/metrics"
	"refcheck/internal/common/observability"
	"refcheck/internal/fraud"
	"refcheck/internal/models"
	"refcheck/internal/profile"
	"refcheck/internal/references"
	"refcheck/internal/report"
	"refcheck/internal/store"
)

// Stage names double as the record's progress display and the event stage
// tags.
const (
	StageStarted    = "started"
	StageResume     = "resume_logged"
	StageReferences = "references_discovered"
	StageProfile    = "profile_analyzed"
	StageFraud      = "fraud_evaluated"
	StageReported   = "reported"
)

// Notifier delivers the report-ready notification. Failures are logged and
// never fail the run.
type Notifier interface {
	ReportReady(ctx context.Context, record *models.VerificationRecord) error
}

// Indexer pushes completed reports into the search backend. Failures are
// logged and never fail the run.
type Indexer interface {
	IndexReport(ctx context.Context, record *models.VerificationRecord) error
}

// Pipeline executes verification runs. One Pipeline serves many concurrent
// runs; it holds no per-run state.
type Pipeline struct {
	store        store.Store
	newGenerator func() *references.Generator
	profiles     profile.Summarizer
	engine       *fraud.Engine
	synthesizer  *report.Synthesizer
	notifier     Notifier
	indexer      Indexer
	obs          *observability.Observability
	tracing      *observability.Tracing
	cfg          config.PipelineConfig
	logger       logger.Logger
}

// Options carries the optional collaborators; nil fields are skipped.
type Options struct {
	Notifier Notifier
	Indexer  Indexer
	Obs      *observability.Observability
	Tracing  *observability.Tracing
}

func New(
	st store.Store,
	newGenerator func() *references.Generator,
	profiles profile.Summarizer,
	engine *fraud.Engine,
	synthesizer *report.Synthesizer,
	cfg config.PipelineConfig,
	log logger.Logger,
	opts Options,
) *Pipeline {
	return &Pipeline{
		store:        st,
		newGenerator: newGenerator,
		profiles:     profiles,
		engine:       engine,
		synthesizer:  synthesizer,
		notifier:     opts.Notifier,
		indexer:      opts.Indexer,
		obs:          opts.Obs,
		tracing:      opts.Tracing,
		cfg:          cfg,
		logger:       log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Run drives one record from pending to a terminal state. The record must
// already be inserted. Run never returns a partial success: the record ends
// either completed with a report attached or failed with an error message.
func (p *Pipeline) Run(ctx context.Context, record *models.VerificationRecord) error {
	log := p.logger.WithFields(map[string]interface{}{"recordId": record.ID})

	if !record.Status.CanTransitionTo(models.StatusRunning) {
		return fmt.Errorf("record %s in status %s cannot start", record.ID, record.Status)
	}

	metrics.PipelineRunsActive.Inc()
	defer metrics.PipelineRunsActive.Dec()

	record.Status = models.StatusRunning
	record.Stage = StageStarted
	if err := p.store.UpdateRecord(ctx, record); err != nil {
		return p.fail(ctx, record, StageStarted, err, log)
	}
	p.appendEvent(ctx, record.ID, StageStarted, models.EventRunning, "verification started", nil, log)

	// Run-local stage outputs; only the pipeline threads them between
	// stages.
	var (
		refs      []models.Reference
		responses []models.ReferenceResponse
		summary   *models.ProfileSummary
		result    *models.FraudResult
	)

	stages := []struct {
		name string
		fn   func(ctx context.Context) (models.EventStatus, string, map[string]interface{}, error)
	}{
		{StageResume, func(ctx context.Context) (models.EventStatus, string, map[string]interface{}, error) {
			payload := map[string]interface{}{
				"employers": len(record.Resume.Employment),
				"skills":    len(record.Resume.Skills),
			}
			return models.EventComplete, "resume accepted", payload, nil
		}},
		{StageReferences, func(ctx context.Context) (models.EventStatus, string, map[string]interface{}, error) {
			gen := p.newGenerator()
			refs = gen.Generate(record.Resume.Employment)
			responses = gen.SimulateOutreach(refs)
			payload := map[string]interface{}{
				"generated": len(refs),
				"responded": len(responses),
			}
			return models.EventComplete, "reference outreach simulated", payload, nil
		}},
		{StageProfile, func(ctx context.Context) (models.EventStatus, string, map[string]interface{}, error) {
			summary = p.profiles.Analyze(ctx, record.ProfileHandle)
			switch summary.Status {
			case models.ProfileSkipped:
				return models.EventSkipped, "no profile handle supplied", nil, nil
			case models.ProfileFailed:
				// A failed lookup degrades the run, it does not abort it.
				payload := map[string]interface{}{"error": summary.Error}
				return models.EventComplete, "profile lookup failed, continuing without it", payload, nil
			default:
				payload := map[string]interface{}{
					"originalRepos": summary.OriginalRepos,
					"totalStars":    summary.TotalStars,
					"approxCommits": summary.ApproxCommits,
				}
				return models.EventComplete, "profile analyzed", payload, nil
			}
		}},
		{StageFraud, func(ctx context.Context) (models.EventStatus, string, map[string]interface{}, error) {
			result = p.engine.Evaluate(&fraud.Input{
				Resume:     record.Resume,
				Profile:    summary,
				References: responses,
			})
			payload := map[string]interface{}{
				"risk":      string(result.Risk),
				"flagCount": len(result.Flags),
			}
			return models.EventComplete, "fraud rules evaluated", payload, nil
		}},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, record, stage.name, err, log)
		}
		if err := p.runStage(ctx, record, stage.name, stage.fn, log); err != nil {
			return p.fail(ctx, record, stage.name, err, log)
		}
	}

	return p.finalize(ctx, record, result, refs, responses, summary, log)
}

// runStage brackets one stage with events, metrics and a span, then
// persists the record's stage pointer.
func (p *Pipeline) runStage(
	ctx context.Context,
	record *models.VerificationRecord,
	stage string,
	fn func(ctx context.Context) (models.EventStatus, string, map[string]interface{}, error),
	log logger.Logger,
) error {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout(stage))
	defer cancel()

	if p.tracing != nil {
		spanCtx, span := p.tracing.StartStageSpan(stageCtx, stage, record.ID)
		defer span.End()
		stageCtx = spanCtx
	}

	start := time.Now()
	p.appendEvent(ctx, record.ID, stage, models.EventRunning, stage+" running", nil, log)

	status, message, payload, err := fn(stageCtx)
	duration := time.Since(start)

	if p.obs != nil {
		p.obs.RecordStageDuration(ctx, stage, duration)
	}
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())

	if err != nil {
		metrics.PipelineStagesFailed.WithLabelValues(stage, string(stderrors.CodeOf(err, "STAGE_ERROR"))).Inc()
		if p.obs != nil {
			p.obs.RecordStageProcessed(ctx, stage, "failed")
		}
		return err
	}

	metrics.PipelineStagesCompleted.WithLabelValues(stage).Inc()
	if p.obs != nil {
		p.obs.RecordStageProcessed(ctx, stage, string(status))
	}

	p.appendEvent(ctx, record.ID, stage, status, message, payload, log)

	record.Stage = stage
	if err := p.store.UpdateRecord(ctx, record); err != nil {
		return err
	}

	log.Info("stage completed", map[string]interface{}{
		"stage":      stage,
		"status":     string(status),
		"durationMs": duration.Milliseconds(),
	})
	return nil
}

// finalize synthesizes the report, completes the record, and emits exactly
// one report-ready event, then fires the non-fatal side effects.
func (p *Pipeline) finalize(
	ctx context.Context,
	record *models.VerificationRecord,
	result *models.FraudResult,
	refs []models.Reference,
	responses []models.ReferenceResponse,
	summary *models.ProfileSummary,
	log logger.Logger,
) error {
	if err := ctx.Err(); err != nil {
		return p.fail(ctx, record, StageReported, err, log)
	}

	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout(StageReported))
	defer cancel()

	start := time.Now()
	p.appendEvent(ctx, record.ID, StageReported, models.EventRunning, "synthesizing report", nil, log)

	stats := references.Stats(refs, responses)
	rep := p.synthesizer.Synthesize(stageCtx, record.CandidateName, result, stats, summary)

	now := time.Now().UTC()
	record.Stage = StageReported
	record.Status = models.StatusCompleted
	record.Result = rep
	record.CompletedAt = &now
	if err := p.store.UpdateRecord(ctx, record); err != nil {
		return p.fail(ctx, record, StageReported, err, log)
	}

	// The single authoritative completion signal for observers.
	p.appendEvent(ctx, record.ID, StageReported, models.EventComplete, "report ready", map[string]interface{}{
		"risk":            string(rep.Risk),
		"narrativeSource": rep.NarrativeSource,
	}, log)

	metrics.PipelineStagesCompleted.WithLabelValues(StageReported).Inc()
	metrics.PipelineStageDuration.WithLabelValues(StageReported).Observe(time.Since(start).Seconds())
	metrics.PipelineRunsCompleted.WithLabelValues(string(rep.Risk)).Inc()

	p.sideEffects(ctx, record, log)

	log.Info("verification completed", map[string]interface{}{
		"risk":      string(rep.Risk),
		"flagCount": len(rep.Flags),
	})
	return nil
}

func (p *Pipeline) sideEffects(ctx context.Context, record *models.VerificationRecord, log logger.Logger) {
	if p.indexer != nil {
		if err := p.indexer.IndexReport(ctx, record); err != nil {
			log.Warn("report indexing failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if p.notifier != nil {
		if err := p.notifier.ReportReady(ctx, record); err != nil {
			log.Warn("report notification failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// fail transitions the run to its failed terminal state. The failure event
// and record write are best-effort: if persistence itself is down there is
// nothing left to do but log.
func (p *Pipeline) fail(ctx context.Context, record *models.VerificationRecord, stage string, cause error, log logger.Logger) error {
	code := stderrors.CodeOf(cause, "RUN_FAILED")
	log.Error("verification failed", map[string]interface{}{
		"stage":    stage,
		"error":    cause.Error(),
		"category": stderrors.GetErrorCategory(code),
	})
	metrics.PipelineStagesFailed.WithLabelValues(stage, string(code)).Inc()

	now := time.Now().UTC()
	record.Status = models.StatusFailed
	record.Stage = stage
	record.ErrorMessage = cause.Error()
	if record.CompletedAt == nil {
		record.CompletedAt = &now
	}

	// Use a detached context so a canceled run can still record its fate.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.store.UpdateRecord(persistCtx, record); err != nil {
		log.Error("failed to persist terminal failure", map[string]interface{}{"error": err.Error()})
	}
	p.appendEvent(persistCtx, record.ID, stage, models.EventFailed, cause.Error(), nil, log)

	return cause
}

func (p *Pipeline) appendEvent(ctx context.Context, recordID, stage string, status models.EventStatus, message string, payload map[string]interface{}, log logger.Logger) {
	event := &models.ProgressEvent{
		ID:       uuid.NewString(),
		RecordID: recordID,
		Stage:    stage,
		Status:   status,
		Message:  message,
		Payload:  payload,
	}
	if err := p.store.AppendEvent(ctx, event); err != nil {
		log.Warn("event append failed", map[string]interface{}{
			"stage": stage,
			"error": err.Error(),
		})
	}
}
