// internal/report/synthesizer.go
package report

import (
	"context"
	"time"

	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

// NarrativeGenerator is satisfied by NarrativeClient; tests substitute it.
type NarrativeGenerator interface {
	Generate(ctx context.Context, candidateName string, result *models.FraudResult, stats models.ReferenceStats, profile *models.ProfileSummary) (string, string)
}

// Synthesizer assembles the final report from the fraud evaluation and the
// per-stage byproducts.
type Synthesizer struct {
	narrative NarrativeGenerator
	logger    logger.Logger
}

func NewSynthesizer(narrative NarrativeGenerator, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		narrative: narrative,
		logger:    log.WithFields(map[string]interface{}{"component": "report-synthesizer"}),
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, candidateName string, result *models.FraudResult, stats models.ReferenceStats, profile *models.ProfileSummary) *models.Report {
	narrative, source := s.narrative.Generate(ctx, candidateName, result, stats, profile)

	s.logger.Info("report synthesized", map[string]interface{}{
		"candidate":       candidateName,
		"risk":            result.Risk,
		"flagCount":       len(result.Flags),
		"narrativeSource": source,
	})

	return &models.Report{
		Risk:            result.Risk,
		Summary:         result.Summary,
		Flags:           result.Flags,
		Narrative:       narrative,
		NarrativeSource: source,
		Questions:       BuildQuestions(result.Flags),
		References:      stats,
		ProfileAnalyzed: profile.Analyzed(),
		GeneratedAt:     time.Now().UTC(),
	}
}
