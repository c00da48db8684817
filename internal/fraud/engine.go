// internal/fraud/engine.go
package fraud

import (
	"fmt"
	"sort"
	"strings"

	"refcheck/internal/common/config"
	stderrors "refcheck/internal/common/errors"
	"refcheck/internal/common/logger"
	"refcheck/internal/common/metrics"
	"refcheck/internal/models"
)

const defaultGapThresholdMonths = 6
const strictGapThresholdMonths = 3

// Engine runs its rules in registration order and aggregates their flags.
// Evaluation is deterministic: identical inputs yield identical results.
type Engine struct {
	rules  []Rule
	logger logger.Logger
}

// NewEngine builds the production rule set in its fixed order.
func NewEngine(cfg *config.FraudConfig, log logger.Logger) *Engine {
	threshold := defaultGapThresholdMonths
	if cfg != nil && cfg.StrictMode {
		threshold = strictGapThresholdMonths
	}
	return NewEngineWithRules(log,
		&SkillMismatchRule{},
		&EmploymentGapRule{ThresholdMonths: threshold},
		&ReferenceSentimentRule{},
	)
}

// NewEngineWithRules builds an engine over an explicit rule list; tests use
// it to inject faulty rules.
func NewEngineWithRules(log logger.Logger, rules ...Rule) *Engine {
	return &Engine{
		rules:  rules,
		logger: log.WithFields(map[string]interface{}{"component": "fraud-engine"}),
	}
}

// Evaluate runs every rule and aggregates. A panicking rule is skipped and
// logged; the remaining rules still run.
func (e *Engine) Evaluate(input *Input) *models.FraudResult {
	var flags []models.FraudFlag
	for _, rule := range e.rules {
		flags = append(flags, e.runRule(rule, input)...)
	}

	counts := make(map[models.Severity]int)
	for _, flag := range flags {
		counts[flag.Severity]++
		metrics.FraudFlagsRaised.WithLabelValues(flag.Type, string(flag.Severity)).Inc()
	}

	risk := classify(counts)

	return &models.FraudResult{
		Risk:           risk,
		Flags:          flags,
		SeverityCounts: counts,
		Summary:        summarize(risk, flags),
	}
}

func (e *Engine) runRule(rule Rule, input *Input) (flags []models.FraudFlag) {
	defer func() {
		if r := recover(); r != nil {
			fault := stderrors.NewRuleEvaluationFaultError(rule.Name(), r)
			e.logger.Error("rule evaluation fault, skipping rule", map[string]interface{}{
				"rule":  rule.Name(),
				"error": fault.Details,
			})
			flags = nil
		}
	}()
	return rule.Evaluate(input)
}

// classify applies the aggregation ladder in priority order.
func classify(counts map[models.Severity]int) models.RiskLevel {
	switch {
	case counts[models.SeverityCritical] >= 1:
		return models.RiskRed
	case counts[models.SeverityHigh] >= 2:
		return models.RiskRed
	case counts[models.SeverityHigh] >= 1 || counts[models.SeverityMedium] >= 3:
		return models.RiskYellow
	default:
		return models.RiskGreen
	}
}

const greenSummary = "No significant discrepancies found; candidate profile appears consistent."

// summarize builds the one-line headline: the fixed green message, or the
// level name followed by the first two high/critical flag messages, worst
// severity first.
func summarize(risk models.RiskLevel, flags []models.FraudFlag) string {
	if risk == models.RiskGreen {
		return greenSummary
	}

	headline := make([]models.FraudFlag, 0, len(flags))
	for _, flag := range flags {
		if flag.Severity.Rank() >= models.SeverityHigh.Rank() {
			headline = append(headline, flag)
		}
	}
	// Worst first; production order breaks ties.
	sort.SliceStable(headline, func(i, j int) bool {
		return headline[i].Severity.Rank() > headline[j].Severity.Rank()
	})
	if len(headline) > 2 {
		headline = headline[:2]
	}
	if len(headline) == 0 {
		return fmt.Sprintf("Risk level %s", risk)
	}

	top := make([]string, len(headline))
	for i, flag := range headline {
		top[i] = flag.Message
	}
	return fmt.Sprintf("Risk level %s: %s", risk, strings.Join(top, "; "))
}
