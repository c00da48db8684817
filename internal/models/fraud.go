// internal/models/fraud.go
package models

// Severity tags how serious a single fraud flag is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// RiskLevel is the coarse three-way classification derived from the flag set.
type RiskLevel string

const (
	RiskGreen  RiskLevel = "green"
	RiskYellow RiskLevel = "yellow"
	RiskRed    RiskLevel = "red"
)

// Flag type tags produced by the rule engine. Report synthesis keys its
// question templates off these.
const (
	FlagSkillMismatch  = "skill_mismatch"
	FlagEmploymentGap  = "employment_gap"
	FlagLowRating      = "low_reference_rating"
	FlagRehireConcerns = "rehire_concerns"
)

// FraudFlag is one piece of evidence of a possible discrepancy. Immutable
// once produced.
type FraudFlag struct {
	Type     string                 `json:"type"`
	Severity Severity               `json:"severity"`
	Message  string                 `json:"message"`
	Category string                 `json:"category"`
	Evidence map[string]interface{} `json:"evidence,omitempty"`
}

// FraudResult aggregates all flags from one evaluation. Deterministic given
// the same flags.
type FraudResult struct {
	Risk           RiskLevel        `json:"risk"`
	Flags          []FraudFlag      `json:"flags"`
	SeverityCounts map[Severity]int `json:"severityCounts"`
	Summary        string           `json:"summary"`
}
