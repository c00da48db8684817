// internal/models/report.go
package models

import "time"

// NarrativeSource records whether the narrative came from the generation
// service or from the deterministic fallback template.
const (
	NarrativeGenerated = "generated"
	NarrativeTemplate  = "template"
)

// Report is the final output of a successful verification run.
type Report struct {
	Risk            RiskLevel      `json:"risk"`
	Summary         string         `json:"summary"`
	Flags           []FraudFlag    `json:"flags"`
	Narrative       string         `json:"narrative"`
	NarrativeSource string         `json:"narrativeSource"`
	Questions       []string       `json:"questions"`
	References      ReferenceStats `json:"references"`
	ProfileAnalyzed bool           `json:"profileAnalyzed"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}
