// internal/models/reference.go
package models

// Relationship describes how a synthetic reference knew the candidate.
type Relationship string

const (
	RelationshipManager      Relationship = "manager"
	RelationshipPeer         Relationship = "peer"
	RelationshipDirectReport Relationship = "direct_report"
)

// Reference is a synthetic former-colleague contact generated for one run.
// References are ephemeral: they are never persisted beyond the run.
type Reference struct {
	Name         string       `json:"name"`
	Employer     string       `json:"employer"`
	Title        string       `json:"title"`
	Relationship Relationship `json:"relationship"`
}

// ReferenceResponse is a simulated answer from a reference that "responded"
// to outreach.
type ReferenceResponse struct {
	Reference   Reference `json:"reference"`
	Rating      int       `json:"rating"` // 1-10
	Strengths   []string  `json:"strengths"`
	Weaknesses  []string  `json:"weaknesses"`
	WouldRehire bool      `json:"wouldRehire"`
	Anecdote    string    `json:"anecdote"`
}

// ReferenceStats summarizes the outreach simulation for reporting.
type ReferenceStats struct {
	Generated  int     `json:"generated"`
	Responded  int     `json:"responded"`
	MeanRating float64 `json:"meanRating"`
}
