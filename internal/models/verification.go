// internal/models/verification.go
package models

import (
	"fmt"
	"time"
)

// Status tracks the coarse lifecycle of a verification run. Transitions are
// monotonic: pending -> running -> completed|failed, never backwards.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo enforces the monotonic status order.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// VerificationRecord is the single mutable document per candidate submission.
// Only the pipeline orchestrator writes to it; everything else reads.
type VerificationRecord struct {
	ID            string        `json:"id"`
	CandidateName string        `json:"candidateName"`
	Email         string        `json:"email,omitempty"`
	ProfileHandle string        `json:"profileHandle,omitempty"`
	Status        Status        `json:"status"`
	Stage         string        `json:"stage,omitempty"` // progress display only, not authoritative
	Resume        *ParsedResume `json:"parsedResume,omitempty"`
	Result        *Report       `json:"result,omitempty"` // set only when Status == completed
	ErrorMessage  string        `json:"errorMessage,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"` // stamped exactly once, on either terminal state
}

// ParsedResume is the structured resume the intake boundary hands us. How it
// was extracted from the original document is out of scope here.
type ParsedResume struct {
	Employment []EmploymentEntry `json:"employment"`
	Education  []EducationEntry  `json:"education,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
}

// EmploymentEntry dates carry month precision ("2006-01"). EndDate empty
// means the position is current.
type EmploymentEntry struct {
	Employer    string `json:"employer"`
	Title       string `json:"title"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// MonthLayout is the date format used across employment entries.
const MonthLayout = "2006-01"

// ParseMonth parses a month-precision employment date.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month date %q: %w", s, err)
	}
	return t, nil
}

// MonthsBetween returns the signed gap in whole months from a to b, computed
// as (b.year-a.year)*12 + (b.month-a.month).
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
