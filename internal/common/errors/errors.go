// internal/common/errors/errors.go

// Package errors provides standardized error handling for the verification
// pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Intake / input errors - the run never starts.
	ErrCodeResumeValidationFailed ErrorCode = "RESUME_VALIDATION_FAILED"
	ErrCodeResumeEmpty            ErrorCode = "RESUME_EMPTY"

	// Profile analysis errors - absorbed into the failed-profile sentinel.
	ErrCodeProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileRateLimited ErrorCode = "PROFILE_RATE_LIMITED"
	ErrCodeProfileLookupError ErrorCode = "PROFILE_LOOKUP_ERROR"
	ErrCodeProfileTimeout     ErrorCode = "PROFILE_TIMEOUT"

	// Narrative generation errors - absorbed by the template fallback.
	ErrCodeNarrativeTimeout ErrorCode = "NARRATIVE_TIMEOUT"
	ErrCodeNarrativeFailed  ErrorCode = "NARRATIVE_FAILED"

	// Persistence errors - fatal for the run.
	ErrCodeRecordPersistFailed ErrorCode = "RECORD_PERSIST_FAILED"
	ErrCodeEventAppendFailed   ErrorCode = "EVENT_APPEND_FAILED"
	ErrCodeRecordNotFound      ErrorCode = "RECORD_NOT_FOUND"

	// Rule engine - a single rule fault is skipped, never fatal.
	ErrCodeRuleEvaluationFault ErrorCode = "RULE_EVALUATION_FAULT"

	// Post-report side effects - logged, never fatal.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReportIndexFailed      ErrorCode = "REPORT_INDEX_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// newError stamps a StandardError; retryability comes from the code table
// below so the constructors cannot drift from it.
func newError(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// NewResumeValidationFailedError creates a non-retryable intake error.
func NewResumeValidationFailedError(details string) *StandardError {
	return newError(ErrCodeResumeValidationFailed, "Parsed resume failed schema validation", details)
}

// NewResumeEmptyError creates a non-retryable intake error.
func NewResumeEmptyError() *StandardError {
	return newError(ErrCodeResumeEmpty, "Parsed resume has no employment history", "")
}

// NewProfileNotFoundError creates a non-retryable profile lookup error.
func NewProfileNotFoundError(handle string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Developer profile not found", fmt.Sprintf("handle: %s", handle))
}

// NewProfileRateLimitedError creates a retryable profile lookup error.
func NewProfileRateLimitedError(handle string) *StandardError {
	return newError(ErrCodeProfileRateLimited, "Profile service rate limit exceeded", fmt.Sprintf("handle: %s", handle))
}

// NewProfileLookupError creates a retryable profile lookup error.
func NewProfileLookupError(handle string, err error) *StandardError {
	return newError(ErrCodeProfileLookupError, "Profile service request failed", fmt.Sprintf("handle: %s, error: %s", handle, err.Error()))
}

// NewProfileTimeoutError creates a retryable profile timeout error.
func NewProfileTimeoutError(handle string) *StandardError {
	return newError(ErrCodeProfileTimeout, "Profile service request timed out", fmt.Sprintf("handle: %s", handle))
}

// NewNarrativeTimeoutError creates a retryable narrative generation error.
func NewNarrativeTimeoutError() *StandardError {
	return newError(ErrCodeNarrativeTimeout, "Narrative generation timed out", "falling back to templated narrative")
}

// NewNarrativeFailedError creates a retryable narrative generation error.
func NewNarrativeFailedError(err error) *StandardError {
	return newError(ErrCodeNarrativeFailed, "Narrative generation request failed", err.Error())
}

// NewRecordPersistFailedError creates a retryable persistence error. If it
// keeps failing the run transitions to failed.
func NewRecordPersistFailedError(err error) *StandardError {
	return newError(ErrCodeRecordPersistFailed, "Verification record write failed", err.Error())
}

// NewEventAppendFailedError creates a retryable persistence error.
func NewEventAppendFailedError(err error) *StandardError {
	return newError(ErrCodeEventAppendFailed, "Progress event append failed", err.Error())
}

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(recordID string) *StandardError {
	return newError(ErrCodeRecordNotFound, "Verification record not found", fmt.Sprintf("recordId: %s", recordID))
}

// NewRuleEvaluationFaultError wraps a recovered panic from a single fraud
// rule. Evaluation continues with the remaining rules.
func NewRuleEvaluationFaultError(ruleName string, cause interface{}) *StandardError {
	return newError(ErrCodeRuleEvaluationFault, "Fraud rule evaluation fault", fmt.Sprintf("rule: %s, cause: %v", ruleName, cause))
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %s", channel, err.Error()))
}

// NewReportIndexFailedError creates a retryable search indexing error.
func NewReportIndexFailedError(err error) *StandardError {
	return newError(ErrCodeReportIndexFailed, "Report indexing failed", err.Error())
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileRateLimited,
		ErrCodeProfileLookupError,
		ErrCodeNarrativeFailed,
		ErrCodeRecordPersistFailed,
		ErrCodeEventAppendFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeReportIndexFailed:
		return 3 // Retryable technical errors

	case ErrCodeProfileTimeout,
		ErrCodeNarrativeTimeout:
		return 1 // Timeouts get one more attempt before degrading

	default:
		return 0 // Input and business errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "RESUME"):
		return "INTAKE"
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "NARRATIVE"):
		return "NARRATIVE"
	case strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "EVENT"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "RULE"):
		return "RULES"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "INDEX"):
		return "SIDE_EFFECTS"
	default:
		return "OTHER"
	}
}

// CodeOf extracts the ErrorCode from a StandardError anywhere in err's
// chain, or returns fallback for plain errors.
func CodeOf(err error, fallback ErrorCode) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return fallback
}
