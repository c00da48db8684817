// internal/store/store.go
package store

import (
	"context"
	"errors"

	"refcheck/internal/models"
)

// ErrNotFound is returned when a verification record does not exist.
var ErrNotFound = errors.New("verification record not found")

// Store persists verification records and their progress event log.
// Events are append-only and ordered by a per-record sequence number
// assigned at append time.
type Store interface {
	InsertRecord(ctx context.Context, record *models.VerificationRecord) error
	GetRecord(ctx context.Context, id string) (*models.VerificationRecord, error)
	UpdateRecord(ctx context.Context, record *models.VerificationRecord) error
	AppendEvent(ctx context.Context, event *models.ProgressEvent) error
	ListEvents(ctx context.Context, recordID string) ([]models.ProgressEvent, error)
}
