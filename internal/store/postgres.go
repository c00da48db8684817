// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"refcheck/internal/models"
)

// PostgresStore persists records and events in two tables. Resume, result
// and event payloads are stored as JSONB; the event sequence number is
// assigned inside the insert so concurrent appends for different records
// never contend.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertRecord(ctx context.Context, record *models.VerificationRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	resumeJSON, err := marshalNullable(record.Resume)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_records
			(id, candidate_name, email, profile_handle, status, stage, resume, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.CandidateName, record.Email, record.ProfileHandle,
		string(record.Status), record.Stage, resumeJSON, record.ErrorMessage, record.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*models.VerificationRecord, error) {
	var (
		record      models.VerificationRecord
		status      string
		resumeJSON  []byte
		resultJSON  []byte
		completedAt sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, candidate_name, email, profile_handle, status, stage,
		       resume, result, error_message, created_at, completed_at
		FROM verification_records
		WHERE id = $1`, id).Scan(
		&record.ID, &record.CandidateName, &record.Email, &record.ProfileHandle,
		&status, &record.Stage, &resumeJSON, &resultJSON,
		&record.ErrorMessage, &record.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	record.Status = models.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		record.CompletedAt = &t
	}
	if len(resumeJSON) > 0 {
		record.Resume = &models.ParsedResume{}
		if err := json.Unmarshal(resumeJSON, record.Resume); err != nil {
			return nil, err
		}
	}
	if len(resultJSON) > 0 {
		record.Result = &models.Report{}
		if err := json.Unmarshal(resultJSON, record.Result); err != nil {
			return nil, err
		}
	}
	return &record, nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, record *models.VerificationRecord) error {
	resumeJSON, err := marshalNullable(record.Resume)
	if err != nil {
		return err
	}
	resultJSON, err := marshalNullable(record.Result)
	if err != nil {
		return err
	}

	var completedAt interface{}
	if record.CompletedAt != nil {
		completedAt = *record.CompletedAt
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE verification_records
		SET status = $2, stage = $3, resume = $4, result = $5,
		    error_message = $6, completed_at = $7
		WHERE id = $1`,
		record.ID, string(record.Status), record.Stage,
		resumeJSON, resultJSON, record.ErrorMessage, completedAt,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, event *models.ProgressEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payloadJSON, err := marshalNullable(event.Payload)
	if err != nil {
		return err
	}

	return s.db.QueryRowContext(ctx, `
		INSERT INTO verification_events
			(id, record_id, seq, stage, status, message, payload, created_at)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM verification_events WHERE record_id = $2),
			$3, $4, $5, $6, $7)
		RETURNING seq`,
		event.ID, event.RecordID, event.Stage, string(event.Status),
		event.Message, payloadJSON, event.CreatedAt,
	).Scan(&event.Seq)
}

func (s *PostgresStore) ListEvents(ctx context.Context, recordID string) ([]models.ProgressEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, seq, stage, status, message, payload, created_at
		FROM verification_events
		WHERE record_id = $1
		ORDER BY seq ASC`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ProgressEvent
	for rows.Next() {
		var (
			event       models.ProgressEvent
			status      string
			payloadJSON []byte
		)
		if err := rows.Scan(&event.ID, &event.RecordID, &event.Seq, &event.Stage,
			&status, &event.Message, &payloadJSON, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Status = models.EventStatus(status)
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &event.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func marshalNullable(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case *models.ParsedResume:
		if val == nil {
			return nil, nil
		}
	case *models.Report:
		if val == nil {
			return nil, nil
		}
	case map[string]interface{}:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
