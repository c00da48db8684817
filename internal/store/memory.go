// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"refcheck/internal/models"
)

// MemoryStore is an in-process Store used by the CLI tool and by tests.
// All maps are guarded by a single mutex; values are copied on the way in
// and out so callers cannot alias internal state.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.VerificationRecord
	events  map[string][]models.ProgressEvent
	seq     map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.VerificationRecord),
		events:  make(map[string][]models.ProgressEvent),
		seq:     make(map[string]int64),
	}
}

func (m *MemoryStore) InsertRecord(_ context.Context, record *models.VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	m.records[record.ID] = *record
	return nil
}

func (m *MemoryStore) GetRecord(_ context.Context, id string) (*models.VerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (m *MemoryStore) UpdateRecord(_ context.Context, record *models.VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return ErrNotFound
	}
	m.records[record.ID] = *record
	return nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, event *models.ProgressEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq[event.RecordID]++
	event.Seq = m.seq[event.RecordID]
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	m.events[event.RecordID] = append(m.events[event.RecordID], *event)
	return nil
}

func (m *MemoryStore) ListEvents(_ context.Context, recordID string) ([]models.ProgressEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ProgressEvent, len(m.events[recordID]))
	copy(out, m.events[recordID])
	return out, nil
}
