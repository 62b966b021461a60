package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
)

// TranscriptionRepository is an in-memory TranscriptionRepository used
// when no MongoDB URI is configured
type TranscriptionRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.TranscriptionRecord   // id -> record
	owners  map[string][]*entities.TranscriptionRecord // owner_id -> records
}

var _ repositories.TranscriptionRepository = (*TranscriptionRepository)(nil)

// NewTranscriptionRepository creates an empty repository
func NewTranscriptionRepository() *TranscriptionRepository {
	return &TranscriptionRepository{
		records: make(map[string]*entities.TranscriptionRecord),
		owners:  make(map[string][]*entities.TranscriptionRecord),
	}
}

// Create implements TranscriptionRepository
func (m *TranscriptionRepository) Create(ctx context.Context, record *entities.TranscriptionRecord) error {
	if record == nil {
		return errors.New("transcription cannot be nil")
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := record.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.ID]; exists {
		return errors.New("transcription with this ID already exists")
	}

	recordCopy := *record
	m.records[record.ID] = &recordCopy
	m.owners[record.OwnerID] = append(m.owners[record.OwnerID], &recordCopy)

	return nil
}

// GetByID implements TranscriptionRepository
func (m *TranscriptionRepository) GetByID(ctx context.Context, id string) (*entities.TranscriptionRecord, error) {
	if id == "" {
		return nil, errors.New("transcription ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[id]
	if !exists {
		return nil, repositories.ErrTranscriptionNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

// ListRecent implements TranscriptionRepository
func (m *TranscriptionRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]*entities.TranscriptionRecord, error) {
	if ownerID == "" {
		return nil, errors.New("owner ID cannot be empty")
	}

	m.mu.RLock()
	owned := m.owners[ownerID]
	result := make([]*entities.TranscriptionRecord, len(owned))
	for i, record := range owned {
		recordCopy := *record
		result[i] = &recordCopy
	}
	m.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// DeleteOlderThan implements TranscriptionRepository
func (m *TranscriptionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, record := range m.records {
		if record.IsOlderThan(cutoff) {
			delete(m.records, id)
			deleted++
		}
	}

	if deleted == 0 {
		return 0, nil
	}

	for ownerID, owned := range m.owners {
		kept := owned[:0]
		for _, record := range owned {
			if !record.IsOlderThan(cutoff) {
				kept = append(kept, record)
			}
		}
		if len(kept) == 0 {
			delete(m.owners, ownerID)
			continue
		}
		m.owners[ownerID] = kept
	}

	return deleted, nil
}
