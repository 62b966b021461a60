package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
)

// ErrTranscriptionNotFound is returned when a record lookup misses
var ErrTranscriptionNotFound = errors.New("transcription not found")

// TranscriptionRepository defines data access methods for ASR history
type TranscriptionRepository interface {
	Create(ctx context.Context, record *entities.TranscriptionRecord) error
	GetByID(ctx context.Context, id string) (*entities.TranscriptionRecord, error)
	// ListRecent returns the owner's records, newest first
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*entities.TranscriptionRecord, error)
	// DeleteOlderThan removes records created before cutoff and reports how many
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
