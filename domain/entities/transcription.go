package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TranscriptionStatus represents the outcome of a recognition session
type TranscriptionStatus string

const (
	TranscriptionStatusCompleted TranscriptionStatus = "completed"
	TranscriptionStatusTruncated TranscriptionStatus = "truncated"
	TranscriptionStatusFailed    TranscriptionStatus = "failed"
)

// MaxRecordingDuration caps a single live recognition session.
const MaxRecordingDuration = 180 * time.Second

// TranscriptionMetadata describes the audio a record was produced from
type TranscriptionMetadata struct {
	Language   string `json:"language" bson:"language"`
	SampleRate int    `json:"sample_rate" bson:"sample_rate"`
	Encoding   string `json:"encoding" bson:"encoding"`
	Chunks     int    `json:"chunks" bson:"chunks"`
	Bytes      int    `json:"bytes" bson:"bytes"`
}

// TranscriptionRecord is one finished speech-to-text session kept in history
type TranscriptionRecord struct {
	ID         string                `json:"id" bson:"_id"`
	OwnerID    string                `json:"owner_id" bson:"owner_id"`
	Text       string                `json:"text" bson:"text"`
	DurationMs int64                 `json:"duration_ms" bson:"duration_ms"`
	Status     TranscriptionStatus   `json:"status" bson:"status"`
	Error      string                `json:"error,omitempty" bson:"error,omitempty"`
	Metadata   TranscriptionMetadata `json:"metadata" bson:"metadata"`
	CreatedAt  time.Time             `json:"created_at" bson:"created_at"`
}

// NewTranscriptionRecord creates a completed record for an owner
func NewTranscriptionRecord(ownerID, text string, duration time.Duration) *TranscriptionRecord {
	status := TranscriptionStatusCompleted
	if duration >= MaxRecordingDuration {
		status = TranscriptionStatusTruncated
		duration = MaxRecordingDuration
	}

	return &TranscriptionRecord{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Text:       text,
		DurationMs: duration.Milliseconds(),
		Status:     status,
		CreatedAt:  time.Now(),
		Metadata: TranscriptionMetadata{
			Language: "zh-CN",
		},
	}
}

// Fail marks the record as failed with the given cause
func (r *TranscriptionRecord) Fail(err error) {
	r.Status = TranscriptionStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// IsOlderThan reports whether the record was created before cutoff
func (r *TranscriptionRecord) IsOlderThan(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}

// Validate validates the record data
func (r *TranscriptionRecord) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if r.OwnerID == "" {
		return errors.New("owner_id is required")
	}

	switch r.Status {
	case TranscriptionStatusCompleted, TranscriptionStatusTruncated:
	case TranscriptionStatusFailed:
		return nil
	default:
		return errors.New("invalid transcription status")
	}

	if r.Text == "" {
		return errors.New("text is required for a successful transcription")
	}
	return nil
}
