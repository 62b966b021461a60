package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/metrics"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ErrSessionClosed is returned when audio arrives after Finish
var ErrSessionClosed = errors.New("transcription session is closed")

// TranscriptionService runs live recognition sessions and keeps their
// results in history
type TranscriptionService struct {
	speechToText repositories.SpeechToText
	repo         repositories.TranscriptionRepository
	historyLimit int
	logger       *zap.Logger
}

// NewTranscriptionService creates a new transcription service
func NewTranscriptionService(
	stt repositories.SpeechToText,
	repo repositories.TranscriptionRepository,
	historyLimit int,
	logger *zap.Logger,
) *TranscriptionService {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &TranscriptionService{
		speechToText: stt,
		repo:         repo,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// TranscriptionSession is one open recording. Audio is 16-bit mono PCM, so
// the recorded duration follows from the byte count.
type TranscriptionSession struct {
	ownerID   string
	config    repositories.AudioConfig
	stream    repositories.SpeechToTextStreaming
	startedAt time.Time

	mu        sync.Mutex
	bytes     int
	chunks    int
	maxBytes  int
	truncated bool
	closed    bool
}

// StartSession opens a recognition stream for ownerID
func (s *TranscriptionService) StartSession(ctx context.Context, ownerID string, config repositories.AudioConfig) (*TranscriptionSession, error) {
	if ownerID == "" {
		return nil, domain.Invalid(errors.New("owner ID is required"))
	}

	defaults := repositories.DefaultAudioConfig()
	if config.SampleRate <= 0 {
		config.SampleRate = defaults.SampleRate
	}
	if config.Encoding == "" {
		config.Encoding = defaults.Encoding
	}
	if config.Language == "" {
		config.Language = defaults.Language
	}

	stream, err := s.speechToText.InitTranscribeStreaming(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start transcription: %w", err)
	}

	metrics.ActiveTranscriptions.Inc()

	s.logger.Info("Transcription session started",
		zap.String("ownerID", ownerID),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("language", config.Language))

	return &TranscriptionSession{
		ownerID:   ownerID,
		config:    config,
		stream:    stream,
		startedAt: time.Now(),
		maxBytes:  bytesPerSecond(config.SampleRate) * int(entities.MaxRecordingDuration/time.Second),
	}, nil
}

func bytesPerSecond(sampleRate int) int {
	return sampleRate * 2
}

// Write forwards a chunk to the recognizer. Audio beyond the maximum
// recording duration is dropped and limitReached reports true.
func (t *TranscriptionSession) Write(chunk []byte) (limitReached bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, ErrSessionClosed
	}
	if t.truncated {
		return true, nil
	}

	if remaining := t.maxBytes - t.bytes; len(chunk) >= remaining {
		chunk = chunk[:remaining]
		t.truncated = true
	}

	if len(chunk) > 0 {
		if err := t.stream.Stream(chunk); err != nil {
			return t.truncated, err
		}
		t.bytes += len(chunk)
		t.chunks++
		metrics.AudioBytesTotal.WithLabelValues("recognized").Add(float64(len(chunk)))
	}

	return t.truncated, nil
}

// Interim returns the text recognized so far
func (t *TranscriptionSession) Interim() string {
	return t.stream.Interim()
}

// Duration is the amount of audio received
func (t *TranscriptionSession) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration()
}

func (t *TranscriptionSession) duration() time.Duration {
	bps := bytesPerSecond(t.config.SampleRate)
	if bps == 0 {
		return 0
	}
	return time.Duration(t.bytes) * time.Second / time.Duration(bps)
}

// Truncated reports whether the recording hit the duration cap
func (t *TranscriptionSession) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.truncated
}

// Finish closes the stream and stores the outcome. A failed recognition is
// still recorded and returned along with the error. The record is nil
// whenever it could not be stored.
func (s *TranscriptionService) Finish(ctx context.Context, session *TranscriptionSession) (*entities.TranscriptionRecord, error) {
	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return nil, ErrSessionClosed
	}
	session.closed = true
	duration := session.duration()
	truncated := session.truncated
	metadata := entities.TranscriptionMetadata{
		Language:   session.config.Language,
		SampleRate: session.config.SampleRate,
		Encoding:   session.config.Encoding,
		Chunks:     session.chunks,
		Bytes:      session.bytes,
	}
	session.mu.Unlock()

	metrics.ActiveTranscriptions.Dec()
	metrics.RecordingDuration.Observe(duration.Seconds())

	text, recognizeErr := session.stream.End(ctx)

	if truncated {
		duration = entities.MaxRecordingDuration
	}
	record := entities.NewTranscriptionRecord(session.ownerID, text, duration)
	record.Metadata = metadata
	if recognizeErr != nil {
		record.Fail(recognizeErr)
	}

	metrics.TranscriptionsTotal.WithLabelValues(string(record.Status)).Inc()

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to store transcription",
			zap.String("ownerID", session.ownerID),
			zap.Error(err))
		return nil, errors.Join(recognizeErr, fmt.Errorf("failed to store transcription: %w", err))
	}

	s.logger.Info("Transcription session finished",
		zap.String("ownerID", session.ownerID),
		zap.String("transcriptionID", record.ID),
		zap.String("status", string(record.Status)),
		zap.Duration("duration", duration),
		zap.Duration("wallTime", time.Since(session.startedAt)))

	if recognizeErr != nil {
		return record, recognizeErr
	}
	return record, nil
}

// History lists the owner's recent transcriptions, newest first
func (s *TranscriptionService) History(ctx context.Context, ownerID string, limit int) ([]*entities.TranscriptionRecord, error) {
	if ownerID == "" {
		return nil, domain.Invalid(errors.New("owner ID is required"))
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return s.repo.ListRecent(ctx, ownerID, limit)
}

// Get returns one transcription, only if it belongs to ownerID
func (s *TranscriptionService) Get(ctx context.Context, ownerID, id string) (*entities.TranscriptionRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, repositories.ErrTranscriptionNotFound
	}
	return record, nil
}
