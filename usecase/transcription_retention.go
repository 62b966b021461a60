package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/metrics"
)

// TranscriptionRetentionService prunes history older than the retention
// window in the background
type TranscriptionRetentionService struct {
	repo         repositories.TranscriptionRepository
	retention    time.Duration
	interval     time.Duration
	initialDelay time.Duration
	logger       *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewTranscriptionRetentionService creates a new retention service
func NewTranscriptionRetentionService(
	repo repositories.TranscriptionRepository,
	retention, interval time.Duration,
	logger *zap.Logger,
) *TranscriptionRetentionService {
	return &TranscriptionRetentionService{
		repo:         repo,
		retention:    retention,
		interval:     interval,
		initialDelay: time.Minute,
		logger:       logger,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *TranscriptionRetentionService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Transcription retention service started",
		zap.Duration("retention", s.retention),
		zap.Duration("interval", s.interval))
}

// Stop stops the loop and waits for a running sweep to finish
func (s *TranscriptionRetentionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		<-s.done
		s.logger.Info("Transcription retention service stopped")
	})
}

func (s *TranscriptionRetentionService) cleanupLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	initialTimer := time.NewTimer(s.initialDelay)
	defer initialTimer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-initialTimer.C:
			s.RunOnce(context.Background())
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

// RunOnce deletes records older than the retention window
func (s *TranscriptionRetentionService) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune transcriptions", zap.Error(err))
		return 0
	}

	metrics.TranscriptionsPrunedTotal.Add(float64(deleted))
	s.logger.Debug("Transcription cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
	return deleted
}
