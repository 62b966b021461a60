package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/metrics"
)

// MaxDiarizationAudioBytes bounds inline audio sent to the provider
const MaxDiarizationAudioBytes = 20 << 20

// DiarizationService splits a recorded conversation into speaker turns
type DiarizationService struct {
	analyzer repositories.ConversationAnalyzer
	logger   *zap.Logger
}

// NewDiarizationService creates a new diarization service
func NewDiarizationService(analyzer repositories.ConversationAnalyzer, logger *zap.Logger) *DiarizationService {
	return &DiarizationService{analyzer: analyzer, logger: logger}
}

// Analyze decodes base64 audio and returns speaker segments. mimeType
// defaults to audio/wav when the payload carries a RIFF header.
func (s *DiarizationService) Analyze(ctx context.Context, audioBase64, mimeType string) ([]entities.SpeakerSegment, error) {
	if strings.TrimSpace(audioBase64) == "" {
		return nil, domain.Invalid(errors.New("audio_base64 is required"))
	}

	data, err := audio.DecodeBase64(audioBase64)
	if err != nil {
		return nil, domain.Invalid(fmt.Errorf("audio_base64 is not valid base64: %w", err))
	}
	if len(data) > MaxDiarizationAudioBytes {
		return nil, domain.Invalid(fmt.Errorf("audio must be at most %d bytes", MaxDiarizationAudioBytes))
	}

	if mimeType == "" {
		if !audio.IsWAV(data) {
			return nil, domain.Invalid(errors.New("mime_type is required"))
		}
		mimeType = audio.MIMETypeWAV
	}

	start := time.Now()
	segments, err := s.analyzer.AnalyzeConversation(ctx, data, mimeType)
	observe(metrics.OpDiarize, start, err)
	if err != nil {
		return nil, err
	}

	metrics.AudioBytesTotal.WithLabelValues("diarized").Add(float64(len(data)))

	s.logger.Info("Conversation diarized",
		zap.String("mimeType", mimeType),
		zap.Int("segments", len(segments)))

	return segments, nil
}
