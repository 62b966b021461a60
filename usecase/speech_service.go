package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/metrics"
)

// SpeechService turns text into a playable WAV file
type SpeechService struct {
	synthesizer repositories.SpeechSynthesizer
	sampleRate  int
	logger      *zap.Logger
}

// NewSpeechService creates a new speech service. Providers return PCM at
// audio.ProviderSampleRate.
func NewSpeechService(synthesizer repositories.SpeechSynthesizer, logger *zap.Logger) *SpeechService {
	return &SpeechService{
		synthesizer: synthesizer,
		sampleRate:  audio.ProviderSampleRate,
		logger:      logger,
	}
}

// Synthesize validates req, calls the provider once and wraps the PCM in a
// WAV container.
func (s *SpeechService) Synthesize(ctx context.Context, req entities.SpeechRequest) (*audio.WAVFile, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.Invalid(err)
	}

	start := time.Now()
	encoded, err := s.synthesizer.GenerateSpeech(ctx, req.Text, req.VoiceName)
	observe(metrics.OpSynthesize, start, err)
	if err != nil {
		return nil, err
	}

	wav, err := audio.PCMToWAV(encoded, s.sampleRate)
	if err != nil {
		s.logger.Error("Provider returned undecodable audio", zap.Error(err))
		return nil, domain.ErrMalformedResponse.Wrap(fmt.Errorf("decode provider audio: %w", err))
	}

	metrics.AudioBytesTotal.WithLabelValues("synthesized").Add(float64(len(wav.PCM())))

	s.logger.Info("Speech synthesized",
		zap.String("voiceName", req.VoiceName),
		zap.Int("pcmBytes", len(wav.PCM())),
		zap.Duration("elapsed", time.Since(start)))

	return wav, nil
}

func observe(operation string, start time.Time, err error) {
	metrics.ProviderLatency.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
	metrics.ProviderCallsTotal.WithLabelValues(operation, metrics.Outcome(string(domain.KindOf(err)), err)).Inc()
}
