package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
)

// DemoPhrases are revealed one by one as audio accumulates
var DemoPhrases = []string{
	"欢迎使用 Audio Spark。",
	"正在识别您的声音。",
	"今天天气不错。",
	"深度学习模型正在处理这段音频。",
}

// MockSpeechToText reveals one demo phrase per second of audio. It lets the
// live transcription flow run without cloud credentials.
type MockSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// InitTranscribeStreaming creates a new mock streaming session
func (s *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	s.logger.Info("Initializing mock streaming transcription",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = repositories.DefaultAudioConfig().SampleRate
	}

	return &MockSpeechToTextStream{
		logger:        s.logger,
		bytesPerPhase: sampleRate * 2,
	}, nil
}

// MockSpeechToTextStream is a mock implementation of streaming speech recognition
type MockSpeechToTextStream struct {
	logger        *zap.Logger
	bytesPerPhase int

	mu         sync.Mutex
	totalBytes int
}

// Stream counts the received 16-bit samples
func (m *MockSpeechToTextStream) Stream(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalBytes += len(data)
	m.logger.Debug("Processing mock audio chunk",
		zap.Int("size", len(data)),
		zap.Int("totalBytes", m.totalBytes))
	return nil
}

// Interim returns the phrases unlocked so far
func (m *MockSpeechToTextStream) Interim() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mockTranscript(m.totalBytes, m.bytesPerPhase)
}

// End returns the mock transcription result
func (m *MockSpeechToTextStream) End(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.totalBytes == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	transcription := mockTranscript(m.totalBytes, m.bytesPerPhase)
	if transcription == "" {
		// any audio yields at least the first phrase
		transcription = DemoPhrases[0]
	}
	m.logger.Info("Ending mock transcription stream", zap.String("result", transcription))
	return transcription, nil
}

func mockTranscript(totalBytes, bytesPerPhase int) string {
	if bytesPerPhase <= 0 {
		return ""
	}
	n := totalBytes / bytesPerPhase
	if n > len(DemoPhrases) {
		n = len(DemoPhrases)
	}
	return strings.Join(DemoPhrases[:n], "")
}
