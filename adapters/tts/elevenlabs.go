package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM"   // Rachel voice
	defaultChunkSize    = 4096                     // read size while collecting the stream
	defaultOutputFormat = "pcm_24000"              // matches the shared WAV framing rate
	defaultModelID      = "eleven_multilingual_v2" // handles zh and en input
	defaultStability    = 0.5
	defaultClarity      = 0.75
	defaultTimeout      = 60 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabsTTS adapter
// Required fields:
// - APIKey: Your Eleven Labs API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Eleven Labs API (default: "https://api.elevenlabs.io/v1")
// - VoiceID: Voice used when a display name has no mapping (default: Rachel)
// - Voices: display name -> Eleven Labs voice ID
// - ModelID: The model ID to use (default: "eleven_multilingual_v2")
// - ChunkSize: read buffer size (default: 4096)
// - Stability: Voice stability value between 0 and 1 (default: 0.5)
// - Clarity: Voice clarity/similarity boost value between 0 and 1 (default: 0.75)
// - Timeout: per request (default: 60s)
type ElevenLabsConfig struct {
	APIKey     string
	APIBaseURL string
	VoiceID    string
	Voices     map[string]string
	ModelID    string
	ChunkSize  int
	Stability  float64
	Clarity    float64
	Timeout    time.Duration
}

// ElevenLabsTTS implements SpeechSynthesizer on the Eleven Labs streaming
// endpoint. Output is always 24 kHz 16-bit mono PCM so it shares the WAV
// encoder with the Gemini synthesizer.
type ElevenLabsTTS struct {
	apiKey     string
	apiBaseURL string
	voiceID    string
	voices     map[string]string
	modelID    string
	chunkSize  int
	stability  float64
	clarity    float64
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*ElevenLabsTTS)(nil)

// ElevenLabsVoiceSettings represents voice settings for Eleven Labs API
type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ElevenLabsRequest represents the request payload for Eleven Labs TTS API
type ElevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id"`
	VoiceSettings          ElevenLabsVoiceSettings `json:"voice_settings"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}

	if config.Stability != 0 && (config.Stability < 0 || config.Stability > 1) {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}

	if config.Clarity != 0 && (config.Clarity < 0 || config.Clarity > 1) {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}

	if config.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}

	return nil
}

// NewElevenLabsTTS creates a new Eleven Labs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
		logger.Info("Using default API base URL", zap.String("apiBaseURL", apiBaseURL))
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", voiceID))
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
		logger.Info("Using default model ID", zap.String("modelID", modelID))
	}

	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = defaultChunkSize
	}

	stability := config.Stability
	if stability == 0 {
		stability = defaultStability
	}

	clarity := config.Clarity
	if clarity == 0 {
		clarity = defaultClarity
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	voices := make(map[string]string, len(config.Voices))
	for name, id := range config.Voices {
		voices[name] = id
	}

	return &ElevenLabsTTS{
		apiKey:     config.APIKey,
		apiBaseURL: strings.TrimSuffix(apiBaseURL, "/"),
		voiceID:    voiceID,
		voices:     voices,
		modelID:    modelID,
		chunkSize:  chunkSize,
		stability:  stability,
		clarity:    clarity,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// ResolveVoice maps a display name onto a configured voice ID, falling
// back to the default voice.
func (e *ElevenLabsTTS) ResolveVoice(displayName string) string {
	if id, ok := e.voices[displayName]; ok && id != "" {
		return id
	}
	return e.voiceID
}

// GenerateSpeech collects the PCM stream for text and returns it base64
// encoded.
func (e *ElevenLabsTTS) GenerateSpeech(ctx context.Context, text, voiceName string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyText
	}

	voiceID := e.ResolveVoice(voiceName)
	audioChan, errChan, err := e.stream(ctx, text, voiceID)
	if err != nil {
		return "", err
	}

	var pcm bytes.Buffer
	for chunk := range audioChan {
		pcm.Write(chunk)
	}
	if err := <-errChan; err != nil {
		return "", err
	}

	if pcm.Len() == 0 {
		return "", domain.ErrNoContentReturned
	}

	return audio.EncodeBase64(pcm.Bytes()), nil
}

// stream posts the synthesis request and forwards the body in chunks. The
// error channel receives exactly one value once audioChan is closed.
func (e *ElevenLabsTTS) stream(ctx context.Context, text, voiceID string) (<-chan []byte, <-chan error, error) {
	e.logger.Info("Converting text to speech",
		zap.Int("textLength", len([]rune(text))),
		zap.String("voiceID", voiceID),
		zap.String("modelID", e.modelID))

	request := ElevenLabsRequest{
		Text:                   text,
		ModelID:                e.modelID,
		ApplyTextNormalization: "auto",
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
			UseSpeakerBoost: true,
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/stream?output_format=%s&enable_logging=false",
		e.apiBaseURL, voiceID, defaultOutputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "audio/pcm")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		e.logger.Error("Failed to execute HTTP request", zap.Error(err))
		return nil, nil, fmt.Errorf("eleven labs request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		e.logger.Error("Eleven Labs API returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return nil, nil, classifyStatus(resp.StatusCode, string(errorBody))
	}

	audioChan := make(chan []byte, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		defer close(audioChan)
		defer resp.Body.Close()

		buffer := make([]byte, e.chunkSize)
		totalBytes := 0
		chunkCount := 0

		for {
			n, err := resp.Body.Read(buffer)
			if n > 0 {
				totalBytes += n
				chunkCount++

				chunk := make([]byte, n)
				copy(chunk, buffer[:n])

				select {
				case audioChan <- chunk:
				case <-ctx.Done():
					e.logger.Warn("Context cancelled while sending audio chunk")
					errChan <- ctx.Err()
					return
				}
			}

			if err == io.EOF {
				e.logger.Info("Finished streaming audio data",
					zap.Int("totalChunks", chunkCount),
					zap.Int("totalBytes", totalBytes))
				errChan <- nil
				return
			}

			if err != nil {
				e.logger.Error("Error reading response body", zap.Error(err))
				errChan <- fmt.Errorf("failed to read audio stream: %w", err)
				return
			}
		}
	}()

	return audioChan, errChan, nil
}

func classifyStatus(status int, body string) error {
	cause := fmt.Errorf("eleven labs API returned %d: %s", status, body)
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrInvalidCredential.Wrap(cause)
	case http.StatusForbidden:
		return domain.ErrRegionUnsupported.Wrap(cause)
	}
	return cause
}

// ElevenLabsVoice is the subset of the voice listing this service exposes
type ElevenLabsVoice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// GetAvailableVoices retrieves available voices from Eleven Labs API
func (e *ElevenLabsTTS) GetAvailableVoices(ctx context.Context) ([]ElevenLabsVoice, error) {
	url := fmt.Sprintf("%s/voices", e.apiBaseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp.StatusCode, string(errorBody))
	}

	var voicesResponse struct {
		Voices []ElevenLabsVoice `json:"voices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&voicesResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	e.logger.Info("Retrieved available voices", zap.Int("count", len(voicesResponse.Voices)))
	return voicesResponse.Voices, nil
}
