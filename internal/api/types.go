package api

import (
	"time"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
)

// TokenRequest represents the request payload for client authentication
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse represents the response payload for client authentication
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
	ClientID  string    `json:"client_id"`
}

// Output formats for POST /tts
const (
	FormatWAV    = "wav"
	FormatBase64 = "base64"
)

// TTSRequest asks for speech. Format defaults to wav.
type TTSRequest struct {
	Text      string `json:"text"`
	VoiceName string `json:"voice_name"`
	Format    string `json:"format"`
}

// TTSResponse is returned when format is base64. Voice is set when the
// requested name is in the catalog.
type TTSResponse struct {
	AudioBase64   string          `json:"audio_base64"`
	MIMEType      string          `json:"mime_type"`
	SampleRate    int             `json:"sample_rate"`
	Voice         *entities.Voice `json:"voice,omitempty"`
	ProviderVoice string          `json:"provider_voice"`
}

// Response headers describing the voice a WAV was rendered with
const (
	HeaderVoiceID       = "X-Voice-Id"
	HeaderProviderVoice = "X-Provider-Voice"
)

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type TranslateResponse struct {
	Text string `json:"text"`
}

type DiarizeRequest struct {
	AudioBase64 string `json:"audio_base64"`
	MIMEType    string `json:"mime_type"`
}

type DiarizeResponse struct {
	Segments []entities.SpeakerSegment `json:"segments"`
}

// VoiceResponse is a catalog entry plus the provider voice it plays with
type VoiceResponse struct {
	entities.Voice
	ProviderVoice string `json:"provider_voice"`
}

type VoicesResponse struct {
	Voices []VoiceResponse `json:"voices"`
}

type TranscriptionsResponse struct {
	Transcriptions []*entities.TranscriptionRecord `json:"transcriptions"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
