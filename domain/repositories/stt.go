package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// InitTranscribeStreaming opens a live recognition session
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// DefaultAudioConfig matches what the browser recorder sends
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   "zh-CN",
	}
}

// SpeechToTextStreaming receives audio chunks until End returns the final text.
// Interim returns the text recognized so far without closing the stream.
// End gives up waiting for the recognizer once ctx is done.
type SpeechToTextStreaming interface {
	Stream(data []byte) error
	Interim() string
	End(ctx context.Context) (string, error)
}
