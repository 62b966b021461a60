package repositories

import (
	"context"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
)

// SpeechSynthesizer abstracts any text-to-speech provider. The returned
// audio is base64 16-bit little-endian mono PCM at the provider rate.
type SpeechSynthesizer interface {
	GenerateSpeech(ctx context.Context, text, voiceName string) (string, error)
}

// Translator translates free text into a named target language
type Translator interface {
	TranslateContent(ctx context.Context, text, targetLanguage string) (string, error)
}

// ConversationAnalyzer splits recorded audio into speaker segments
type ConversationAnalyzer interface {
	AnalyzeConversation(ctx context.Context, audio []byte, mimeType string) ([]entities.SpeakerSegment, error)
}
