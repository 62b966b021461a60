package entities

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxSpeechTextLength is the UI-level input limit, in characters.
const MaxSpeechTextLength = 5000

// SpeechRequest is a single synthesis request; never persisted.
type SpeechRequest struct {
	Text      string `json:"text"`
	VoiceName string `json:"voice_name"`
}

// Validate checks the request against the input limits.
func (r SpeechRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}
	if utf8.RuneCountInString(r.Text) > MaxSpeechTextLength {
		return errors.New("text must be at most 5000 characters")
	}
	return nil
}

// TranslationRequest asks for text in another language.
type TranslationRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

func (r TranslationRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}
	if strings.TrimSpace(r.TargetLanguage) == "" {
		return errors.New("target_language is required")
	}
	return nil
}

// SpeakerSegment is one diarized utterance, times in seconds.
type SpeakerSegment struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}
