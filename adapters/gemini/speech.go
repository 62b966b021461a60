package gemini

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
)

// GenerateSpeech synthesizes text with the provider voice mapped from
// voiceName and returns base64 PCM (24 kHz, 16-bit, mono). Single attempt.
func (c *Client) GenerateSpeech(ctx context.Context, text, voiceName string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyText
	}

	providerVoice := ResolveVoice(voiceName)

	c.logger.Info("Generating speech",
		zap.String("model", c.speechModel),
		zap.String("voiceName", voiceName),
		zap.String("providerVoice", providerVoice),
		zap.Int("textLength", len([]rune(text))))

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: providerVoice,
				},
			},
		},
	}

	resp, err := c.generate(ctx, c.speechModel, contents, config)
	if err != nil {
		return "", c.handleAPIError(err, "TTS generation")
	}

	encoded, err := extractAudio(resp)
	if err != nil {
		c.logger.Warn("Speech response rejected", zap.Error(err))
		return "", err
	}

	return encoded, nil
}

// extractAudio pulls the inline audio out of the first candidate, mapping
// the finish reason to a typed error when there is none.
func extractAudio(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", domain.ErrNoContentReturned
	}

	candidate := resp.Candidates[0]

	var refusal strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return audio.EncodeBase64(part.InlineData.Data), nil
			}
			refusal.WriteString(part.Text)
		}
	}

	switch candidate.FinishReason {
	case genai.FinishReasonSafety:
		return "", domain.ErrSafetyBlocked
	case genai.FinishReasonRecitation:
		return "", domain.ErrRecitationBlocked
	}

	if text := strings.TrimSpace(refusal.String()); text != "" {
		return "", domain.NewRefusal(text)
	}

	return "", domain.ErrMalformedResponse
}
