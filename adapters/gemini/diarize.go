package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
)

const diarizationPrompt = `Analyze this audio. Format output as JSON array of objects: {"speaker": "Speaker 1", "text": "...", "startTime": 0, "endTime": 1}`

// AnalyzeConversation asks the model to transcribe audio per speaker.
func (c *Client) AnalyzeConversation(ctx context.Context, audioData []byte, mimeType string) ([]entities.SpeakerSegment, error) {
	if len(audioData) == 0 {
		return nil, errors.New("audio cannot be empty")
	}

	c.logger.Info("Analyzing conversation",
		zap.String("model", c.textModel),
		zap.String("mimeType", mimeType),
		zap.Int("audioBytes", len(audioData)))

	parts := []*genai.Part{
		genai.NewPartFromBytes(audioData, mimeType),
		genai.NewPartFromText(diarizationPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := c.generate(ctx, c.textModel, contents, config)
	if err != nil {
		return nil, c.handleAPIError(err, "Diarization")
	}

	segments, err := parseSegments(responseText(resp))
	if err != nil {
		c.logger.Warn("Failed to decode diarization result", zap.Error(err))
		return nil, domain.ErrMalformedResponse.Wrap(err)
	}

	c.logger.Info("Conversation analyzed", zap.Int("segments", len(segments)))
	return segments, nil
}

// parseSegments decodes the model's JSON array; an empty reply is no segments.
func parseSegments(text string) ([]entities.SpeakerSegment, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return []entities.SpeakerSegment{}, nil
	}

	segments := []entities.SpeakerSegment{}
	if err := json.Unmarshal([]byte(text), &segments); err != nil {
		return nil, err
	}
	return segments, nil
}
