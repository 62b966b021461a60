package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
)

const (
	defaultSpeechModel = "gemini-2.5-flash-preview-tts"
	defaultTextModel   = "gemini-3-flash-preview"
	defaultTimeout     = 60 * time.Second
)

// ContentGenerator is the slice of the genai Models service this adapter
// calls. *genai.Models satisfies it; tests substitute a fake.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ ContentGenerator = (*genai.Models)(nil)

// Config holds configuration for the Gemini adapter
// Optional fields with defaults:
// - SpeechModel: "gemini-2.5-flash-preview-tts"
// - TextModel: "gemini-3-flash-preview"
// - Timeout: 60s per call
type Config struct {
	APIKey      string
	BaseURL     string
	SpeechModel string
	TextModel   string
	Timeout     time.Duration
}

// Client implements speech generation, translation and diarization on
// top of one hosted Gemini model family.
type Client struct {
	models      ContentGenerator
	logger      *zap.Logger
	speechModel string
	textModel   string
	timeout     time.Duration
}

var (
	_ repositories.SpeechSynthesizer    = (*Client)(nil)
	_ repositories.Translator           = (*Client)(nil)
	_ repositories.ConversationAnalyzer = (*Client)(nil)
)

// NewClient creates the Gemini adapter. A missing API key does not fail
// here; every call then fails with an invalid credential error.
func NewClient(ctx context.Context, config Config, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		logger.Warn("Gemini API key is not configured; calls will fail with an invalid credential error")
		return NewClientWithGenerator(missingKeyGenerator{}, config, logger), nil
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
		logger.Info("Using custom Gemini base URL", zap.String("baseURL", config.BaseURL))
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewClientWithGenerator(client.Models, config, logger), nil
}

// NewClientWithGenerator wires the adapter onto an explicit transport
func NewClientWithGenerator(models ContentGenerator, config Config, logger *zap.Logger) *Client {
	speechModel := config.SpeechModel
	if speechModel == "" {
		speechModel = defaultSpeechModel
		logger.Info("Using default speech model", zap.String("model", speechModel))
	}

	textModel := config.TextModel
	if textModel == "" {
		textModel = defaultTextModel
		logger.Info("Using default text model", zap.String("model", textModel))
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		models:      models,
		logger:      logger,
		speechModel: speechModel,
		textModel:   textModel,
		timeout:     timeout,
	}
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.models.GenerateContent(ctx, model, contents, config)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text += part.Text
		}
	}
	return text
}

type missingKeyGenerator struct{}

func (missingKeyGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, domain.ErrInvalidCredential.Wrap(errors.New("gemini API key is not configured"))
}
