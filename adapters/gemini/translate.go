package gemini

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const translatePrompt = "Translate the following text into %s. Return ONLY the translated text. Text: %s"

// TranslateContent returns text translated into targetLanguage. An empty
// model reply yields the original text rather than an error.
func (c *Client) TranslateContent(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	c.logger.Info("Translating content",
		zap.String("model", c.textModel),
		zap.String("targetLanguage", targetLanguage),
		zap.Int("textLength", len([]rune(text))))

	prompt := fmt.Sprintf(translatePrompt, targetLanguage, text)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generate(ctx, c.textModel, contents, nil)
	if err != nil {
		return "", c.handleAPIError(err, "Translation")
	}

	translated := strings.TrimSpace(responseText(resp))
	if translated == "" {
		c.logger.Warn("Empty translation, returning original text")
		return text, nil
	}

	return translated, nil
}
