package gemini

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
)

// handleAPIError logs err and normalizes region and credential failures.
// Anything else is returned unchanged.
func (c *Client) handleAPIError(err error, operation string) error {
	classified := classifyError(err)

	c.logger.Error("Gemini call failed",
		zap.String("operation", operation),
		zap.String("kind", string(domain.KindOf(classified))),
		zap.Error(err))

	return classified
}

// classifyError prefers the structured status code and only falls back to
// matching the message when the transport gave none.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	// already classified, e.g. by the missing-key transport
	if domain.KindOf(err) != "" {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		switch {
		case apiErr.Code == http.StatusForbidden || isRegionMessage(apiErr.Message):
			return domain.ErrRegionUnsupported.Wrap(err)
		case apiErr.Code == http.StatusUnauthorized || isCredentialMessage(apiErr.Message):
			return domain.ErrInvalidCredential.Wrap(err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case isRegionMessage(msg) || strings.Contains(msg, "403"):
		return domain.ErrRegionUnsupported.Wrap(err)
	case isCredentialMessage(msg):
		return domain.ErrInvalidCredential.Wrap(err)
	}

	return err
}

func isRegionMessage(msg string) bool {
	return strings.Contains(msg, "Region not supported") ||
		strings.Contains(msg, "location is not supported")
}

func isCredentialMessage(msg string) bool {
	return strings.Contains(msg, "API key")
}
