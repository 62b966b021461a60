package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/metrics"
)

// TranslationService translates text for the UI
type TranslationService struct {
	translator repositories.Translator
	logger     *zap.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(translator repositories.Translator, logger *zap.Logger) *TranslationService {
	return &TranslationService{translator: translator, logger: logger}
}

// Translate returns req.Text in req.TargetLanguage
func (s *TranslationService) Translate(ctx context.Context, req entities.TranslationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", domain.Invalid(err)
	}

	start := time.Now()
	translated, err := s.translator.TranslateContent(ctx, req.Text, req.TargetLanguage)
	observe(metrics.OpTranslate, start, err)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Text translated",
		zap.String("targetLanguage", req.TargetLanguage),
		zap.Int("inputLength", len([]rune(req.Text))),
		zap.Int("outputLength", len([]rune(translated))))

	return translated, nil
}
