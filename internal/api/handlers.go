package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/auth"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/websocket"
	"github.com/mattyyyyyyy/JDO-AISPEECH/usecase"
)

// ClientValidator checks API client credentials
type ClientValidator interface {
	ValidateClient(clientID, secret string) error
}

// Handler serves the HTTP API
type Handler struct {
	speech         *usecase.SpeechService
	translation    *usecase.TranslationService
	diarization    *usecase.DiarizationService
	transcriptions *usecase.TranscriptionService
	clients        ClientValidator
	issuer         *auth.Issuer
	hub            *websocket.Hub
	resolveVoice   func(string) string
	logger         *zap.Logger
}

// Dependencies groups what the handlers need
type Dependencies struct {
	Speech         *usecase.SpeechService
	Translation    *usecase.TranslationService
	Diarization    *usecase.DiarizationService
	Transcriptions *usecase.TranscriptionService
	Clients        ClientValidator
	Issuer         *auth.Issuer
	Hub            *websocket.Hub
	// ResolveVoice maps a display name to the active provider's voice
	ResolveVoice func(string) string
}

func newHandler(deps Dependencies, logger *zap.Logger) *Handler {
	resolve := deps.ResolveVoice
	if resolve == nil {
		resolve = func(name string) string { return name }
	}
	return &Handler{
		speech:         deps.Speech,
		translation:    deps.Translation,
		diarization:    deps.Diarization,
		transcriptions: deps.Transcriptions,
		clients:        deps.Clients,
		issuer:         deps.Issuer,
		hub:            deps.Hub,
		resolveVoice:   resolve,
		logger:         logger,
	}
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "aispeech",
	})
}

func (h *Handler) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind token request", zap.Error(err))
		return badRequest(c, "Invalid request format")
	}

	if req.ClientID == "" || req.ClientSecret == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "client_id and client_secret are required",
		})
	}

	if err := h.clients.ValidateClient(req.ClientID, req.ClientSecret); err != nil {
		h.logger.Warn("Client authentication failed",
			zap.String("clientID", req.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid client credentials",
		})
	}

	token, expiresAt, err := h.issuer.GenerateClientToken(req.ClientID)
	if err != nil {
		h.logger.Error("Failed to generate client token",
			zap.String("clientID", req.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	h.logger.Info("Client authenticated successfully", zap.String("clientID", req.ClientID))

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		ExpiresIn: int64(h.issuer.TTL().Seconds()),
		ClientID:  req.ClientID,
	})
}

func (h *Handler) listVoices(c echo.Context) error {
	catalog := entities.VoiceCatalog()
	voices := make([]VoiceResponse, 0, len(catalog))
	for _, v := range catalog {
		voices = append(voices, VoiceResponse{Voice: v, ProviderVoice: h.resolveVoice(v.Name)})
	}
	return c.JSON(http.StatusOK, VoicesResponse{Voices: voices})
}

func (h *Handler) synthesize(c echo.Context) error {
	var req TTSRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = FormatWAV
	}
	if format != FormatWAV && format != FormatBase64 {
		return badRequest(c, "format must be wav or base64")
	}

	wav, err := h.speech.Synthesize(c.Request().Context(), entities.SpeechRequest{
		Text:      req.Text,
		VoiceName: req.VoiceName,
	})
	if err != nil {
		return providerError(c, err, h.logger)
	}

	providerVoice := h.resolveVoice(req.VoiceName)
	var voice *entities.Voice
	if v, ok := entities.FindVoice(req.VoiceName); ok {
		voice = &v
	}

	if format == FormatBase64 {
		return c.JSON(http.StatusOK, TTSResponse{
			AudioBase64:   audio.EncodeBase64(wav.Data),
			MIMEType:      wav.MIMEType,
			SampleRate:    wav.SampleRate,
			Voice:         voice,
			ProviderVoice: providerVoice,
		})
	}

	header := c.Response().Header()
	header.Set("Content-Disposition", `inline; filename="speech.wav"`)
	header.Set(HeaderProviderVoice, providerVoice)
	if voice != nil {
		header.Set(HeaderVoiceID, voice.ID)
	}
	return c.Blob(http.StatusOK, wav.MIMEType, wav.Data)
}

func (h *Handler) translate(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	text, err := h.translation.Translate(c.Request().Context(), entities.TranslationRequest{
		Text:           req.Text,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		return providerError(c, err, h.logger)
	}

	return c.JSON(http.StatusOK, TranslateResponse{Text: text})
}

func (h *Handler) diarize(c echo.Context) error {
	var req DiarizeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	segments, err := h.diarization.Analyze(c.Request().Context(), req.AudioBase64, req.MIMEType)
	if err != nil {
		return providerError(c, err, h.logger)
	}
	if segments == nil {
		segments = []entities.SpeakerSegment{}
	}

	return c.JSON(http.StatusOK, DiarizeResponse{Segments: segments})
}

func (h *Handler) listTranscriptions(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}

	records, err := h.transcriptions.History(c.Request().Context(), ClientID(c), limit)
	if err != nil {
		h.logger.Error("Failed to list transcriptions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load transcriptions",
		})
	}
	if records == nil {
		records = []*entities.TranscriptionRecord{}
	}

	return c.JSON(http.StatusOK, TranscriptionsResponse{Transcriptions: records})
}

func (h *Handler) getTranscription(c echo.Context) error {
	record, err := h.transcriptions.Get(c.Request().Context(), ClientID(c), c.Param("id"))
	if errors.Is(err, repositories.ErrTranscriptionNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Transcription not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to load transcription", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load transcription",
		})
	}

	return c.JSON(http.StatusOK, record)
}

// liveTranscription upgrades an authenticated request to the ASR socket
func (h *Handler) liveTranscription(c echo.Context) error {
	clientID := ClientID(c)

	h.logger.Info("WebSocket connection authenticated", zap.String("clientID", clientID))

	return websocket.HandleWebSocketWithAuth(h.hub, c, clientID, h.logger)
}
