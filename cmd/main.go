package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/gemini"
	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/memory"
	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/mongo"
	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/stt"
	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/tts"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/api"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/auth"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/config"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/websocket"
	"github.com/mattyyyyyyy/JDO-AISPEECH/usecase"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (yaml, json or toml)")
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(config.Options{EnvFile: *envFile, ConfigFile: *configFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		SpeechModel: cfg.Gemini.SpeechModel,
		TextModel:   cfg.Gemini.TextModel,
		Timeout:     cfg.Gemini.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}

	synthesizer, resolveVoice, err := newSynthesizer(cfg, geminiClient, logger)
	if err != nil {
		logger.Fatal("Failed to create speech synthesizer", zap.Error(err))
	}

	speechToText := newSpeechToText(cfg.STT, logger)

	transcriptionRepo, closeRepo, err := newTranscriptionRepository(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("Failed to create transcription repository", zap.Error(err))
	}
	defer closeRepo()

	clientSecrets, err := cfg.Auth.ClientSecrets()
	if err != nil {
		logger.Fatal("Invalid auth clients", zap.Error(err))
	}
	clients := memory.NewClientRepository(clientSecrets)
	if clients.Len() == 0 {
		logger.Warn("No API clients configured; token issuance will always fail")
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to create token issuer", zap.Error(err))
	}

	// Initialize usecase services
	speechService := usecase.NewSpeechService(synthesizer, logger)
	translationService := usecase.NewTranslationService(geminiClient, logger)
	diarizationService := usecase.NewDiarizationService(geminiClient, logger)
	transcriptionService := usecase.NewTranscriptionService(speechToText, transcriptionRepo, cfg.Transcriptions.HistoryLimit, logger)

	retention := usecase.NewTranscriptionRetentionService(
		transcriptionRepo,
		cfg.Transcriptions.Retention,
		cfg.Transcriptions.CleanupInterval,
		logger,
	)
	retention.Start()
	defer retention.Stop()

	// Initialize WebSocket hub for live transcription
	hub := websocket.NewHub(transcriptionService, cfg.Server.AllowedOrigins, logger)
	go hub.Run(ctx)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(api.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.AllowedOrigins}))
	e.Use(middleware.BodyLimit(api.BodyLimit(cfg.Server.BodyLimitMB)))

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Speech:         speechService,
		Translation:    translationService,
		Diarization:    diarizationService,
		Transcriptions: transcriptionService,
		Clients:        clients,
		Issuer:         issuer,
		Hub:            hub,
		ResolveVoice:   resolveVoice,
	}, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.Server.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.String("ttsProvider", cfg.TTS.Provider),
		zap.String("sttProvider", cfg.STT.Provider))

	<-ctx.Done()

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// hijacked sockets are not covered by Shutdown
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		logger.Warn("Live transcriptions still open at exit", zap.Int("clients", hub.ClientCount()))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = level
	}

	return zapCfg.Build()
}

// newSynthesizer picks the TTS provider and the voice mapping that goes with it
func newSynthesizer(cfg *config.Config, geminiClient *gemini.Client, logger *zap.Logger) (repositories.SpeechSynthesizer, func(string) string, error) {
	switch cfg.TTS.Provider {
	case config.ProviderElevenLabs:
		el, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabs.APIKey,
			APIBaseURL: cfg.ElevenLabs.BaseURL,
			VoiceID:    cfg.ElevenLabs.VoiceID,
			Voices:     cfg.ElevenLabs.Voices,
			ModelID:    cfg.ElevenLabs.ModelID,
			Stability:  cfg.ElevenLabs.Stability,
			Clarity:    cfg.ElevenLabs.Clarity,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return el, el.ResolveVoice, nil
	default:
		return geminiClient, gemini.ResolveVoice, nil
	}
}

func newSpeechToText(cfg config.STTConfig, logger *zap.Logger) repositories.SpeechToText {
	if cfg.Provider == config.ProviderGoogle {
		return stt.NewGoogleSpeechToText(logger)
	}
	logger.Info("Using mock speech-to-text")
	return stt.NewMockSpeechToText(logger)
}

// newTranscriptionRepository uses MongoDB when a URI is configured and
// falls back to process memory otherwise
func newTranscriptionRepository(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (repositories.TranscriptionRepository, func(), error) {
	if cfg.URI == "" {
		logger.Warn("MongoDB URI not set; transcription history is kept in memory")
		return memory.NewTranscriptionRepository(), func() {}, nil
	}

	client, err := mongo.NewClient(ctx, mongo.Config{URI: cfg.URI, Database: cfg.Database}, logger)
	if err != nil {
		return nil, nil, err
	}

	repo, err := mongo.NewTranscriptionRepository(ctx, client.Database, logger)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, nil, err
	}

	return repo, func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Error("Failed to close MongoDB client", zap.Error(err))
		}
	}, nil
}
