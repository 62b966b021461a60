package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the speech service.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Log            LogConfig            `mapstructure:"log"`
	Gemini         GeminiConfig         `mapstructure:"gemini"`
	TTS            TTSConfig            `mapstructure:"tts"`
	ElevenLabs     ElevenLabsConfig     `mapstructure:"elevenlabs"`
	STT            STTConfig            `mapstructure:"stt"`
	Mongo          MongoConfig          `mapstructure:"mongo"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Transcriptions TranscriptionsConfig `mapstructure:"transcriptions"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	BodyLimitMB     int           `mapstructure:"body_limit_mb"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	SpeechModel string        `mapstructure:"speech_model"`
	TextModel   string        `mapstructure:"text_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type TTSConfig struct {
	Provider string `mapstructure:"provider"`
}

type ElevenLabsConfig struct {
	APIKey    string            `mapstructure:"api_key"`
	BaseURL   string            `mapstructure:"base_url"`
	VoiceID   string            `mapstructure:"voice_id"`
	ModelID   string            `mapstructure:"model_id"`
	Stability float64           `mapstructure:"stability"`
	Clarity   float64           `mapstructure:"clarity"`
	Voices    map[string]string `mapstructure:"voices"`
}

type STTConfig struct {
	Provider string `mapstructure:"provider"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// Clients is a comma separated list of client_id:secret pairs
	Clients string `mapstructure:"clients"`
}

type TranscriptionsConfig struct {
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	HistoryLimit    int           `mapstructure:"history_limit"`
}

const (
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderGoogle     = "google"
	ProviderMock       = "mock"
)

// Options controls where configuration is read from.
type Options struct {
	EnvFile    string
	ConfigFile string
}

// Load reads .env, an optional aispeech.yaml and AISPEECH_* variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else if cfg := os.Getenv("AISPEECH_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
		explicitFile = true
	}

	if !explicitFile {
		v.SetConfigName("aispeech")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("AISPEECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyLegacyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 25)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.speech_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("gemini.text_model", "gemini-3-flash-preview")
	v.SetDefault("gemini.timeout", "60s")

	v.SetDefault("tts.provider", ProviderGemini)

	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.base_url", "")
	v.SetDefault("elevenlabs.voice_id", "")
	v.SetDefault("elevenlabs.model_id", "")
	v.SetDefault("elevenlabs.stability", 0.0)
	v.SetDefault("elevenlabs.clarity", 0.0)

	v.SetDefault("stt.provider", ProviderMock)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "aispeech")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.clients", "")

	v.SetDefault("transcriptions.retention", "720h")
	v.SetDefault("transcriptions.cleanup_interval", "30m")
	v.SetDefault("transcriptions.history_limit", 50)
}

// applyLegacyEnv honours the key names the browser build used.
func (c *Config) applyLegacyEnv() {
	if c.Gemini.APIKey != "" {
		return
	}
	for _, key := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			c.Gemini.APIKey = val
			return
		}
	}
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, errors.New("server.body_limit_mb must be positive"))
	}

	switch c.TTS.Provider {
	case ProviderGemini:
	case ProviderElevenLabs:
		if c.ElevenLabs.APIKey == "" {
			errs = append(errs, errors.New("elevenlabs.api_key is required when tts.provider is elevenlabs"))
		}
	default:
		errs = append(errs, fmt.Errorf("tts.provider must be %q or %q, got %q", ProviderGemini, ProviderElevenLabs, c.TTS.Provider))
	}

	switch c.STT.Provider {
	case ProviderGoogle, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("stt.provider must be %q or %q, got %q", ProviderGoogle, ProviderMock, c.STT.Provider))
	}

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if _, err := c.Auth.ClientSecrets(); err != nil {
		errs = append(errs, err)
	}

	if c.Transcriptions.Retention <= 0 {
		errs = append(errs, errors.New("transcriptions.retention must be positive"))
	}
	if c.Transcriptions.CleanupInterval <= 0 {
		errs = append(errs, errors.New("transcriptions.cleanup_interval must be positive"))
	}

	return errors.Join(errs...)
}

// ClientSecrets parses Clients into client_id -> secret.
func (a AuthConfig) ClientSecrets() (map[string]string, error) {
	clients := make(map[string]string)
	if strings.TrimSpace(a.Clients) == "" {
		return clients, nil
	}

	for _, pair := range strings.Split(a.Clients, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, secret, ok := strings.Cut(pair, ":")
		if !ok || id == "" || secret == "" {
			return nil, fmt.Errorf("auth.clients entry %q must be client_id:secret", pair)
		}
		clients[id] = secret
	}
	return clients, nil
}
