// Command ttsdemo synthesizes one sentence and saves it as a WAV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/gemini"
	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/tts"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/usecase"
)

func main() {
	provider := flag.String("provider", "gemini", "gemini or elevenlabs")
	text := flag.String("text", "你好！这是一段语音合成的演示。", "text to speak")
	voice := flag.String("voice", "温润男声", "catalog voice name")
	out := flag.String("out", "speech.wav", "output WAV file")
	showVoices := flag.Bool("voices", false, "list ElevenLabs voices")
	flag.Parse()

	_ = godotenv.Load()

	// Create logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var synthesizer repositories.SpeechSynthesizer
	switch *provider {
	case "elevenlabs":
		el, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{APIKey: os.Getenv("ELEVEN_LABS_API_KEY")}, logger)
		if err != nil {
			logger.Fatal("Failed to create TTS service", zap.Error(err))
		}
		if *showVoices {
			listVoices(ctx, el)
		}
		synthesizer = el
	default:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("API_KEY")
		}
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: apiKey}, logger)
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		synthesizer = client
	}

	speech := usecase.NewSpeechService(synthesizer, logger)

	logger.Info("Converting text to speech", zap.String("text", *text), zap.String("voice", *voice))

	wav, err := speech.Synthesize(ctx, entities.SpeechRequest{Text: *text, VoiceName: *voice})
	if err != nil {
		logger.Fatal("Failed to convert text to speech", zap.Error(err))
	}

	if err := os.WriteFile(*out, wav.Data, 0o644); err != nil {
		logger.Fatal("Failed to write output file", zap.Error(err))
	}

	fmt.Printf("✅ Audio saved to %s (%d bytes, %d Hz)\n", *out, len(wav.Data), wav.SampleRate)

	if os.Getenv("NO_AUTOPLAY") != "true" {
		if err := play(*out, logger); err != nil {
			fmt.Printf("⚠️  Could not auto-play audio: %v\n", err)
		}
	}
}

func listVoices(ctx context.Context, el *tts.ElevenLabsTTS) {
	voices, err := el.GetAvailableVoices(ctx)
	if err != nil {
		fmt.Printf("⚠️  Failed to get available voices: %v\n", err)
		return
	}

	fmt.Printf("\n📢 Available voices (%d):\n", len(voices))
	for i, v := range voices {
		if i >= 10 {
			fmt.Printf("... and %d more voices\n", len(voices)-10)
			break
		}
		fmt.Printf("  - %s (ID: %s, %s)\n", v.Name, v.VoiceID, v.Category)
	}
}

// play tries the common command line players in order
func play(path string, logger *zap.Logger) error {
	players := [][]string{
		{"afplay"},
		{"aplay"},
		{"play"},
		{"ffplay", "-nodisp", "-autoexit"},
	}

	for _, p := range players {
		if _, err := exec.LookPath(p[0]); err != nil {
			continue
		}
		args := append(p[1:], path)
		if err := exec.Command(p[0], args...).Run(); err != nil {
			logger.Debug("Player failed", zap.String("player", p[0]), zap.Error(err))
			continue
		}
		return nil
	}

	return fmt.Errorf("no suitable audio player found")
}
