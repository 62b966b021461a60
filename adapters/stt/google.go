package stt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText uses application default credentials for each session
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	recognitionConfig := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(config.SampleRate),
		LanguageCode:               config.Language,
		EnableAutomaticPunctuation: true,
	}

	// Dictation can span several utterances, so interim results stay on and
	// the stream is only closed by the client.
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:         recognitionConfig,
				InterimResults: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	g.logger.Info("Google streaming recognition started",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	return &GoogleSpeechToTextStream{
		client:     client,
		stream:     stream,
		ctx:        ctx,
		logger:     g.logger,
		resultChan: make(chan string, 1),
		errorChan:  make(chan error, 1),
	}, nil
}

type GoogleSpeechToTextStream struct {
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	ctx    context.Context
	logger *zap.Logger

	mu             sync.Mutex
	audioReceived  bool
	receiverActive bool
	finalized      []string
	pending        string

	resultChan chan string
	errorChan  chan error
}

func (g *GoogleSpeechToTextStream) Stream(data []byte) error {
	g.mu.Lock()
	if !g.receiverActive {
		g.receiverActive = true
		go g.receiveResults()
	}
	if len(data) > 0 {
		g.audioReceived = true
	}
	g.mu.Unlock()

	if len(data) == 0 {
		return nil
	}

	if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}

	return nil
}

// Interim returns finalized segments plus the current unstable hypothesis
func (g *GoogleSpeechToTextStream) Interim() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strings.Join(append(append([]string{}, g.finalized...), g.pending), "")
}

func (g *GoogleSpeechToTextStream) End(ctx context.Context) (string, error) {
	defer g.cleanup()

	g.mu.Lock()
	audioReceived := g.audioReceived
	g.mu.Unlock()

	if !audioReceived {
		return "", fmt.Errorf("no audio data received")
	}

	if err := g.stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("gave up waiting for result: %w", ctx.Err())
	case <-g.ctx.Done():
		return "", fmt.Errorf("context cancelled while waiting for result: %w", g.ctx.Err())
	case err := <-g.errorChan:
		if err != nil {
			return "", err
		}
		// closed without error: the result is already buffered
		return finalResult(<-g.resultChan)
	case result := <-g.resultChan:
		return finalResult(result)
	}
}

func finalResult(result string) (string, error) {
	if result == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}
	return result, nil
}

func (g *GoogleSpeechToTextStream) receiveResults() {
	defer close(g.resultChan)
	defer close(g.errorChan)

	for {
		resp, err := g.stream.Recv()
		if err == io.EOF {
			g.mu.Lock()
			final := strings.Join(g.finalized, "")
			g.mu.Unlock()
			g.resultChan <- final
			return
		}
		if err != nil {
			g.errorChan <- fmt.Errorf("failed to receive response: %w", err)
			return
		}

		g.applyResults(resp.GetResults())
	}
}

func (g *GoogleSpeechToTextStream) applyResults(results []*speechpb.StreamingRecognitionResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pending = ""
	for _, result := range results {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		transcript := result.GetAlternatives()[0].GetTranscript()
		if result.GetIsFinal() {
			g.finalized = append(g.finalized, transcript)
			continue
		}
		g.pending += transcript
	}
}

func (g *GoogleSpeechToTextStream) cleanup() {
	if g.client != nil {
		if err := g.client.Close(); err != nil {
			g.logger.Warn("Failed to close speech client", zap.Error(err))
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
