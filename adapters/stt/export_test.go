package stt

import (
	"context"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
)

func ApplyResultsForTest(g *GoogleSpeechToTextStream, results []*speechpb.StreamingRecognitionResult) {
	g.applyResults(results)
}

// NewStreamForTest wraps stream as if audio had already been sent
func NewStreamForTest(stream speechpb.Speech_StreamingRecognizeClient, logger *zap.Logger) *GoogleSpeechToTextStream {
	return &GoogleSpeechToTextStream{
		stream:        stream,
		ctx:           context.Background(),
		logger:        logger,
		audioReceived: true,
		resultChan:    make(chan string, 1),
		errorChan:     make(chan error, 1),
	}
}
