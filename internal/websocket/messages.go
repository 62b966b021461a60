package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeTranscript     MessageType = "transcript"
	MessageTypeTranscription  MessageType = "transcription"
	MessageTypeLimitReached   MessageType = "limit_reached"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
	MessageTypeError          MessageType = "error"
)

// Error codes sent in ErrorMessage
const (
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeAlreadyListening   = "already_listening"
	ErrCodeNotListening       = "not_listening"
	ErrCodeStartFailed        = "start_failed"
	ErrCodeStreamFailed       = "stream_failed"
	ErrCodeTranscriptionError = "transcription_failed"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// ListeningStartMessage opens a recognition session. Binary frames that
// follow carry raw PCM in the announced format.
type ListeningStartMessage struct {
	BaseMessage
	SampleRate int    `json:"sample_rate,omitempty"`
	Language   string `json:"language,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

// ListeningEndMessage closes the current recognition session
type ListeningEndMessage struct {
	BaseMessage
}

// ListeningStartedMessage acknowledges listening_start
type ListeningStartedMessage struct {
	BaseMessage
	SampleRate    int    `json:"sample_rate"`
	Language      string `json:"language"`
	Encoding      string `json:"encoding"`
	MaxDurationMs int64  `json:"max_duration_ms"`
}

// TranscriptMessage carries interim text while audio is still arriving
type TranscriptMessage struct {
	BaseMessage
	Text       string `json:"text"`
	DurationMs int64  `json:"duration_ms"`
}

// TranscriptionMessage carries the final, stored result
type TranscriptionMessage struct {
	BaseMessage
	ID         string `json:"id"`
	Text       string `json:"text"`
	DurationMs int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

// LimitReachedMessage tells the client the recording was cut at the cap
type LimitReachedMessage struct {
	BaseMessage
	DurationMs int64 `json:"duration_ms"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming control message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening_start message: %w", err)
		}
		if err := v.validateListeningStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeListeningEnd:
		return &ListeningEndMessage{BaseMessage: base}, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	case "":
		return nil, fmt.Errorf("message type is required")

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateListeningStart checks the optional audio format fields
func (v *MessageValidator) validateListeningStart(msg *ListeningStartMessage) error {
	if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}

	// binary frames are raw samples, so only PCM encodings make sense
	if msg.Encoding != "" && msg.Encoding != "LINEAR16" {
		return fmt.Errorf("encoding must be LINEAR16")
	}

	return nil
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: newBase(MessageTypePong),
		Data:        data,
	}
}
