package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/metrics"
	"github.com/mattyyyyyyy/JDO-AISPEECH/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	// Time allowed to finish a recognition stream.
	sessionTimeout = 30 * time.Second
)

// Hub maintains the set of connected live transcription clients.
type Hub struct {
	// Registered clients, by connection ID.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// quit is closed when the hub stops accepting clients, stopped once
	// every client has unregistered.
	quit    chan struct{}
	stopped chan struct{}

	mu sync.RWMutex

	transcriptions *usecase.TranscriptionService
	validator      *MessageValidator
	upgrader       websocket.Upgrader

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. allowedOrigins may contain "*".
func NewHub(transcriptions *usecase.TranscriptionService, allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:        make(map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		quit:           make(chan struct{}),
		stopped:        make(chan struct{}),
		transcriptions: transcriptions,
		validator:      NewMessageValidator(),
		logger:         logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     originChecker(allowedOrigins),
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}
		return set[origin]
	}
}

// Run starts the hub's main loop. When ctx is done it closes every
// connection and returns after their recordings have been stored.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.drain()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			metrics.ActiveConnections.Inc()
			h.logger.Info("Client registered",
				zap.String("connectionID", client.id),
				zap.String("ownerID", client.ownerID))

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// drain closes all connections and waits for each read pump to unregister
func (h *Hub) drain() {
	close(h.quit)

	h.mu.RLock()
	remaining := len(h.clients)
	for _, client := range h.clients {
		if client.conn != nil {
			client.conn.Close()
		}
	}
	h.mu.RUnlock()

	h.logger.Info("Hub shutting down", zap.Int("clients", remaining))

	for h.ClientCount() > 0 {
		h.remove(<-h.unregister)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
		close(client.send)
		metrics.ActiveConnections.Dec()
	}
	h.mu.Unlock()
	h.logger.Info("Client unregistered", zap.String("connectionID", client.id))
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

// ClientCount reports the number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id      string
	ownerID string

	logger *zap.Logger

	mutex          sync.Mutex
	session        *usecase.TranscriptionSession
	lastTranscript string
}

// HandleWebSocketWithAuth upgrades the request for an authenticated owner
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, ownerID string, logger *zap.Logger) error {
	conn, err := hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan WriteData, 256),
		id:      uuid.New().String(),
		ownerID: ownerID,
		logger:  logger.With(zap.String("ownerID", ownerID)),
	}

	select {
	case hub.register <- client:
	case <-hub.quit:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.abandonSession()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		// any frame from the peer proves liveness
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues v for the write pump. Only the read goroutine sends,
// so the channel is never closed underneath it.
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message")
	}
}

func (c *Client) sendError(code, message, details string) {
	c.sendJSON(CreateErrorMessage(code, message, details))
}

// processMessage processes incoming control messages
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendError(ErrCodeInvalidMessage, "Invalid message", err.Error())
		return
	}

	switch m := msg.(type) {
	case *ListeningStartMessage:
		c.handleListeningStart(m)
	case *ListeningEndMessage:
		c.handleListeningEnd()
	case *PingMessage:
		c.sendJSON(CreatePongMessage(m.Data))
	}
}

// handleListeningStart opens a recognition session
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session != nil {
		c.sendError(ErrCodeAlreadyListening, "A recording is already in progress", "")
		return
	}

	config := repositories.AudioConfig{
		SampleRate: msg.SampleRate,
		Language:   msg.Language,
		Encoding:   msg.Encoding,
	}

	// the recognizer stream is bound to the connection, not to this handler
	session, err := c.hub.transcriptions.StartSession(context.Background(), c.ownerID, config)
	if err != nil {
		c.logger.Error("Failed to initialize streaming transcription", zap.Error(err))
		c.sendError(ErrCodeStartFailed, "Failed to start transcription", err.Error())
		return
	}

	c.session = session
	c.lastTranscript = ""

	defaults := repositories.DefaultAudioConfig()
	if config.SampleRate == 0 {
		config.SampleRate = defaults.SampleRate
	}
	if config.Language == "" {
		config.Language = defaults.Language
	}
	if config.Encoding == "" {
		config.Encoding = defaults.Encoding
	}

	c.sendJSON(&ListeningStartedMessage{
		BaseMessage:   newBase(MessageTypeListeningStart),
		SampleRate:    config.SampleRate,
		Language:      config.Language,
		Encoding:      config.Encoding,
		MaxDurationMs: entities.MaxRecordingDuration.Milliseconds(),
	})

	c.logger.Info("Audio session started")
}

// processBinaryAudioChunk forwards PCM to the open session
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session == nil {
		c.sendError(ErrCodeNotListening, "Send listening_start before audio", "")
		return
	}

	limitReached, err := c.session.Write(data)
	if err != nil {
		c.logger.Error("Failed to stream audio data", zap.Error(err))
		c.sendError(ErrCodeStreamFailed, "Failed to process audio", err.Error())
		return
	}

	if text := c.session.Interim(); text != c.lastTranscript {
		c.lastTranscript = text
		c.sendJSON(&TranscriptMessage{
			BaseMessage: newBase(MessageTypeTranscript),
			Text:        text,
			DurationMs:  c.session.Duration().Milliseconds(),
		})
	}

	if limitReached {
		c.sendJSON(&LimitReachedMessage{
			BaseMessage: newBase(MessageTypeLimitReached),
			DurationMs:  entities.MaxRecordingDuration.Milliseconds(),
		})
		c.finishLocked()
	}
}

// handleListeningEnd closes the session and returns the stored result
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session == nil {
		c.sendError(ErrCodeNotListening, "No recording in progress", "")
		return
	}

	c.finishLocked()
}

// finishLocked must be called with c.mutex held
func (c *Client) finishLocked() {
	session := c.session
	c.session = nil

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()

	record, err := c.hub.transcriptions.Finish(ctx, session)
	if err != nil {
		c.logger.Error("Failed to end transcription stream", zap.Error(err))
		// a stored failure is referenced by ID so it can be fetched later
		details := err.Error()
		if record != nil {
			details = record.ID
		}
		c.sendError(ErrCodeTranscriptionError, "Transcription failed", details)
		return
	}

	c.sendJSON(&TranscriptionMessage{
		BaseMessage: newBase(MessageTypeTranscription),
		ID:          record.ID,
		Text:        record.Text,
		DurationMs:  record.DurationMs,
		Status:      string(record.Status),
	})

	c.logger.Info("Transcription completed",
		zap.String("transcriptionID", record.ID),
		zap.Int64("durationMs", record.DurationMs))
}

// abandonSession stores whatever was recognized when the peer disconnects
// mid-recording
func (c *Client) abandonSession() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session == nil {
		return
	}

	session := c.session
	c.session = nil

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()

	if _, err := c.hub.transcriptions.Finish(ctx, session); err != nil {
		c.logger.Warn("Recording abandoned without result", zap.Error(err))
	}
}
