// Command wsclient streams a WAV file to the live transcription socket and
// prints what the server sends back.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/api"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "server base URL")
	clientID := flag.String("client", "web", "API client ID")
	secret := flag.String("secret", os.Getenv("AISPEECH_CLIENT_SECRET"), "API client secret")
	wavPath := flag.String("wav", "", "16-bit mono WAV file to stream (silence when empty)")
	language := flag.String("lang", "zh-CN", "recognition language")
	chunkMs := flag.Int("chunk-ms", 100, "audio per frame in milliseconds")
	flag.Parse()

	// Step 1: Get authentication token
	fmt.Println("Step 1: Getting authentication token...")
	token, err := fetchToken(*serverURL, *clientID, *secret)
	if err != nil {
		log.Fatalf("Failed to authenticate client: %v", err)
	}
	fmt.Printf("✓ Authentication successful. Token: %s...\n", token[:20])

	pcm, sampleRate, err := loadAudio(*wavPath)
	if err != nil {
		log.Fatalf("Failed to load audio: %v", err)
	}

	// Step 2: Connect to WebSocket with token
	fmt.Println("Step 2: Connecting to WebSocket with token...")
	base, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}
	wsURL := url.URL{Scheme: strings.Replace(base.Scheme, "http", "ws", 1), Host: base.Host, Path: "/ws"}
	q := wsURL.Query()
	q.Set("token", token)
	wsURL.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			log.Fatalf("WebSocket connection failed with status %d: %v", resp.StatusCode, err)
		}
		log.Fatalf("WebSocket connection failed: %v", err)
	}
	defer conn.Close()
	fmt.Println("✓ WebSocket connection successful!")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg["type"] {
			case "transcript":
				fmt.Printf("… %v\n", msg["text"])
			case "transcription":
				fmt.Printf("✓ Final (%v, %vms): %v\n", msg["status"], msg["duration_ms"], msg["text"])
				return
			case "error":
				fmt.Printf("✗ %v: %v (%v)\n", msg["error_code"], msg["message"], msg["details"])
			default:
				fmt.Printf("← %v\n", msg["type"])
			}
		}
	}()

	// Step 3: Stream audio
	fmt.Println("Step 3: Streaming audio...")
	if err := conn.WriteJSON(map[string]interface{}{
		"type":        "listening_start",
		"sample_rate": sampleRate,
		"language":    *language,
		"encoding":    "LINEAR16",
	}); err != nil {
		log.Fatalf("Failed to send listening_start: %v", err)
	}

	chunkBytes := sampleRate * 2 * *chunkMs / 1000
	if chunkBytes <= 0 {
		chunkBytes = 3200
	}
	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			log.Fatalf("Failed to send audio: %v", err)
		}
		time.Sleep(time.Duration(*chunkMs) * time.Millisecond)
	}

	if err := conn.WriteJSON(map[string]string{"type": "listening_end"}); err != nil {
		log.Fatalf("Failed to send listening_end: %v", err)
	}

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Fatal("Timed out waiting for the transcription")
	}
}

func fetchToken(serverURL, clientID, secret string) (string, error) {
	body, _ := json.Marshal(api.TokenRequest{ClientID: clientID, ClientSecret: secret})

	resp, err := http.Post(serverURL+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication failed with status %d", resp.StatusCode)
	}

	var tokenResp api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	return tokenResp.Token, nil
}

// loadAudio returns PCM and its rate. Without a file it yields three
// seconds of 16 kHz silence.
func loadAudio(path string) ([]byte, int, error) {
	if path == "" {
		return make([]byte, 16000*2*3), 16000, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	header, err := audio.DecodeWAVHeader(data)
	if err != nil {
		return nil, 0, err
	}
	if header.Channels != 1 || header.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("need 16-bit mono audio, got %d channels at %d bits", header.Channels, header.BitsPerSample)
	}

	return data[audio.WAVHeaderSize:], int(header.SampleRate), nil
}
