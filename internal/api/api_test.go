package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/memory"
	"github.com/mattyyyyyyy/JDO-AISPEECH/adapters/stt"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/auth"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/websocket"
	"github.com/mattyyyyyyy/JDO-AISPEECH/usecase"
)

type stubProvider struct {
	audio    string
	text     string
	segments []entities.SpeakerSegment
	err      error
}

func (s *stubProvider) GenerateSpeech(ctx context.Context, text, voiceName string) (string, error) {
	return s.audio, s.err
}

func (s *stubProvider) TranslateContent(ctx context.Context, text, targetLanguage string) (string, error) {
	return s.text, s.err
}

func (s *stubProvider) AnalyzeConversation(ctx context.Context, data []byte, mimeType string) ([]entities.SpeakerSegment, error) {
	return s.segments, s.err
}

type testServer struct {
	echo   *echo.Echo
	issuer *auth.Issuer
	repo   *memory.TranscriptionRepository
}

func newTestServer(t *testing.T, provider *stubProvider) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	issuer, err := auth.NewIssuer("0123456789abcdef-test", time.Hour)
	require.NoError(t, err)

	repo := memory.NewTranscriptionRepository()
	transcriptions := usecase.NewTranscriptionService(stt.NewMockSpeechToText(logger), repo, 0, logger)

	e := echo.New()
	InitRoutes(e, Dependencies{
		Speech:         usecase.NewSpeechService(provider, logger),
		Translation:    usecase.NewTranslationService(provider, logger),
		Diarization:    usecase.NewDiarizationService(provider, logger),
		Transcriptions: transcriptions,
		Clients:        memory.NewClientRepository(map[string]string{"web": "s3cret"}),
		Issuer:         issuer,
		Hub:            websocket.NewHub(transcriptions, nil, logger),
		ResolveVoice:   func(name string) string { return "Kore" },
	}, logger)

	return &testServer{echo: e, issuer: issuer, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authed {
		token, _, err := s.issuer.GenerateClientToken("web")
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rec := srv.do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rec := srv.do(t, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aispeech_ws_active_connections")
}

func TestIssueToken(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/token", `{"client_id":"web","client_secret":"s3cret"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := srv.issuer.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "web", claims.ClientID)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong secret", `{"client_id":"web","client_secret":"nope"}`, http.StatusUnauthorized},
		{"unknown client", `{"client_id":"cli","client_secret":"s3cret"}`, http.StatusUnauthorized},
		{"missing fields", `{"client_id":"web"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/v1/auth/token", tt.body, false)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestJWTAuth(t *testing.T) {
	srv := newTestServer(t, &stubProvider{text: "你好"})
	body := `{"text":"hello","target_language":"Chinese"}`

	rec := srv.do(t, http.MethodPost, "/api/v1/translate", body, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", decodeError(t, rec).Error)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/translate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	rec = httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeError(t, rec).Error)

	// query parameter for clients that cannot set headers
	token, _, err := srv.issuer.GenerateClientToken("web")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/translate?token="+token, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer "))
	assert.Empty(t, bearerToken(""))
}

func TestListVoices(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rec := srv.do(t, http.MethodGet, "/api/v1/voices", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VoicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Voices, len(entities.VoiceCatalog()))
	assert.Equal(t, "Kore", resp.Voices[0].ProviderVoice)
	assert.NotEmpty(t, resp.Voices[0].Name)
}

func TestSynthesize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	srv := newTestServer(t, &stubProvider{audio: audio.EncodeBase64(pcm)})

	rec := srv.do(t, http.MethodPost, "/api/v1/tts", `{"text":"你好","voice_name":"温润男声"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, audio.MIMETypeWAV, rec.Header().Get(echo.HeaderContentType))
	assert.True(t, audio.IsWAV(rec.Body.Bytes()))
	assert.Len(t, rec.Body.Bytes(), audio.WAVHeaderSize+len(pcm))
	assert.Equal(t, "v6", rec.Header().Get(HeaderVoiceID))
	assert.Equal(t, "Kore", rec.Header().Get(HeaderProviderVoice))

	rec = srv.do(t, http.MethodPost, "/api/v1/tts", `{"text":"你好","format":"base64"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TTSResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Voice, "no catalog entry for an empty voice name")
	assert.Equal(t, "Kore", resp.ProviderVoice)
	assert.Equal(t, audio.MIMETypeWAV, resp.MIMEType)
	assert.Equal(t, audio.ProviderSampleRate, resp.SampleRate)
	wav, err := audio.DecodeBase64(resp.AudioBase64)
	require.NoError(t, err)
	assert.Equal(t, pcm, wav[audio.WAVHeaderSize:])
}

func TestSynthesize_CatalogVoice(t *testing.T) {
	srv := newTestServer(t, &stubProvider{audio: audio.EncodeBase64([]byte{0, 0})})

	rec := srv.do(t, http.MethodPost, "/api/v1/tts", `{"text":"hi","voice_name":"不羁青年","format":"base64"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TTSResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Voice)
	assert.Equal(t, "v1", resp.Voice.ID)
	assert.Equal(t, "Male", resp.Voice.Gender)

	rec = srv.do(t, http.MethodPost, "/api/v1/tts", `{"text":"hi","voice_name":"Somebody"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(HeaderVoiceID))
}

func TestBodyLimit(t *testing.T) {
	diarizeBody := base64.StdEncoding.EncodedLen(usecase.MaxDiarizationAudioBytes) + diarizeEnvelopeBytes

	tests := []struct {
		name string
		mb   int
		want string
	}{
		{"raised to fit diarization", 25, fmt.Sprintf("%dK", (diarizeBody+1023)/1024)},
		{"larger setting kept", 64, "65536K"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BodyLimit(tt.mb))
		})
	}
}

func TestDiarize_LargestAudioFitsBodyLimit(t *testing.T) {
	srv := newTestServer(t, &stubProvider{segments: []entities.SpeakerSegment{{Speaker: "Speaker 1"}}})
	srv.echo.Pre(middleware.BodyLimit(BodyLimit(25)))

	wav := audio.EncodeWAV(make([]byte, usecase.MaxDiarizationAudioBytes-audio.WAVHeaderSize), 16000)
	require.Len(t, wav, usecase.MaxDiarizationAudioBytes)

	body := `{"audio_base64":"` + audio.EncodeBase64(wav) + `","mime_type":"audio/wav"}`
	rec := srv.do(t, http.MethodPost, "/api/v1/diarize", body, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSynthesize_BadRequests(t *testing.T) {
	srv := newTestServer(t, &stubProvider{audio: audio.EncodeBase64([]byte{0, 0})})

	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text":"   "}`},
		{"too long", `{"text":"` + strings.Repeat("a", entities.MaxSpeechTextLength+1) + `"}`},
		{"bad format", `{"text":"hi","format":"mp3"}`},
		{"bad json", `{"text":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/v1/tts", tt.body, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", decodeError(t, rec).Error)
		})
	}
}

func TestProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"region", domain.ErrRegionUnsupported.Wrap(errors.New("location")), http.StatusUnavailableForLegalReasons, "region_unsupported"},
		{"credential", domain.ErrInvalidCredential, http.StatusBadGateway, "invalid_credential"},
		{"safety", domain.ErrSafetyBlocked, http.StatusUnprocessableEntity, "safety_blocked"},
		{"recitation", domain.ErrRecitationBlocked, http.StatusUnprocessableEntity, "recitation_blocked"},
		{"refusal", domain.NewRefusal("I can't read that"), http.StatusUnprocessableEntity, "model_refusal"},
		{"no content", domain.ErrNoContentReturned, http.StatusBadGateway, "no_content_returned"},
		{"malformed", domain.ErrMalformedResponse, http.StatusBadGateway, "malformed_response"},
		{"unclassified", errors.New("connection reset"), http.StatusBadGateway, "transport_error"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubProvider{err: tt.err})

			rec := srv.do(t, http.MethodPost, "/api/v1/tts", `{"text":"hi"}`, true)
			assert.Equal(t, tt.status, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.kind, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}

	srv := newTestServer(t, &stubProvider{err: domain.NewRefusal("I can't read that")})
	rec := srv.do(t, http.MethodPost, "/api/v1/translate", `{"text":"hi","target_language":"French"}`, true)
	assert.Equal(t, "I can't read that", decodeError(t, rec).Message, "refusal text reaches the user")
}

func TestTranslate(t *testing.T) {
	srv := newTestServer(t, &stubProvider{text: "Bonjour"})

	rec := srv.do(t, http.MethodPost, "/api/v1/translate", `{"text":"Hello","target_language":"French"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TranslateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bonjour", resp.Text)

	rec = srv.do(t, http.MethodPost, "/api/v1/translate", `{"text":"Hello"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiarize(t *testing.T) {
	srv := newTestServer(t, &stubProvider{segments: []entities.SpeakerSegment{
		{Speaker: "Speaker 1", Text: "hi", StartTime: 0, EndTime: 1.5},
	}})

	body := `{"audio_base64":"` + audio.EncodeBase64(audio.EncodeWAV([]byte{0, 0}, 16000)) + `"}`
	rec := srv.do(t, http.MethodPost, "/api/v1/diarize", body, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DiarizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, "Speaker 1", resp.Segments[0].Speaker)

	srv = newTestServer(t, &stubProvider{})
	rec = srv.do(t, http.MethodPost, "/api/v1/diarize", body, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"segments":[]}`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/v1/diarize", `{"audio_base64":""}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranscriptions(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	ctx := context.Background()

	mine := entities.NewTranscriptionRecord("web", "你好", 2*time.Second)
	require.NoError(t, srv.repo.Create(ctx, mine))
	theirs := entities.NewTranscriptionRecord("cli", "secret", time.Second)
	require.NoError(t, srv.repo.Create(ctx, theirs))

	rec := srv.do(t, http.MethodGet, "/api/v1/transcriptions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TranscriptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transcriptions, 1)
	assert.Equal(t, mine.ID, resp.Transcriptions[0].ID)

	rec = srv.do(t, http.MethodGet, "/api/v1/transcriptions?limit=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/transcriptions/"+mine.ID, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "你好")

	rec = srv.do(t, http.MethodGet, "/api/v1/transcriptions/"+theirs.ID, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/transcriptions/missing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketRequiresToken(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})

	rec := srv.do(t, http.MethodGet, "/ws", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
