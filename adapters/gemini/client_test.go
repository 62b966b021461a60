package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/audio"
)

// fakeGenerator records the last call and replays a canned response
type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error

	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func newTestClient(t *testing.T, gen *fakeGenerator) *Client {
	return NewClientWithGenerator(gen, Config{}, zaptest.NewLogger(t))
}

func candidate(reason genai.FinishReason, parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: parts},
			FinishReason: reason,
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return candidate(genai.FinishReasonStop, &genai.Part{Text: text})
}

func TestGenerateSpeech_Success(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0x7f}
	gen := &fakeGenerator{resp: candidate(genai.FinishReasonStop, &genai.Part{
		InlineData: &genai.Blob{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: pcm},
	})}
	client := newTestClient(t, gen)

	out, err := client.GenerateSpeech(context.Background(), "你好", "机械战甲")
	require.NoError(t, err)
	assert.Equal(t, audio.EncodeBase64(pcm), out)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, defaultSpeechModel, gen.model)
	require.NotNil(t, gen.config)
	assert.Equal(t, []string{"AUDIO"}, gen.config.ResponseModalities)
	assert.Equal(t, "Charon", gen.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	require.Len(t, gen.contents, 1)
	require.Len(t, gen.contents[0].Parts, 1)
	assert.Equal(t, "你好", gen.contents[0].Parts[0].Text)
}

func TestGenerateSpeech_UnknownVoiceFallsBack(t *testing.T) {
	gen := &fakeGenerator{resp: candidate(genai.FinishReasonStop, &genai.Part{
		InlineData: &genai.Blob{Data: []byte{0, 0}},
	})}
	client := newTestClient(t, gen)

	_, err := client.GenerateSpeech(context.Background(), "hello", "no-such-voice")
	require.NoError(t, err)
	assert.Equal(t, DefaultVoice, gen.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
}

func TestGenerateSpeech_EmptyText(t *testing.T) {
	gen := &fakeGenerator{}
	client := newTestClient(t, gen)

	_, err := client.GenerateSpeech(context.Background(), "  ", "Kore")
	assert.ErrorIs(t, err, domain.ErrEmptyText)
	assert.Zero(t, gen.calls, "no network call for blank text")
}

func TestGenerateSpeech_ResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want error
	}{
		{
			name: "no candidates",
			resp: &genai.GenerateContentResponse{},
			want: domain.ErrNoContentReturned,
		},
		{
			name: "nil response",
			resp: nil,
			want: domain.ErrNoContentReturned,
		},
		{
			name: "safety block",
			resp: candidate(genai.FinishReasonSafety),
			want: domain.ErrSafetyBlocked,
		},
		{
			name: "recitation block",
			resp: candidate(genai.FinishReasonRecitation),
			want: domain.ErrRecitationBlocked,
		},
		{
			name: "refusal text",
			resp: candidate(genai.FinishReasonStop, &genai.Part{Text: "I can't read that aloud."}),
			want: domain.ErrModelRefusalWithText,
		},
		{
			name: "nothing usable",
			resp: candidate(genai.FinishReasonStop),
			want: domain.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeGenerator{resp: tt.resp})

			_, err := client.GenerateSpeech(context.Background(), "hello", "Kore")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateSpeech_RefusalCarriesText(t *testing.T) {
	client := newTestClient(t, &fakeGenerator{
		resp: candidate(genai.FinishReasonStop, &genai.Part{Text: " I can't read that aloud. "}),
	})

	_, err := client.GenerateSpeech(context.Background(), "hello", "Kore")

	var appErr *domain.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "I can't read that aloud.", appErr.Message)
}

func TestGenerateSpeech_TransportErrors(t *testing.T) {
	plain := errors.New("connection reset by peer")

	tests := []struct {
		name     string
		err      error
		wantKind domain.ErrorKind
	}{
		{"structured 403", genai.APIError{Code: 403, Message: "Forbidden"}, domain.KindRegionUnsupported},
		{"structured location", genai.APIError{Code: 400, Message: "User location is not supported for the API use."}, domain.KindRegionUnsupported},
		{"structured bad key", genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}, domain.KindInvalidCredential},
		{"structured 401", genai.APIError{Code: 401, Message: "Unauthorized"}, domain.KindInvalidCredential},
		{"message region", errors.New("Region not supported"), domain.KindRegionUnsupported},
		{"message 403", fmt.Errorf("request failed: status 403"), domain.KindRegionUnsupported},
		{"message key", errors.New("missing API key"), domain.KindInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeGenerator{err: tt.err})

			_, err := client.GenerateSpeech(context.Background(), "hello", "Kore")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))

			var appErr *domain.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.err, appErr.Err, "cause is kept")
		})
	}

	t.Run("other errors pass through unchanged", func(t *testing.T) {
		client := newTestClient(t, &fakeGenerator{err: plain})

		_, err := client.GenerateSpeech(context.Background(), "hello", "Kore")
		assert.Same(t, plain, err)
	})

	t.Run("structured 500 passes through", func(t *testing.T) {
		apiErr := genai.APIError{Code: 500, Message: "internal"}
		client := newTestClient(t, &fakeGenerator{err: apiErr})

		_, err := client.GenerateSpeech(context.Background(), "hello", "Kore")
		assert.Equal(t, error(apiErr), err)
		assert.Empty(t, domain.KindOf(err))
	})
}

func TestMissingAPIKey(t *testing.T) {
	client, err := NewClient(context.Background(), Config{}, zaptest.NewLogger(t))
	require.NoError(t, err, "construction must not fail without a key")

	_, err = client.GenerateSpeech(context.Background(), "hello", "Kore")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	_, err = client.TranslateContent(context.Background(), "hello", "Chinese")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestTranslateContent(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("你好\n")}
	client := newTestClient(t, gen)

	out, err := client.TranslateContent(context.Background(), "Hello", "Chinese")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)

	assert.Equal(t, defaultTextModel, gen.model)
	assert.Nil(t, gen.config)
	require.Len(t, gen.contents, 1)
	assert.Equal(t,
		"Translate the following text into Chinese. Return ONLY the translated text. Text: Hello",
		gen.contents[0].Parts[0].Text)
}

func TestTranslateContent_EmptyReplyReturnsInput(t *testing.T) {
	for name, resp := range map[string]*genai.GenerateContentResponse{
		"no candidates": {},
		"blank text":    textResponse("   "),
		"nil":           nil,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, &fakeGenerator{resp: resp})

			out, err := client.TranslateContent(context.Background(), "Hello", "Chinese")
			require.NoError(t, err)
			assert.Equal(t, "Hello", out)
		})
	}
}

func TestTranslateContent_ErrorPolicy(t *testing.T) {
	client := newTestClient(t, &fakeGenerator{err: genai.APIError{Code: 403}})

	_, err := client.TranslateContent(context.Background(), "Hello", "Chinese")
	assert.ErrorIs(t, err, domain.ErrRegionUnsupported)
}

func TestAnalyzeConversation(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`[{"speaker":"Speaker 1","text":"你好","startTime":0,"endTime":1.5},{"speaker":"Speaker 2","text":"早上好","startTime":1.5,"endTime":3}]`)}
	client := newTestClient(t, gen)

	segments, err := client.AnalyzeConversation(context.Background(), []byte{1, 2, 3}, "audio/webm")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Speaker 2", segments[1].Speaker)
	assert.Equal(t, 1.5, segments[1].StartTime)

	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.Len(t, gen.contents[0].Parts, 2)
	assert.Equal(t, "audio/webm", gen.contents[0].Parts[0].InlineData.MIMEType)
}

func TestAnalyzeConversation_EmptyAndMalformed(t *testing.T) {
	client := newTestClient(t, &fakeGenerator{resp: &genai.GenerateContentResponse{}})
	segments, err := client.AnalyzeConversation(context.Background(), []byte{1}, "audio/wav")
	require.NoError(t, err)
	assert.Empty(t, segments)

	client = newTestClient(t, &fakeGenerator{resp: textResponse("not json")})
	_, err = client.AnalyzeConversation(context.Background(), []byte{1}, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	_, err = client.AnalyzeConversation(context.Background(), nil, "audio/wav")
	assert.Error(t, err)
}

func TestParseSegments_StripsFences(t *testing.T) {
	segments, err := parseSegments("```json\n[{\"speaker\":\"A\",\"text\":\"hi\",\"startTime\":0,\"endTime\":1}]\n```")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "A", segments[0].Speaker)
}

func TestResolveVoice(t *testing.T) {
	assert.Equal(t, "Fenrir", ResolveVoice("不羁青年"))
	assert.Equal(t, "Puck", ResolveVoice("Narrator"))
	assert.Equal(t, DefaultVoice, ResolveVoice(""))
	assert.Equal(t, DefaultVoice, ResolveVoice("Somebody"))

	prebuilt := []string{"Aoede", "Charon", "Fenrir", "Kore", "Puck", "Zephyr"}
	for _, v := range voiceMapping {
		assert.Contains(t, prebuilt, v)
	}
}
