package narration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyreel/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeAbsentWithoutCredential(t *testing.T) {
	svc := New(config.Config{})
	audio, ok, err := svc.Synthesize(context.Background(), "hello", "adam")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, audio)
}

func TestSynthesizeAbsentForUnknownVoice(t *testing.T) {
	svc := New(config.Config{ElevenLabsAPIKey: "key"})

	for _, voice := range []string{"", "narrator-9000"} {
		audio, ok, err := svc.Synthesize(context.Background(), "hello", voice)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, audio)
	}
}

func TestSynthesizeCallsProvider(t *testing.T) {
	var gotPath, gotKey string
	var gotBody synthesisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte("mpeg-bytes"))
	}))
	defer server.Close()

	svc := New(config.Config{ElevenLabsAPIKey: "secret", TTSBaseURL: server.URL})
	audio, ok, err := svc.Synthesize(context.Background(), "once upon a time", "Rachel")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mpeg-bytes", string(audio))

	assert.True(t, strings.HasPrefix(gotPath, "/v1/text-to-speech/"))
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "once upon a time", gotBody.Text)
	assert.Equal(t, modelID, gotBody.ModelID)
}

func TestSynthesizeProviderErrorIsHard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := New(config.Config{ElevenLabsAPIKey: "secret", TTSBaseURL: server.URL})
	_, ok, err := svc.Synthesize(context.Background(), "hello", "adam")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestSynthesizeEmptyTextAbsent(t *testing.T) {
	svc := New(config.Config{ElevenLabsAPIKey: "secret"})
	_, ok, err := svc.Synthesize(context.Background(), "   ", "adam")
	assert.NoError(t, err)
	assert.False(t, ok)
}
