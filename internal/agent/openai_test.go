package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaphkiel07/Pawtine2/internal/config"
)

func newTestOpenAIClient(url string) *OpenAIClient {
	return NewOpenAIClient(config.OpenAIConfig{
		APIKey:  "sk-test",
		Model:   "gpt-test",
		BaseURL: url + "/v1/",
		Timeout: 2 * time.Second,
	})
}

func TestOpenAIClientSendsCompletionRequest(t *testing.T) {
	var got completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"message\":\"hi\"}"}}]}`))
	}))
	defer server.Close()

	content, err := newTestOpenAIClient(server.URL).Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, `{"message":"hi"}`, content)

	assert.Equal(t, "gpt-test", got.Model)
	assert.InDelta(t, 0.6, got.Temperature, 1e-9)
	assert.Equal(t, 400, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestOpenAIClientNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	content, err := newTestOpenAIClient(server.URL).Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestOpenAIClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer server.Close()

	_, err := newTestOpenAIClient(server.URL).Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "500")
}
