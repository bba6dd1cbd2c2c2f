package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-scout/config"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeOpenAI(t *testing.T, got *chatRequest, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
}

func testConfig(url string) config.LLMConfig {
	return config.LLMConfig{
		APIKey:    "test-key",
		BaseURL:   url + "/v1/",
		Model:     "gpt-4o-mini",
		MaxTokens: 512,
		Timeout:   5 * time.Second,
	}
}

func TestExtractReturnsFirstChoice(t *testing.T) {
	var got chatRequest
	srv := fakeOpenAI(t, &got, `{"id":"1","object":"chat.completion","choices":[
		{"index":0,"message":{"role":"assistant","content":"[{\"title\":\"2018 Honda Civic\"}]"},"finish_reason":"stop"},
		{"index":1,"message":{"role":"assistant","content":"ignored"},"finish_reason":"stop"}]}`)
	defer srv.Close()

	out, err := NewOpenAIClient(testConfig(srv.URL)).Extract(context.Background(), "list the cars")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"2018 Honda Civic"}]`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "list the cars", got.Messages[0].Content)
}

func TestExtractNoChoices(t *testing.T) {
	var got chatRequest
	srv := fakeOpenAI(t, &got, `{"id":"1","object":"chat.completion","choices":[]}`)
	defer srv.Close()

	out, err := NewOpenAIClient(testConfig(srv.URL)).Extract(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExtractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(testConfig(srv.URL)).Extract(context.Background(), "p")
	assert.Error(t, err)
}
