package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func floatPtr(v float64) *float64 { return &v }

func TestOpenAIClient_Generate(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"questions\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL + "/v1/", APIKey: "test-key", Model: "gpt-4o"}, zap.NewNop())
	text, err := client.Generate(context.Background(), Request{
		SystemPrompt:     "json only",
		UserPrompt:       "make questions",
		JSONObject:       true,
		Temperature:      0.1,
		MaxTokens:        3500,
		TopP:             floatPtr(0.3),
		FrequencyPenalty: floatPtr(0.5),
		PresencePenalty:  floatPtr(0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"questions":[]}`, text)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "make questions", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, 3500, got.MaxTokens)
	require.NotNil(t, got.TopP)
	assert.InDelta(t, 0.3, *got.TopP, 1e-9)
}

func TestOpenAIClient_OmitsUnsetDecodingParameters(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, Model: "m"}, zap.NewNop())
	_, err := client.Generate(context.Background(), Request{UserPrompt: "x", Temperature: 0.2, MaxTokens: 2500})
	require.NoError(t, err)

	assert.NotContains(t, raw, "top_p")
	assert.NotContains(t, raw, "frequency_penalty")
	assert.NotContains(t, raw, "presence_penalty")
	assert.NotContains(t, raw, "response_format")
}

func TestOpenAIClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL}, zap.NewNop())
	_, err := client.Generate(context.Background(), Request{UserPrompt: "x"})
	require.Error(t, err)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusTooManyRequests, svcErr.StatusCode)
	assert.Contains(t, svcErr.Body, "rate limited")
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL}, zap.NewNop())
	_, err := client.Generate(context.Background(), Request{UserPrompt: "x"})

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
}

func TestOpenAIClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond}, zap.NewNop())
	_, err := client.Generate(context.Background(), Request{UserPrompt: "x"})
	require.Error(t, err)

	var trErr *TransportError
	assert.True(t, errors.As(err, &trErr))
	var svcErr *ServiceError
	assert.False(t, errors.As(err, &svcErr))
}
