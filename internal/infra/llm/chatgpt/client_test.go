package chatgpt

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("  ", "", 0)
	require.Error(t, err)

	client, err := NewClient("key", "", 0)
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, client.baseURL)
}

func TestCreateChatCompletion(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"type\":\"Benign\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`))
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL+"/v1/", time.Second)
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(t.Context(), ChatCompletionRequest{
		Model:       "gpt-4",
		Messages:    []Message{{Role: "user", Content: "hi"}},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, `{"type":"Benign"}`, resp.Choices[0].Message.Content)
	require.Equal(t, 14, resp.Usage.TotalTokens)
	require.Equal(t, 150, got.MaxTokens)
	require.False(t, got.Stream)
}

func TestCreateChatCompletionStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient("bad", server.URL, time.Second)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(t.Context(), ChatCompletionRequest{Model: "gpt-4"})
	require.ErrorContains(t, err, "status=401")
}

func TestCreateChatCompletionStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.NotNil(t, req.StreamOptions)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": keep-alive\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"{\\\"x\\\":\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"1}\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL, time.Second)
	require.NoError(t, err)

	stream, err := client.CreateChatCompletionStream(t.Context(), ChatCompletionRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	defer stream.Close()

	var text string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for _, choice := range chunk.Choices {
			text += choice.Delta.Content
		}
	}
	require.Equal(t, `{"x":1}`, text)
}

func TestCreateChatCompletionStreamWithoutDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
	}))
	defer server.Close()

	client, err := NewClient("secret", server.URL, time.Second)
	require.NoError(t, err)

	stream, err := client.CreateChatCompletionStream(t.Context(), ChatCompletionRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)

	chunk, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, "partial", chunk.Choices[0].Delta.Content)

	_, err = stream.Recv()
	require.ErrorIs(t, err, ErrStreamTruncated)
	require.NoError(t, stream.Close())
}
