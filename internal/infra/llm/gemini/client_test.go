package gemini

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yanqian/derma-advisor/internal/infra/llm/chatgpt"
)

func TestTranslateSplitsSystemInstruction(t *testing.T) {
	contents, config := translate(chatgpt.ChatCompletionRequest{
		Model:       "gemini-2.5-flash",
		MaxTokens:   200,
		Temperature: 0.3,
		Messages: []chatgpt.Message{
			{Role: "system", Content: "Respond only in JSON."},
			{Role: "user", Content: "- Age: 30"},
		},
	})

	require.Len(t, contents, 1)
	require.Equal(t, "- Age: 30", contents[0].Parts[0].Text)
	require.Equal(t, "Respond only in JSON.", config.SystemInstruction.Parts[0].Text)
	require.Equal(t, int32(200), config.MaxOutputTokens)
	require.InDelta(t, 0.3, *config.Temperature, 1e-6)
}

func TestCreateChatCompletion(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse(`{"type":"Benign"}`)}}
	client := &Client{models: fake}

	resp, err := client.CreateChatCompletion(context.Background(), chatgpt.ChatCompletionRequest{
		Model:    "gemini-2.5-flash",
		Messages: []chatgpt.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, `{"type":"Benign"}`, resp.Choices[0].Message.Content)
	require.Equal(t, 7, resp.Usage.TotalTokens)
	require.Equal(t, "gemini-2.5-flash", fake.lastModel)
}

func TestCreateChatCompletionError(t *testing.T) {
	client := &Client{models: &fakeGenerator{err: errors.New("permission denied")}}
	_, err := client.CreateChatCompletion(context.Background(), chatgpt.ChatCompletionRequest{Model: "m"})
	require.ErrorContains(t, err, "permission denied")
}

func TestStreamPreservesOrder(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse(`{"x":`),
		textResponse(`1}`),
	}}
	client := &Client{models: fake}

	stream, err := client.CreateChatCompletionStream(context.Background(), chatgpt.ChatCompletionRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	var text string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		text += chunk.Choices[0].Delta.Content
	}
	require.Equal(t, `{"x":1}`, text)
}

func TestStreamSurfacesMidStreamError(t *testing.T) {
	fake := &fakeGenerator{
		responses: []*genai.GenerateContentResponse{textResponse("partial")},
		streamErr: errors.New("connection reset"),
	}
	stream, err := (&Client{models: fake}).CreateChatCompletionStream(context.Background(), chatgpt.ChatCompletionRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, "partial", chunk.Choices[0].Delta.Content)

	_, err = stream.Recv()
	require.ErrorContains(t, err, "connection reset")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     5,
			CandidatesTokenCount: 2,
			TotalTokenCount:      7,
		},
	}
}

type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	err       error
	streamErr error
	lastModel string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[0], nil
}

func (f *fakeGenerator) GenerateContentStream(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.lastModel = model
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, resp := range f.responses {
			if !yield(resp, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield(nil, f.streamErr)
		}
	}
}
