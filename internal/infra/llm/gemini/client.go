// Package gemini serves chat completions from Google Gemini behind the same
// request and stream types as the OpenAI client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/yanqian/derma-advisor/internal/infra/llm/chatgpt"
)

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client adapts the genai SDK to chatgpt request/response types.
type Client struct {
	models generator
}

// NewClient builds a Gemini API client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &Client{models: cli.Models}, nil
}

// CreateChatCompletion performs a single GenerateContent call.
func (c *Client) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	contents, config := translate(req)
	resp, err := c.models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return chatgpt.ChatCompletionResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}
	out := chatgpt.ChatCompletionResponse{Usage: usageOf(resp)}
	if resp != nil && len(resp.Candidates) > 0 {
		out.Choices = []chatgpt.Choice{{
			Message:      chatgpt.Message{Role: "assistant", Content: resp.Text()},
			FinishReason: string(resp.Candidates[0].FinishReason),
		}}
	}
	return out, nil
}

// CreateChatCompletionStream starts GenerateContentStream and exposes it as a pull stream.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error) {
	contents, config := translate(req)
	next, stop := iter.Pull2(c.models.GenerateContentStream(ctx, req.Model, contents, config))
	return &stream{next: next, stop: stop}, nil
}

type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s *stream) Recv() (chatgpt.ChatCompletionStreamChunk, error) {
	resp, err, ok := s.next()
	if !ok {
		return chatgpt.ChatCompletionStreamChunk{}, io.EOF
	}
	if err != nil {
		return chatgpt.ChatCompletionStreamChunk{}, fmt.Errorf("gemini stream: %w", err)
	}
	chunk := chatgpt.ChatCompletionStreamChunk{Usage: usageOf(resp)}
	if resp != nil {
		chunk.Choices = []chatgpt.StreamChoice{{Delta: chatgpt.Message{Role: "assistant", Content: resp.Text()}}}
	}
	return chunk, nil
}

func (s *stream) Close() error {
	s.stop()
	return nil
}

func translate(req chatgpt.ChatCompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, config
}

func usageOf(resp *genai.GenerateContentResponse) *chatgpt.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	meta := resp.UsageMetadata
	return &chatgpt.Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}
