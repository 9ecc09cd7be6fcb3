package assessment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/yanqian/derma-advisor/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/derma-advisor/pkg/errors"
	"github.com/yanqian/derma-advisor/pkg/metrics"
)

// ChatClient is the completion service boundary.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error)
}

// Completion is the reassembled reply of one call.
type Completion struct {
	Text      string
	Usage     metrics.TokenUsage
	Chunks    int
	Truncated bool
}

// Invoker issues one completion call per Invoke, blocking or incremental.
type Invoker struct {
	client ChatClient
	tokens *metrics.TokenCounter
	logger *slog.Logger
}

// NewInvoker builds an Invoker. tokens may be nil to skip usage estimates.
func NewInvoker(client ChatClient, tokens *metrics.TokenCounter, logger *slog.Logger) *Invoker {
	return &Invoker{client: client, tokens: tokens, logger: logger.With("component", "assessment.invoker")}
}

// Invoke returns the full completion text. The only error category is an
// llm_error AppError for requests that never produced a response.
func (i *Invoker) Invoke(ctx context.Context, prompt Prompt, opts Options) (Completion, error) {
	req := chatgpt.ChatCompletionRequest{
		Model: opts.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens:   opts.MaxOutputTokens,
		Temperature: opts.Temperature,
	}

	var (
		completion Completion
		err        error
	)
	if opts.Mode == ModeIncremental {
		completion, err = i.stream(ctx, req)
	} else {
		completion, err = i.blocking(ctx, req)
	}
	if err != nil {
		return Completion{}, err
	}
	if completion.Usage.IsZero() {
		completion.Usage = i.tokens.Estimate(opts.Model, prompt.System+"\n"+prompt.User, completion.Text)
	}
	return completion, nil
}

func (i *Invoker) blocking(ctx context.Context, req chatgpt.ChatCompletionRequest) (Completion, error) {
	resp, err := i.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
	}
	out := Completion{Usage: toUsage(resp.Usage)}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
		out.Chunks = 1
	}
	return out, nil
}

func (i *Invoker) stream(ctx context.Context, req chatgpt.ChatCompletionRequest) (Completion, error) {
	stream, err := i.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return Completion{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt stream request failed", err)
	}
	defer stream.Close()

	var (
		builder strings.Builder
		out     Completion
	)
	for {
		chunk, recvErr := stream.Recv()
		if recvErr != nil {
			if !errors.Is(recvErr, io.EOF) {
				// whatever arrived so far is the reply; recovery decides if it is usable
				out.Truncated = true
				i.logger.Warn("chatgpt stream ended early", "error", recvErr, "chunks", out.Chunks)
			}
			break
		}
		if chunk.Usage != nil {
			out.Usage = toUsage(chunk.Usage)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			builder.WriteString(choice.Delta.Content)
			out.Chunks++
		}
	}
	out.Text = builder.String()
	return out, nil
}

func toUsage(u *chatgpt.Usage) metrics.TokenUsage {
	if u == nil {
		return metrics.TokenUsage{}
	}
	return metrics.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
