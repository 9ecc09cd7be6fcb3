package assessment

import (
	"context"
	"io"

	"github.com/yanqian/derma-advisor/internal/infra/llm/chatgpt"
	"github.com/yanqian/derma-advisor/pkg/logger"
)

var testLogger = logger.Discard()

type stubChatClient struct {
	completionResp chatgpt.ChatCompletionResponse
	completionErr  error

	streamChunks []chatgpt.ChatCompletionStreamChunk
	streamTail   error
	streamErr    error
	stream       *stubChatStream

	calls       int
	lastRequest chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.calls++
	s.lastRequest = req
	if s.completionErr != nil {
		return chatgpt.ChatCompletionResponse{}, s.completionErr
	}
	return s.completionResp, nil
}

func (s *stubChatClient) CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error) {
	s.calls++
	s.lastRequest = req
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	s.stream = &stubChatStream{chunks: s.streamChunks, tail: s.streamTail}
	return s.stream, nil
}

type stubChatStream struct {
	chunks []chatgpt.ChatCompletionStreamChunk
	tail   error
	idx    int
	closed bool
}

func (s *stubChatStream) Recv() (chatgpt.ChatCompletionStreamChunk, error) {
	if s.idx >= len(s.chunks) {
		if s.tail != nil {
			return chatgpt.ChatCompletionStreamChunk{}, s.tail
		}
		return chatgpt.ChatCompletionStreamChunk{}, io.EOF
	}
	chunk := s.chunks[s.idx]
	s.idx++
	return chunk, nil
}

func (s *stubChatStream) Close() error {
	s.closed = true
	return nil
}

func textReply(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: "assistant", Content: content}}},
	}
}

func deltas(parts ...string) []chatgpt.ChatCompletionStreamChunk {
	out := make([]chatgpt.ChatCompletionStreamChunk, 0, len(parts))
	for _, p := range parts {
		out = append(out, chatgpt.ChatCompletionStreamChunk{
			Choices: []chatgpt.StreamChoice{{Delta: chatgpt.Message{Content: p}}},
		})
	}
	return out
}
