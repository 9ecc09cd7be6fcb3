package metrics

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const fallbackEncoding = "cl100k_base"

// BPE ranks come from files embedded in the binary; the default loader fetches
// them over HTTP without a timeout.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenCounter estimates token counts for providers that do not report usage,
// such as streamed completions. A nil counter reports zero usage.
type TokenCounter struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
	logger    *slog.Logger
}

// NewTokenCounter builds a counter that lazily loads encodings per model.
func NewTokenCounter(logger *slog.Logger) *TokenCounter {
	return &TokenCounter{
		encodings: make(map[string]*tiktoken.Tiktoken),
		logger:    logger.With("component", "metrics.tokens"),
	}
}

// Count returns the number of tokens text occupies for model, or 0 when no
// encoding could be loaded.
func (c *TokenCounter) Count(model, text string) int {
	if c == nil || text == "" {
		return 0
	}
	enc := c.encoding(model)
	if enc == nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// Estimate builds a TokenUsage from the prompt and completion text.
func (c *TokenCounter) Estimate(model, prompt, completion string) TokenUsage {
	p := c.Count(model, prompt)
	o := c.Count(model, completion)
	if p == 0 && o == 0 {
		return TokenUsage{}
	}
	return TokenUsage{PromptTokens: p, CompletionTokens: o, TotalTokens: p + o, Estimated: true}
}

func (c *TokenCounter) encoding(model string) *tiktoken.Tiktoken {
	c.mu.RLock()
	enc, ok := c.encodings[model]
	c.mu.RUnlock()
	if ok {
		return enc
	}

	// loaded outside the lock; concurrent first lookups may both load, the first store wins
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		c.logger.Warn("token encoding unavailable", "model", model, "error", err)
		enc = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.encodings[model]; ok {
		return cached
	}
	// failed lookups are cached too so a missing encoding is not retried per request
	c.encodings[model] = enc
	return enc
}
