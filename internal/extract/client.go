package extract

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	defaultMaxTokens = 1024
)

// CompletionRequest is a single-turn prompt.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

func (r CompletionRequest) maxTokens() int {
	if r.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return r.MaxTokens
}

// Completer sends a prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client is a Completer with identity and latency tracking.
type Client interface {
	Completer
	Name() string
	Model() string
	Stats() *LLMStats
	Close()
}

// Options selects and configures a Client.
type Options struct {
	Provider       string
	AnthropicKey   string
	AnthropicModel string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	Timeout        time.Duration
}

// New builds the client for opts.Provider.
func New(opts Options) (Client, error) {
	switch opts.Provider {
	case ProviderAnthropic, "":
		if opts.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic api key is required")
		}
		return NewClaudeClient(opts.AnthropicKey, opts.AnthropicModel), nil
	case ProviderOpenAI:
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  opts.OpenAIKey,
			Model:   opts.OpenAIModel,
			BaseURL: opts.OpenAIBaseURL,
			Timeout: opts.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter, scaled
// from base and capped at 30s.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<uint(min(attempt, 16)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2 + 1))
	return d + jitter
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
