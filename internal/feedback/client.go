package feedback

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// MaxRetries is the number of attempts made for retryable failures.
const MaxRetries = 3

// Client wraps a provider with retries and latency tracking.
type Client struct {
	llm   Completer
	model string
	log   *slog.Logger
	wait  func(attempt int) time.Duration

	Stats *LLMStats
}

func NewClient(llm Completer, model string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		llm:   llm,
		model: model,
		log:   log,
		wait:  Backoff,
		Stats: NewLLMStats(time.Hour),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete runs req, retrying rate-limit and transient failures.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		text, err := c.llm.Complete(ctx, req)
		c.Stats.Record(time.Since(start).Milliseconds(), err)
		if err == nil {
			c.log.Debug("llm call", "model", c.model, "prompt_tokens_est", EstimateTokens(req.Prompt),
				"duration_ms", time.Since(start).Milliseconds())
			return text, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		c.log.Warn("retryable llm error", "model", c.model, "attempt", attempt, "error", err)
		select {
		case <-time.After(c.wait(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
