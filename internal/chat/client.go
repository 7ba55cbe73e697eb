package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/memohai/slackrelay/internal/conversation"
)

// Client turns a conversation window into one model reply.
type Client struct {
	provider Provider
	persona  string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewClient(log *slog.Logger, provider Provider, persona string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		provider: provider,
		persona:  strings.TrimSpace(persona),
		timeout:  timeout,
		logger:   log.With(slog.String("component", "chat_client")),
	}
}

// Complete asks the provider for a reply. message may be empty when the new
// user turn is already the last entry of history. Failures are reported in
// the Result rather than as an error so callers pick their own fallback.
func (c *Client) Complete(ctx context.Context, history []conversation.Turn, message string) Result {
	if len(history) == 0 && strings.TrimSpace(message) == "" {
		return Result{Failure: FailureEmptyHistory}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	text, err := c.provider.Generate(ctx, Prompt{
		System: c.persona,
		Text:   BuildPrompt(history, message),
	})
	if err != nil {
		c.logger.Warn("completion failed",
			slog.Any("error", err),
			slog.Duration("latency", time.Since(started)),
		)
		return Result{Failure: FailureProviderError, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("completion returned no text", slog.Duration("latency", time.Since(started)))
		return Result{Failure: FailureEmptyResponse}
	}
	c.logger.Debug("completion finished", slog.Duration("latency", time.Since(started)))
	return Result{Text: text}
}
