package chat

import (
	"context"
	"strings"
)

// Prompt is a single-shot generation request.
type Prompt struct {
	System string
	Text   string
}

// Provider produces generated text for a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Failure tags why a completion produced no usable text.
type Failure string

const (
	FailureNone          Failure = ""
	FailureEmptyHistory  Failure = "empty_history"
	FailureProviderError Failure = "provider_error"
	FailureEmptyResponse Failure = "empty_response"
)

// Result is the outcome of Client.Complete. Exactly one of Text or Failure
// is meaningful.
type Result struct {
	Text    string
	Failure Failure
	Err     error
}

// OK reports whether the result carries generated text.
func (r Result) OK() bool {
	return r.Failure == FailureNone && strings.TrimSpace(r.Text) != ""
}

// TextOr returns the generated text, or fallback when the completion failed.
func (r Result) TextOr(fallback string) string {
	if r.OK() {
		return r.Text
	}
	return fallback
}
