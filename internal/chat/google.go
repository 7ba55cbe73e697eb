package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// ErrMissingAPIKey is returned by GoogleProvider when no Gemini key is configured.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// GoogleProvider wraps Genkit's Google AI plugin.
type GoogleProvider struct {
	apiKey string
	model  string

	once    sync.Once
	g       *genkit.Genkit
	initErr error
}

func NewGoogleProvider(apiKey, model string) *GoogleProvider {
	model = strings.TrimSpace(model)
	if !strings.Contains(model, "/") {
		model = "googleai/" + model
	}
	return &GoogleProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
	}
}

// Model returns the fully qualified Genkit model name.
func (p *GoogleProvider) Model() string {
	return p.model
}

func (p *GoogleProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	g, err := p.genkit(ctx)
	if err != nil {
		return "", err
	}
	// Messages are passed pre-built so user text is never treated as a format string.
	messages := make([]*ai.Message, 0, 2)
	if strings.TrimSpace(prompt.System) != "" {
		messages = append(messages, ai.NewSystemTextMessage(prompt.System))
	}
	messages = append(messages, ai.NewUserTextMessage(prompt.Text))
	resp, err := genkit.Generate(ctx, g,
		ai.WithModelName(p.model),
		ai.WithMessages(messages...),
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini generate: empty response")
	}
	return resp.Text(), nil
}

// genkit initializes the Genkit instance on first use so a missing key only
// degrades completions instead of failing startup.
func (p *GoogleProvider) genkit(ctx context.Context) (*genkit.Genkit, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	p.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				p.initErr = fmt.Errorf("genkit init: %v", r)
			}
		}()
		p.g = genkit.Init(context.WithoutCancel(ctx), genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: p.apiKey}))
	})
	return p.g, p.initErr
}
