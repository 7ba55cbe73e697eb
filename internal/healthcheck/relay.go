package healthcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/memohai/slackrelay/internal/credentials"
)

const (
	checkGemini      = "gemini.config"
	checkCredentials = "slack.credentials"
)

// GeminiChecker warns when no API key is configured, since every reply would
// then be the fallback text.
func GeminiChecker(apiKey, model string) Checker {
	return CheckerFunc(func(context.Context) []CheckResult {
		item := CheckResult{
			ID:       checkGemini,
			Status:   StatusOK,
			Summary:  "api key configured",
			Metadata: map[string]any{"model": model},
		}
		if strings.TrimSpace(apiKey) == "" {
			item.Status = StatusWarn
			item.Summary = "api key missing"
			item.Detail = "replies fall back to the static text"
		}
		return []CheckResult{item}
	})
}

// CredentialsChecker reports how the relay will authenticate to Slack: via
// OAuth installations, the static bot token, or not at all.
func CredentialsChecker(store credentials.Store, staticToken string) Checker {
	return CheckerFunc(func(ctx context.Context) []CheckResult {
		item := CheckResult{ID: checkCredentials}
		installs, err := store.List(ctx)
		if err != nil {
			item.Status = StatusError
			item.Summary = "credential store unavailable"
			item.Detail = err.Error()
			return []CheckResult{item}
		}
		hasStatic := strings.TrimSpace(staticToken) != ""
		item.Metadata = map[string]any{
			"installations": len(installs),
			"static_token":  hasStatic,
		}
		switch {
		case len(installs) > 0:
			item.Status = StatusOK
			item.Summary = fmt.Sprintf("%d workspace(s) installed", len(installs))
		case hasStatic:
			item.Status = StatusOK
			item.Summary = "static bot token configured"
		default:
			item.Status = StatusError
			item.Summary = "no workspace installed and no static bot token"
		}
		return []CheckResult{item}
	})
}
