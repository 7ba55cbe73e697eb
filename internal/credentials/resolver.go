package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolver picks the bot token used to reply in a workspace.
type Resolver struct {
	store         Store
	fallbackToken string
}

// NewResolver creates a resolver. fallbackToken, when set, is used for
// workspaces that never completed the OAuth flow (single-workspace installs
// configured with a static bot token).
func NewResolver(store Store, fallbackToken string) *Resolver {
	return &Resolver{store: store, fallbackToken: strings.TrimSpace(fallbackToken)}
}

// Token returns the bot token for teamID.
func (r *Resolver) Token(ctx context.Context, teamID string) (string, error) {
	inst, err := r.store.Get(ctx, teamID)
	if err == nil {
		return inst.AccessToken, nil
	}
	if !errors.Is(err, ErrNotInstalled) {
		return "", fmt.Errorf("lookup workspace %q: %w", teamID, err)
	}
	if r.fallbackToken != "" {
		return r.fallbackToken, nil
	}
	return "", fmt.Errorf("team %q: %w", teamID, ErrNotInstalled)
}
