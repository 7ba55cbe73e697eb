// Package credentials caches the bot access token issued to each workspace
// that installed the app.
package credentials

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotInstalled is returned when no token is known for a workspace.
var ErrNotInstalled = errors.New("workspace not installed")

// Installation is the result of one successful OAuth exchange.
type Installation struct {
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	AccessToken string    `json:"-"`
	BotUserID   string    `json:"bot_user_id,omitempty"`
	AppID       string    `json:"app_id,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
}

// Store maps workspace (team) ids to installations.
type Store interface {
	Put(ctx context.Context, inst Installation) error
	Get(ctx context.Context, teamID string) (Installation, error)
	List(ctx context.Context) ([]Installation, error)
}

// MemoryStore keeps installations in process memory. A reinstall overwrites
// the previous entry; entries never expire.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Installation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Installation)}
}

func (s *MemoryStore) Put(_ context.Context, inst Installation) error {
	teamID := strings.TrimSpace(inst.TeamID)
	if teamID == "" {
		return errors.New("team id is required")
	}
	if strings.TrimSpace(inst.AccessToken) == "" {
		return errors.New("access token is required")
	}
	inst.TeamID = teamID
	if inst.InstalledAt.IsZero() {
		inst.InstalledAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.items[teamID] = inst
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, teamID string) (Installation, error) {
	s.mu.RLock()
	inst, ok := s.items[strings.TrimSpace(teamID)]
	s.mu.RUnlock()
	if !ok {
		return Installation{}, ErrNotInstalled
	}
	return inst, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Installation, error) {
	s.mu.RLock()
	items := make([]Installation, 0, len(s.items))
	for _, inst := range s.items {
		items = append(items, inst)
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool { return items[i].TeamID < items[j].TeamID })
	return items, nil
}
