package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store holds the conversation window for each channel.
type Store interface {
	// Append adds turns to the channel's window, trims it, and returns a copy
	// of the resulting window.
	Append(ctx context.Context, channelID string, turns ...Turn) ([]Turn, error)
	Get(ctx context.Context, channelID string) ([]Turn, error)
	Reset(ctx context.Context, channelID string) error
	Channels(ctx context.Context) ([]string, error)
}

// MemoryStore keeps windows in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	windows map[string][]Turn
}

// NewMemoryStore creates a store keeping at most limit turns per channel.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultWindowSize
	}
	return &MemoryStore{
		limit:   limit,
		windows: make(map[string][]Turn),
	}
}

func (s *MemoryStore) Append(_ context.Context, channelID string, turns ...Turn) ([]Turn, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, ErrChannelRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := AppendBounded(s.windows[channelID], s.limit, turns...)
	s.windows[channelID] = next
	return cloneTurns(next), nil
}

func (s *MemoryStore) Get(_ context.Context, channelID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTurns(s.windows[strings.TrimSpace(channelID)]), nil
}

func (s *MemoryStore) Reset(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, strings.TrimSpace(channelID))
	return nil
}

func (s *MemoryStore) Channels(_ context.Context) ([]string, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.windows))
	for id := range s.windows {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)
	return ids, nil
}

func cloneTurns(turns []Turn) []Turn {
	if len(turns) == 0 {
		return []Turn{}
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
