// Package conversation defines conversation turns and the bounded per-channel
// history windows supplied to the model as context.
package conversation

import (
	"strings"
	"time"
)

// Role tags who produced a turn.
type Role string

// Turn role constants.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// DefaultWindowSize is the number of turns kept per channel.
const DefaultWindowSize = 5

// Turn is one message in a channel's history.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// UserTurn builds a user turn stamped with the current time.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, At: time.Now().UTC()}
}

// ModelTurn builds a model turn stamped with the current time.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Text: text, At: time.Now().UTC()}
}

// Window is the summary returned by the admin API for one channel.
type Window struct {
	ChannelID string `json:"channel_id"`
	Turns     []Turn `json:"turns"`
}

// AppendBounded appends turns to history and keeps only the most recent
// limit entries. The result never aliases history.
func AppendBounded(history []Turn, limit int, turns ...Turn) []Turn {
	if limit <= 0 {
		limit = DefaultWindowSize
	}
	merged := make([]Turn, 0, len(history)+len(turns))
	merged = append(merged, history...)
	merged = append(merged, turns...)
	if len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	out := make([]Turn, len(merged))
	copy(out, merged)
	return out
}

// Transcript renders turns as "role: text" lines in chronological order.
func Transcript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		lines = append(lines, string(t.Role)+": "+text)
	}
	return strings.Join(lines, "\n")
}
