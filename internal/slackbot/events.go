// Package slackbot holds the Slack-facing plumbing: Events API envelope
// parsing, message delivery, the OAuth v2 install exchange and request
// signature verification.
package slackbot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slack-go/slack/slackevents"
)

// Envelope is the outer Events API payload. Only the fields the relay needs
// are decoded.
type Envelope struct {
	Type    string          `json:"type"`
	TeamID  string          `json:"team_id,omitempty"`
	EventID string          `json:"event_id,omitempty"`
	Event   json.RawMessage `json:"event,omitempty"`
}

// ParseChallenge returns the raw challenge value when the body carries one.
// Only the challenge key is decoded, so the handshake is answered whatever
// the other fields hold.
func ParseChallenge(body []byte) (json.RawMessage, bool) {
	var head struct {
		Challenge json.RawMessage `json:"challenge"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, false
	}
	return head.Challenge, len(head.Challenge) > 0
}

// ParseEnvelope decodes an Events API request body.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode slack envelope: %w", err)
	}
	return env, nil
}

// IsCallback reports whether the envelope wraps an inner event.
func (e Envelope) IsCallback() bool {
	if e.Type != "" && e.Type != slackevents.CallbackEvent {
		return false
	}
	raw := strings.TrimSpace(string(e.Event))
	return raw != "" && raw != "null"
}

// InboundMessage is the part of a message event the relay acts on.
type InboundMessage struct {
	TeamID    string
	ChannelID string
	UserID    string
	Text      string
	TS        string
	BotID     string
	SubType   string
}

// FromBot reports whether the message was posted by a bot, including this one.
func (m InboundMessage) FromBot() bool {
	return strings.TrimSpace(m.BotID) != "" || m.SubType == "bot_message"
}

// Message decodes the inner event as a message event. The workspace id is
// taken from the envelope, falling back to the event's own team field.
func (e Envelope) Message() (InboundMessage, error) {
	var ev slackevents.MessageEvent
	if err := json.Unmarshal(e.Event, &ev); err != nil {
		return InboundMessage{}, fmt.Errorf("decode slack event: %w", err)
	}
	var team struct {
		Team string `json:"team"`
	}
	_ = json.Unmarshal(e.Event, &team)

	teamID := strings.TrimSpace(e.TeamID)
	if teamID == "" {
		teamID = strings.TrimSpace(team.Team)
	}
	return InboundMessage{
		TeamID:    teamID,
		ChannelID: strings.TrimSpace(ev.Channel),
		UserID:    ev.User,
		Text:      ev.Text,
		TS:        ev.TimeStamp,
		BotID:     ev.BotID,
		SubType:   ev.SubType,
	}, nil
}
