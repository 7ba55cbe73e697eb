// Package relay answers Slack messages with model completions, keeping a
// bounded conversation window per channel.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/slackrelay/internal/chat"
	"github.com/memohai/slackrelay/internal/conversation"
	"github.com/memohai/slackrelay/internal/slackbot"
)

// ErrEmptyMessage is returned for events without text to answer.
var ErrEmptyMessage = errors.New("message has no text")

// Completer produces a reply for a conversation window.
type Completer interface {
	Complete(ctx context.Context, history []conversation.Turn, message string) chat.Result
}

// TokenResolver finds the bot token for a workspace.
type TokenResolver interface {
	Token(ctx context.Context, teamID string) (string, error)
}

// Message is one inbound user message.
type Message struct {
	TeamID    string
	ChannelID string
	UserID    string
	Text      string
}

// Outcome describes what HandleMessage did.
type Outcome struct {
	Reply     string
	Failure   chat.Failure
	Delivered bool
	Window    []conversation.Turn
}

type Service struct {
	logger    *slog.Logger
	windows   conversation.Store
	completer Completer
	tokens    TokenResolver
	messenger slackbot.Messenger
	fallback  string
}

func NewService(log *slog.Logger, windows conversation.Store, completer Completer, tokens TokenResolver, messenger slackbot.Messenger, fallback string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:    log.With(slog.String("service", "relay")),
		windows:   windows,
		completer: completer,
		tokens:    tokens,
		messenger: messenger,
		fallback:  fallback,
	}
}

// HandleMessage records the user turn, asks the model for a reply, records
// the reply, and posts it to the originating channel.
//
// A completion failure is replaced by the fallback reply. A delivery failure
// is logged and reported through Outcome.Delivered only. A workspace without
// credentials yields an error wrapping credentials.ErrNotInstalled after the
// window has been updated.
func (s *Service) HandleMessage(ctx context.Context, msg Message) (Outcome, error) {
	channelID := strings.TrimSpace(msg.ChannelID)
	if channelID == "" {
		return Outcome{}, conversation.ErrChannelRequired
	}
	if strings.TrimSpace(msg.Text) == "" {
		return Outcome{}, ErrEmptyMessage
	}
	log := s.logger.With(
		slog.String("team_id", msg.TeamID),
		slog.String("channel_id", channelID),
		slog.String("user_id", msg.UserID),
	)

	window, err := s.windows.Append(ctx, channelID, conversation.UserTurn(msg.Text))
	if err != nil {
		return Outcome{}, fmt.Errorf("append user turn: %w", err)
	}

	result := s.completer.Complete(ctx, window, "")
	if !result.OK() {
		log.Warn("using fallback reply",
			slog.String("failure", string(result.Failure)),
			slog.Any("error", result.Err),
		)
	}
	reply := result.TextOr(s.fallback)

	window, err = s.windows.Append(ctx, channelID, conversation.ModelTurn(reply))
	if err != nil {
		return Outcome{}, fmt.Errorf("append model turn: %w", err)
	}
	out := Outcome{Reply: reply, Failure: result.Failure, Window: window}

	token, err := s.tokens.Token(ctx, msg.TeamID)
	if err != nil {
		log.Error("no credential for workspace", slog.Any("error", err))
		return out, err
	}

	if err := s.messenger.PostText(ctx, token, channelID, reply); err != nil {
		log.Error("error posting message", slog.Any("error", err))
		return out, nil
	}
	out.Delivered = true
	return out, nil
}

// Window returns the current window for a channel.
func (s *Service) Window(ctx context.Context, channelID string) ([]conversation.Turn, error) {
	return s.windows.Get(ctx, channelID)
}

// ResetWindow clears the window for a channel.
func (s *Service) ResetWindow(ctx context.Context, channelID string) error {
	return s.windows.Reset(ctx, channelID)
}

// Channels lists channels that currently have a window.
func (s *Service) Channels(ctx context.Context) ([]string, error) {
	return s.windows.Channels(ctx)
}
