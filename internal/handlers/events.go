package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/slackrelay/internal/config"
	"github.com/memohai/slackrelay/internal/conversation"
	"github.com/memohai/slackrelay/internal/credentials"
	"github.com/memohai/slackrelay/internal/relay"
	"github.com/memohai/slackrelay/internal/slackbot"
)

type messageRelay interface {
	HandleMessage(ctx context.Context, msg relay.Message) (relay.Outcome, error)
}

// EventsHandler receives Slack Events API callbacks.
type EventsHandler struct {
	logger      *slog.Logger
	relay       messageRelay
	middlewares []echo.MiddlewareFunc
}

// NewEventsHandler creates the /slack/events handler. Signature verification
// is only installed when verifySecret is non-empty.
func NewEventsHandler(log *slog.Logger, svc messageRelay, verifySecret string) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	h := &EventsHandler{
		logger: log.With(slog.String("handler", "slack_events")),
		relay:  svc,
	}
	if verifySecret != "" {
		h.middlewares = append(h.middlewares, slackbot.VerifySignature(log, verifySecret))
	} else {
		h.logger.Warn("slack request signature verification is disabled; any caller can post events")
	}
	return h
}

// NewEventsServerHandler is a DI-friendly constructor for fx.
func NewEventsServerHandler(log *slog.Logger, svc *relay.Service, cfg config.Config) *EventsHandler {
	secret := ""
	if cfg.Slack.VerifySignatures {
		secret = cfg.Slack.SigningSecret
	}
	return NewEventsHandler(log, svc, secret)
}

func (h *EventsHandler) Register(e *echo.Echo) {
	e.POST("/slack/events", h.Handle, h.middlewares...)
}

// Handle godoc
// @Summary Slack Events API callback
// @Description Answers the URL verification challenge or relays a message event to the model
// @Tags slack
// @Accept json
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Router /slack/events [post]
func (h *EventsHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, slackbot.MaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(payload)) > slackbot.MaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", slackbot.MaxBodyBytes))
	}
	if challenge, ok := slackbot.ParseChallenge(payload); ok {
		return c.JSON(http.StatusOK, map[string]json.RawMessage{"challenge": challenge})
	}
	env, err := slackbot.ParseEnvelope(payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !env.IsCallback() {
		return c.JSON(http.StatusOK, StatusResponse{Status: StatusOK})
	}

	msg, err := env.Message()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if msg.FromBot() {
		return c.JSON(http.StatusOK, StatusResponse{Status: StatusBotIgnored})
	}

	log := h.logger.With(
		slog.String("event_id", env.EventID),
		slog.String("team_id", msg.TeamID),
		slog.String("channel_id", msg.ChannelID),
		slog.String("ts", msg.TS),
	)
	outcome, err := h.relay.HandleMessage(c.Request().Context(), relay.Message{
		TeamID:    msg.TeamID,
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Text:      msg.Text,
	})
	switch {
	case err == nil:
		log.Debug("message relayed", slog.Bool("delivered", outcome.Delivered), slog.String("failure", string(outcome.Failure)))
	case errors.Is(err, credentials.ErrNotInstalled):
		return c.JSON(http.StatusOK, StatusResponse{Status: StatusNotInstalled})
	case errors.Is(err, relay.ErrEmptyMessage), errors.Is(err, conversation.ErrChannelRequired):
		log.Debug("event skipped", slog.Any("error", err))
	default:
		log.Error("relay failed", slog.Any("error", err))
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: StatusOK})
}
