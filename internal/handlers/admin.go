package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/slackrelay/internal/auth"
	"github.com/memohai/slackrelay/internal/config"
	"github.com/memohai/slackrelay/internal/conversation"
	"github.com/memohai/slackrelay/internal/credentials"
	"github.com/memohai/slackrelay/internal/healthcheck"
	"github.com/memohai/slackrelay/internal/relay"
)

// AdminHandler exposes installed workspaces and conversation windows to
// operators holding an admin JWT.
type AdminHandler struct {
	logger    *slog.Logger
	store     credentials.Store
	relay     *relay.Service
	checkers  []healthcheck.Checker
	jwtSecret string
}

func NewAdminHandler(log *slog.Logger, store credentials.Store, svc *relay.Service, cfg config.Config) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{
		logger: log.With(slog.String("handler", "admin")),
		store:  store,
		relay:  svc,
		checkers: []healthcheck.Checker{
			healthcheck.GeminiChecker(cfg.Gemini.APIKey, cfg.Gemini.Model),
			healthcheck.CredentialsChecker(store, cfg.Slack.BotToken),
		},
		jwtSecret: strings.TrimSpace(cfg.Auth.JWTSecret),
	}
}

// Register mounts /admin only when a JWT secret is configured.
func (h *AdminHandler) Register(e *echo.Echo) {
	if h.jwtSecret == "" {
		h.logger.Info("admin api disabled: auth.jwt_secret is empty")
		return
	}
	group := e.Group("/admin", auth.JWTMiddleware(h.jwtSecret, nil), h.requireAdmin)
	group.GET("/checks", h.Checks)
	group.GET("/workspaces", h.ListWorkspaces)
	group.GET("/channels", h.ListChannels)
	group.GET("/channels/:channel_id/window", h.GetWindow)
	group.DELETE("/channels/:channel_id/window", h.ResetWindow)
}

func (h *AdminHandler) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.AdminFromContext(c); err != nil {
			return err
		}
		return next(c)
	}
}

// Checks godoc
// @Summary Readiness checks
// @Tags admin
// @Success 200 {object} healthcheck.Report
// @Router /admin/checks [get]
func (h *AdminHandler) Checks(c echo.Context) error {
	return c.JSON(http.StatusOK, healthcheck.Run(c.Request().Context(), h.checkers...))
}

// ListWorkspaces godoc
// @Summary List installed workspaces
// @Tags admin
// @Success 200 {array} credentials.Installation
// @Failure 500 {object} ErrorResponse
// @Router /admin/workspaces [get]
func (h *AdminHandler) ListWorkspaces(c echo.Context) error {
	items, err := h.store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// ListChannels godoc
// @Summary List channels with a conversation window
// @Tags admin
// @Success 200 {array} string
// @Router /admin/channels [get]
func (h *AdminHandler) ListChannels(c echo.Context) error {
	ids, err := h.relay.Channels(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ids)
}

// GetWindow godoc
// @Summary Get a channel's conversation window
// @Tags admin
// @Param channel_id path string true "Slack channel id"
// @Success 200 {object} conversation.Window
// @Router /admin/channels/{channel_id}/window [get]
func (h *AdminHandler) GetWindow(c echo.Context) error {
	channelID := strings.TrimSpace(c.Param("channel_id"))
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel id is required")
	}
	turns, err := h.relay.Window(c.Request().Context(), channelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conversation.Window{ChannelID: channelID, Turns: turns})
}

// ResetWindow godoc
// @Summary Clear a channel's conversation window
// @Tags admin
// @Param channel_id path string true "Slack channel id"
// @Success 204
// @Router /admin/channels/{channel_id}/window [delete]
func (h *AdminHandler) ResetWindow(c echo.Context) error {
	channelID := strings.TrimSpace(c.Param("channel_id"))
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel id is required")
	}
	if err := h.relay.ResetWindow(c.Request().Context(), channelID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("window reset", slog.String("channel_id", channelID))
	return c.NoContent(http.StatusNoContent)
}
