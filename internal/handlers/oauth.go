package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/memohai/slackrelay/internal/config"
	"github.com/memohai/slackrelay/internal/credentials"
	"github.com/memohai/slackrelay/internal/slackbot"
)

type installer interface {
	Exchange(ctx context.Context, code string) (credentials.Installation, error)
	InstallURL(state string) string
}

// InstallResponse confirms a completed install.
type InstallResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// OAuthHandler runs the Slack "Add to Slack" install flow.
type OAuthHandler struct {
	logger    *slog.Logger
	installer installer
	store     credentials.Store
	echoToken bool
}

func NewOAuthHandler(log *slog.Logger, inst installer, store credentials.Store, echoToken bool) *OAuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OAuthHandler{
		logger:    log.With(slog.String("handler", "slack_oauth")),
		installer: inst,
		store:     store,
		echoToken: echoToken,
	}
}

// NewOAuthServerHandler is a DI-friendly constructor for fx.
func NewOAuthServerHandler(log *slog.Logger, inst *slackbot.Installer, store credentials.Store, cfg config.Config) *OAuthHandler {
	return NewOAuthHandler(log, inst, store, cfg.Slack.EchoInstallToken)
}

func (h *OAuthHandler) Register(e *echo.Echo) {
	e.GET("/slack/oauth", h.Callback)
	e.GET("/slack/install", h.Install)
}

// Install godoc
// @Summary Start the Slack install flow
// @Tags slack
// @Success 302
// @Router /slack/install [get]
func (h *OAuthHandler) Install(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.installer.InstallURL(uuid.NewString()))
}

// Callback godoc
// @Summary Slack OAuth redirect
// @Description Exchanges the authorization code and stores the workspace bot token
// @Tags slack
// @Param code query string true "Authorization code"
// @Success 200 {object} InstallResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /slack/oauth [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing code"})
	}

	inst, err := h.installer.Exchange(c.Request().Context(), code)
	if err != nil {
		resp := ErrorResponse{Error: "OAuth failed"}
		var exErr *slackbot.ExchangeError
		if errors.As(err, &exErr) {
			resp.Details = exErr.Details
		}
		h.logger.Warn("oauth exchange failed", slog.Any("error", err))
		return c.JSON(http.StatusBadGateway, resp)
	}

	if err := h.store.Put(c.Request().Context(), inst); err != nil {
		h.logger.Error("store installation failed", slog.String("team_id", inst.TeamID), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store installation failed"})
	}
	h.logger.Info("workspace installed",
		slog.String("team_id", inst.TeamID),
		slog.String("team_name", inst.TeamName),
	)

	resp := InstallResponse{Message: fmt.Sprintf("Bot successfully installed in %s!", inst.TeamName)}
	if h.echoToken {
		resp.Token = inst.AccessToken
	}
	return c.JSON(http.StatusOK, resp)
}
