package slackbot

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"
)

// VerifySignature returns middleware that rejects requests whose
// X-Slack-Signature does not match the signing secret. The body is restored
// for the next handler.
func VerifySignature(log *slog.Logger, signingSecret string) echo.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("middleware", "slack_signature"))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			body, err := io.ReadAll(io.LimitReader(req.Body, MaxBodyBytes+1))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "read body")
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			sv, err := slack.NewSecretsVerifier(req.Header, signingSecret)
			if err != nil {
				log.Warn("signature headers rejected", slog.Any("error", err))
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid slack signature")
			}
			if _, err := sv.Write(body); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "read body")
			}
			if err := sv.Ensure(); err != nil {
				log.Warn("signature mismatch", slog.Any("error", err))
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid slack signature")
			}
			return next(c)
		}
	}
}

// MaxBodyBytes caps inbound Events API payloads.
const MaxBodyBytes int64 = 1 << 20 // 1 MiB
