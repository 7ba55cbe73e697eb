package slackbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/slackrelay/internal/logger"
)

func sign(secret, ts, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func runVerified(t *testing.T, secret string, headers map[string]string, body string) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := VerifySignature(logger.Discard(), secret)(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		seen = string(b)
		return err
	})
	err := h(c)
	return seen, err
}

func TestVerifySignature_Valid(t *testing.T) {
	t.Parallel()

	body := `{"type":"event_callback"}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	seen, err := runVerified(t, "shh", map[string]string{
		"X-Slack-Request-Timestamp": ts,
		"X-Slack-Signature":         sign("shh", ts, body),
	}, body)

	require.NoError(t, err)
	assert.Equal(t, body, seen, "body must be restored for the handler")
}

func TestVerifySignature_Rejects(t *testing.T) {
	t.Parallel()

	body := `{"type":"event_callback"}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	cases := map[string]map[string]string{
		"missing headers": {},
		"wrong secret": {
			"X-Slack-Request-Timestamp": ts,
			"X-Slack-Signature":         sign("other", ts, body),
		},
		"stale timestamp": {
			"X-Slack-Request-Timestamp": stale,
			"X-Slack-Signature":         sign("shh", stale, body),
		},
	}
	for name, headers := range cases {
		_, err := runVerified(t, "shh", headers, body)
		require.Error(t, err, name)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, name)
		assert.Equal(t, http.StatusUnauthorized, he.Code, name)
	}
}
