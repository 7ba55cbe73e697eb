package slackbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/memohai/slackrelay/internal/prune"
)

// MaxMessageBytes is Slack's limit on chat.postMessage text. Longer replies
// are cut rather than rejected with msg_too_long.
const MaxMessageBytes = 40000

// Messenger posts text into a Slack channel on behalf of a workspace token.
type Messenger interface {
	PostText(ctx context.Context, token, channelID, text string) error
}

// Client builds a token-scoped slack.Client per delivery. Clients hold no
// state that needs releasing.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiURL:     normalizeAPIURL(apiURL),
		httpClient: httpClient,
	}
}

func (c *Client) api(token string) *slack.Client {
	return slack.New(token, slack.OptionHTTPClient(c.httpClient), slack.OptionAPIURL(c.apiURL))
}

func (c *Client) PostText(ctx context.Context, token, channelID, text string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("slack token is required")
	}
	if strings.TrimSpace(channelID) == "" {
		return errors.New("slack channel is required")
	}
	text = prune.Truncate(text, MaxMessageBytes, prune.DefaultMarker)
	_, _, err := c.api(token).PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postMessage %s: %w", channelID, err)
	}
	return nil
}

func normalizeAPIURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = slack.APIURL
	}
	return strings.TrimRight(base, "/") + "/"
}
