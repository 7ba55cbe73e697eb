package slackbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/oauth2"

	"github.com/memohai/slackrelay/internal/credentials"
)

const oauthAccessMethod = "oauth.v2.access"

// OAuthConfig carries the app credentials used by the install flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	APIURL       string
	AuthorizeURL string
}

// ExchangeError is returned when Slack rejects an authorization code. Details
// holds the raw response body when one was received.
type ExchangeError struct {
	Details map[string]any
	Err     error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth exchange: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Installer exchanges authorization codes for workspace bot tokens.
type Installer struct {
	cfg        OAuthConfig
	apiURL     *url.URL
	httpClient *http.Client
}

func NewInstaller(cfg OAuthConfig, httpClient *http.Client) (*Installer, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base, err := url.Parse(normalizeAPIURL(cfg.APIURL))
	if err != nil {
		return nil, fmt.Errorf("parse slack api url: %w", err)
	}
	return &Installer{cfg: cfg, apiURL: base, httpClient: httpClient}, nil
}

// Exchange trades code for an installation via oauth.v2.access. The request
// is form encoded with client_id, client_secret, code and redirect_uri.
func (i *Installer) Exchange(ctx context.Context, code string) (credentials.Installation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return credentials.Installation{}, errors.New("authorization code is required")
	}
	rec := &recordingDoer{base: i.apiURL, inner: i.httpClient}
	resp, err := slack.GetOAuthV2ResponseContext(ctx, rec, i.cfg.ClientID, i.cfg.ClientSecret, code, i.cfg.RedirectURI)
	if err != nil {
		return credentials.Installation{}, &ExchangeError{Details: rec.details(), Err: err}
	}
	if strings.TrimSpace(resp.AccessToken) == "" || strings.TrimSpace(resp.Team.ID) == "" {
		return credentials.Installation{}, &ExchangeError{
			Details: rec.details(),
			Err:     errors.New("response is missing access_token or team"),
		}
	}
	return credentials.Installation{
		TeamID:      resp.Team.ID,
		TeamName:    resp.Team.Name,
		AccessToken: resp.AccessToken,
		BotUserID:   resp.BotUserID,
		AppID:       resp.AppID,
		Scope:       resp.Scope,
		InstalledAt: time.Now().UTC(),
	}, nil
}

// InstallURL returns the Slack authorize URL that starts the install flow.
func (i *Installer) InstallURL(state string) string {
	conf := oauth2.Config{
		ClientID:     i.cfg.ClientID,
		ClientSecret: i.cfg.ClientSecret,
		RedirectURL:  i.cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   i.cfg.AuthorizeURL,
			TokenURL:  i.apiURL.String() + oauthAccessMethod,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	opts := []oauth2.AuthCodeOption{}
	if len(i.cfg.Scopes) > 0 {
		// Slack expects comma separated scopes; oauth2 would join with spaces.
		opts = append(opts, oauth2.SetAuthURLParam("scope", strings.Join(i.cfg.Scopes, ",")))
	}
	return conf.AuthCodeURL(state, opts...)
}

// recordingDoer points slack-go at the configured API base and keeps the raw
// response body for diagnostics.
type recordingDoer struct {
	base  *url.URL
	inner *http.Client
	body  []byte
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	method := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
	target := d.base.ResolveReference(&url.URL{Path: method, RawQuery: req.URL.RawQuery})
	req.URL = target
	req.Host = target.Host

	resp, err := d.inner.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	d.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (d *recordingDoer) details() map[string]any {
	if len(d.body) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(d.body, &out); err != nil {
		return map[string]any{"raw": string(d.body)}
	}
	return out
}
