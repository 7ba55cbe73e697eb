package slackbot

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOAuthConfig(apiURL string) OAuthConfig {
	return OAuthConfig{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURI:  "https://relay.example.com/slack/oauth",
		Scopes:       []string{"chat:write", "channels:history"},
		APIURL:       apiURL,
		AuthorizeURL: "https://slack.com/oauth/v2/authorize",
	}
}

func TestInstaller_ExchangeSuccess(t *testing.T) {
	t.Parallel()

	var form url.Values
	srv := newFakeSlackAPI(t, map[string]http.HandlerFunc{
		"oauth.v2.access": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true,"access_token":"xoxb-new","token_type":"bot","scope":"chat:write","bot_user_id":"UBOT","app_id":"A1","team":{"id":"T1","name":"Acme"}}`))
		},
	})

	installer, err := NewInstaller(testOAuthConfig(srv.URL+"/api"), srv.Client())
	require.NoError(t, err)

	inst, err := installer.Exchange(context.Background(), "code-1")
	require.NoError(t, err)

	assert.Equal(t, "T1", inst.TeamID)
	assert.Equal(t, "Acme", inst.TeamName)
	assert.Equal(t, "xoxb-new", inst.AccessToken)
	assert.Equal(t, "UBOT", inst.BotUserID)
	assert.Equal(t, "cid", form.Get("client_id"))
	assert.Equal(t, "csecret", form.Get("client_secret"))
	assert.Equal(t, "code-1", form.Get("code"))
	assert.Equal(t, "https://relay.example.com/slack/oauth", form.Get("redirect_uri"))
}

func TestInstaller_ExchangeRejectedKeepsDetails(t *testing.T) {
	t.Parallel()

	srv := newFakeSlackAPI(t, map[string]http.HandlerFunc{
		"oauth.v2.access": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_code"}`))
		},
	})

	installer, err := NewInstaller(testOAuthConfig(srv.URL+"/api/"), srv.Client())
	require.NoError(t, err)

	_, err = installer.Exchange(context.Background(), "bad")
	require.Error(t, err)

	var exErr *ExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, false, exErr.Details["ok"])
	assert.Equal(t, "invalid_code", exErr.Details["error"])
}

func TestInstaller_ExchangeRequiresCode(t *testing.T) {
	t.Parallel()

	installer, err := NewInstaller(testOAuthConfig(""), nil)
	require.NoError(t, err)

	_, err = installer.Exchange(context.Background(), "  ")
	assert.Error(t, err)
}

func TestInstaller_InstallURL(t *testing.T) {
	t.Parallel()

	installer, err := NewInstaller(testOAuthConfig(""), nil)
	require.NoError(t, err)

	raw := installer.InstallURL("state-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "slack.com", u.Host)
	assert.Equal(t, "/oauth/v2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "chat:write,channels:history", q.Get("scope"))
	assert.Equal(t, "https://relay.example.com/slack/oauth", q.Get("redirect_uri"))
	assert.Equal(t, "state-1", q.Get("state"))
}
