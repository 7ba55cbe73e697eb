package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigPath     = "config.toml"
	DefaultEnvFile        = ".env"
	DefaultHTTPAddr       = ":8080"
	DefaultWindowSize     = 5
	DefaultGeminiModel    = "gemini-1.5-flash-8b"
	DefaultGeminiTimeout  = "30s"
	DefaultSlackAPIURL    = "https://slack.com/api/"
	DefaultSlackAuthorize = "https://slack.com/oauth/v2/authorize"
	DefaultJWTExpiresIn   = "24h"
	DefaultFallbackReply  = "I couldn't generate a response."
	DefaultPersona        = "You are Ankits Droid, a helpful AI assistant, and you are having a conversation with a user. Respond naturally and informatively."
	DefaultSlackBotScopes = "chat:write,channels:history,groups:history,im:history,app_mentions:read"
	envGeminiAPIKey       = "GEMINI_API_KEY"
	envSlackBotToken      = "SLACK_BOT_TOKEN"
	envSlackSigningSecret = "SLACK_SIGNING_SECRET"
	envSlackRedirectURI   = "SLACK_REDIRECT_URI"
	envSlackClientID      = "SLACK_CLIENT_ID"
	envSlackClientSecret  = "SLACK_CLIENT_SECRET"
	envHTTPAddr           = "HTTP_ADDR"
	envLogLevel           = "LOG_LEVEL"
	envJWTSecret          = "JWT_SECRET"
)

type Config struct {
	Log          LogConfig          `toml:"log"`
	Server       ServerConfig       `toml:"server"`
	Auth         AuthConfig         `toml:"auth"`
	Gemini       GeminiConfig       `toml:"gemini"`
	Slack        SlackConfig        `toml:"slack"`
	Conversation ConversationConfig `toml:"conversation"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `toml:"format" validate:"omitempty,oneof=text json"`
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type GeminiConfig struct {
	APIKey        string `toml:"api_key"`
	Model         string `toml:"model" validate:"required"`
	Persona       string `toml:"persona"`
	Timeout       string `toml:"timeout"`
	FallbackReply string `toml:"fallback_reply" validate:"required"`
}

// TimeoutDuration parses Timeout, falling back to the default on bad input.
func (c GeminiConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultGeminiTimeout)
	}
	return d
}

type SlackConfig struct {
	BotToken         string   `toml:"bot_token"`
	SigningSecret    string   `toml:"signing_secret"`
	VerifySignatures bool     `toml:"verify_signatures"`
	ClientID         string   `toml:"client_id"`
	ClientSecret     string   `toml:"client_secret"`
	RedirectURI      string   `toml:"redirect_uri" validate:"omitempty,url"`
	APIURL           string   `toml:"api_url" validate:"required,url"`
	AuthorizeURL     string   `toml:"authorize_url" validate:"required,url"`
	Scopes           []string `toml:"scopes"`
	EchoInstallToken bool     `toml:"echo_install_token"`
}

type ConversationConfig struct {
	WindowSize int `toml:"window_size" validate:"min=1,max=100"`
}

// Load reads defaults, then the toml file at path (if present), then the
// process environment (after loading a .env file when one exists).
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Gemini: GeminiConfig{
			Model:         DefaultGeminiModel,
			Persona:       DefaultPersona,
			Timeout:       DefaultGeminiTimeout,
			FallbackReply: DefaultFallbackReply,
		},
		Slack: SlackConfig{
			APIURL:           DefaultSlackAPIURL,
			AuthorizeURL:     DefaultSlackAuthorize,
			Scopes:           strings.Split(DefaultSlackBotScopes, ","),
			EchoInstallToken: true,
		},
		Conversation: ConversationConfig{
			WindowSize: DefaultWindowSize,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := godotenv.Load(DefaultEnvFile); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}
	applyEnv(&cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values with any variables that are set and non-empty.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Gemini.APIKey, envGeminiAPIKey)
	set(&cfg.Slack.BotToken, envSlackBotToken)
	set(&cfg.Slack.SigningSecret, envSlackSigningSecret)
	set(&cfg.Slack.RedirectURI, envSlackRedirectURI)
	set(&cfg.Slack.ClientID, envSlackClientID)
	set(&cfg.Slack.ClientSecret, envSlackClientSecret)
	set(&cfg.Server.Addr, envHTTPAddr)
	set(&cfg.Log.Level, envLogLevel)
	set(&cfg.Auth.JWTSecret, envJWTSecret)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field formats and the cross-field rules validator tags
// cannot express.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Slack.VerifySignatures && strings.TrimSpace(cfg.Slack.SigningSecret) == "" {
		return fmt.Errorf("invalid config: slack.verify_signatures requires a signing secret")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		if d, err := time.ParseDuration(cfg.Auth.JWTExpiresIn); err != nil || d <= 0 {
			return fmt.Errorf("invalid config: auth.jwt_expires_in %q", cfg.Auth.JWTExpiresIn)
		}
	}
	return nil
}
