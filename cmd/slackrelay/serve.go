package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/slackrelay/internal/chat"
	"github.com/memohai/slackrelay/internal/config"
	"github.com/memohai/slackrelay/internal/conversation"
	"github.com/memohai/slackrelay/internal/credentials"
	"github.com/memohai/slackrelay/internal/handlers"
	"github.com/memohai/slackrelay/internal/logger"
	"github.com/memohai/slackrelay/internal/relay"
	"github.com/memohai/slackrelay/internal/server"
	"github.com/memohai/slackrelay/internal/slackbot"
	"github.com/memohai/slackrelay/internal/version"
)

const slackHTTPTimeout = 15 * time.Second

func runServe() error {
	app := fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideSlackHTTPClient,
			provideWindowStore,
			provideCredentialStore,
			provideTokenResolver,
			provideCompleter,
			provideMessenger,
			provideInstaller,
			provideRelayService,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewEventsServerHandler),
			provideServerHandler(handlers.NewOAuthServerHandler),
			provideServerHandler(handlers.NewAdminHandler),
			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideSlackHTTPClient() *http.Client {
	return &http.Client{Timeout: slackHTTPTimeout}
}

func provideWindowStore(cfg config.Config) conversation.Store {
	return conversation.NewMemoryStore(cfg.Conversation.WindowSize)
}

func provideCredentialStore() credentials.Store {
	return credentials.NewMemoryStore()
}

func provideTokenResolver(log *slog.Logger, store credentials.Store, cfg config.Config) relay.TokenResolver {
	if cfg.Slack.BotToken == "" {
		log.Info("no static bot token configured; only OAuth-installed workspaces will be answered")
	}
	return credentials.NewResolver(store, cfg.Slack.BotToken)
}

func provideCompleter(log *slog.Logger, cfg config.Config) relay.Completer {
	provider := chat.NewGoogleProvider(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if cfg.Gemini.APIKey == "" {
		log.Warn("gemini api key is empty; every reply will use the fallback text")
	}
	log.Info("gemini provider configured", slog.String("model", provider.Model()))
	return chat.NewClient(log, provider, cfg.Gemini.Persona, cfg.Gemini.TimeoutDuration())
}

func provideMessenger(cfg config.Config, httpClient *http.Client) slackbot.Messenger {
	return slackbot.NewClient(cfg.Slack.APIURL, httpClient)
}

func provideInstaller(cfg config.Config, httpClient *http.Client) (*slackbot.Installer, error) {
	return slackbot.NewInstaller(slackbot.OAuthConfig{
		ClientID:     cfg.Slack.ClientID,
		ClientSecret: cfg.Slack.ClientSecret,
		RedirectURI:  cfg.Slack.RedirectURI,
		Scopes:       cfg.Slack.Scopes,
		APIURL:       cfg.Slack.APIURL,
		AuthorizeURL: cfg.Slack.AuthorizeURL,
	}, httpClient)
}

func provideRelayService(log *slog.Logger, windows conversation.Store, completer relay.Completer, tokens relay.TokenResolver, messenger slackbot.Messenger, cfg config.Config) *relay.Service {
	return relay.NewService(log, windows, completer, tokens, messenger, cfg.Gemini.FallbackReply)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting slack relay",
				slog.String("version", version.GetInfo()),
				slog.String("addr", srv.Addr()),
			)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
