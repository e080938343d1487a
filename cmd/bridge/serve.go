package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/channel/adapters/teams"
	"github.com/linebridge/bridge/internal/channel/inbound"
	"github.com/linebridge/bridge/internal/channel/outbound"
	"github.com/linebridge/bridge/internal/config"
	"github.com/linebridge/bridge/internal/handlers"
	"github.com/linebridge/bridge/internal/healthcheck"
	tokenchecker "github.com/linebridge/bridge/internal/healthcheck/checkers/token"
	"github.com/linebridge/bridge/internal/logger"
	"github.com/linebridge/bridge/internal/metrics"
	"github.com/linebridge/bridge/internal/notice"
	"github.com/linebridge/bridge/internal/server"
)

const shutdownTimeout = 15 * time.Second

type configPath string

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(opts.configPath)
		},
	}
}

func runServe(path string) error {
	app := fx.New(
		fx.Supply(configPath(path)),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideRegistry,
			metrics.New,
			provideLINEClient,
			provideTeamsClient,
			provideProfileResolver,
			provideExtractor,
			provideNormalizer,
			provideDispatcher,
			provideInboundProcessor,
			provideHealthMonitor,
			provideLineWebhookHandler,
			provideServerHandler(func(h *handlers.LineWebhookHandler) *handlers.LineWebhookHandler { return h }),
			provideServerHandler(provideTeamsWebhookHandler),
			provideServerHandler(provideHealthHandler),
			provideServer,
		),
		fx.Invoke(
			startHealthMonitor,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return err
	}
	if sig.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", sig.ExitCode)
	}
	return nil
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig(path configPath) (config.Config, error) {
	return config.Load(string(path))
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideRegistry(log *slog.Logger) (*channel.Registry, error) {
	pairs, err := config.LoadChannelPairs()
	if err != nil {
		return nil, err
	}
	registry, err := channel.NewRegistry(config.ToChannelPairs(pairs))
	if err != nil {
		return nil, err
	}
	for _, pair := range registry.List() {
		log.Info("channel pair loaded", slog.String("pair", pair.Key), slog.Int("recipients", len(pair.RecipientIDs)))
	}
	return registry, nil
}

func provideLINEClient(log *slog.Logger, cfg config.Config) *line.Client {
	return line.NewClient(log, cfg.LINE.APIBaseURL, time.Duration(cfg.LINE.TimeoutSeconds)*time.Second)
}

func provideTeamsClient(log *slog.Logger, cfg config.Config) *teams.Client {
	return teams.NewClient(log, time.Duration(cfg.Teams.TimeoutSeconds)*time.Second)
}

func provideProfileResolver(log *slog.Logger, client *line.Client) *line.ProfileResolver {
	return line.NewProfileResolver(log, client)
}

func provideExtractor(cfg config.Config) *notice.Extractor {
	return notice.NewExtractor(cfg.Extractor.SubjectKeywords)
}

func provideNormalizer(registry *channel.Registry, extractor *notice.Extractor) *outbound.Normalizer {
	return outbound.NewNormalizer(registry, extractor)
}

func provideDispatcher(log *slog.Logger, cfg config.Config, client *line.Client, m *metrics.Metrics) *outbound.Dispatcher {
	return outbound.NewDispatcher(log, client, cfg.Dispatch.Concurrency, m)
}

func provideInboundProcessor(log *slog.Logger, registry *channel.Registry, names *line.ProfileResolver, client *teams.Client, m *metrics.Metrics) *inbound.Processor {
	return inbound.NewProcessor(log, registry, names, client, m)
}

func provideHealthMonitor(log *slog.Logger, registry *channel.Registry, client *line.Client, m *metrics.Metrics) *healthcheck.Monitor {
	return healthcheck.NewMonitor(log, tokenchecker.NewChecker(log, registry, client, m))
}

func provideLineWebhookHandler(log *slog.Logger, processor *inbound.Processor) *handlers.LineWebhookHandler {
	return handlers.NewLineWebhookHandler(log, processor)
}

func provideTeamsWebhookHandler(log *slog.Logger, normalizer *outbound.Normalizer, dispatcher *outbound.Dispatcher, m *metrics.Metrics) *handlers.TeamsWebhookHandler {
	return handlers.NewTeamsWebhookHandler(log, normalizer, dispatcher, m)
}

func provideHealthHandler(log *slog.Logger, monitor *healthcheck.Monitor) *handlers.HealthHandler {
	return handlers.NewHealthHandler(log, monitor)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	Metrics        *metrics.Metrics
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Metrics, params.ServerHandlers...)
}

func startHealthMonitor(lc fx.Lifecycle, cfg config.Config, monitor *healthcheck.Monitor) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go monitor.Refresh(context.Background())
			return monitor.Start(cfg.Health.TokenCheckSchedule)
		},
		OnStop: func(ctx context.Context) error { monitor.Stop(ctx); return nil },
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, lineHandler *handlers.LineWebhookHandler, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("starting bridge", slog.String("version", version), slog.String("addr", srv.Addr()))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			if err := lineHandler.Wait(ctx); err != nil {
				logger.Warn("line webhook batches still running at shutdown", slog.Any("error", err))
			}
			return nil
		},
	})
}
