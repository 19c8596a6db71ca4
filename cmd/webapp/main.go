package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/adapters/backend"
	"tg-summary-webapp/internal/adapters/webapp"
	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/i18n"
	"tg-summary-webapp/internal/infra/cache"
	"tg-summary-webapp/internal/infra/config"
	httpinfra "tg-summary-webapp/internal/infra/http"
	logpkg "tg-summary-webapp/internal/infra/log"
	"tg-summary-webapp/internal/infra/metrics"
	"tg-summary-webapp/internal/usecase/auth"
	"tg-summary-webapp/internal/usecase/navigation"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)
	}

	storage, closeStorage := newStorage(ctx, cfg, logger)
	defer closeStorage()

	client, err := backend.New(cfg.API.BaseURL,
		backend.WithTimeout(cfg.API.Timeout),
		backend.WithNotifyTimeout(cfg.API.NotifyTimeout),
		backend.WithLogger(logger.With().Str("component", "backend").Logger()),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("webapp: клиент бэкенда")
	}

	catalog, err := i18n.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("webapp: каталоги переводов")
	}
	if cfg.Telegram.Token == "" {
		logger.Warn().Msg("webapp: TG_BOT_TOKEN не задан, initData принимается без проверки подписи")
	}

	sessions := webapp.NewSessions(client, cfg.Location(), logger.With().Str("component", "sessions").Logger(),
		cfg.Sessions.Max, webapp.WithIdleTTL(cfg.Sessions.IdleTTL))
	go sessions.Run(ctx, 0)

	handler := webapp.NewHandler(webapp.Deps{
		Sessions: sessions,
		Plans:    client,
		Auth:     auth.NewService(client, storage, cfg.Telegram.BotUsername, logger.With().Str("component", "auth").Logger()),
		Guard:    navigation.NewGuard(storage, logger.With().Str("component", "guard").Logger()),
		Locales:  i18n.NewStore(storage, cfg.DefaultLocale),
		Catalog:  catalog,
		Location: cfg.Location(),
		Logger:   logger.With().Str("component", "webapp").Logger(),
	})

	server := httpinfra.NewServer(logger)
	server.Router.Group(func(r chi.Router) {
		r.Use(webapp.ClientMiddleware(cfg.Client.Cookie, cfg.Client.StorageTTL))
		r.Use(httpinfra.AmbientUserMiddleware(cfg.Telegram.Token, cfg.Telegram.InitDataMaxAge, logger))
		handler.Routes(r)
	})

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("webapp: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("webapp: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("webapp: shutdown")
	}
	client.Wait()
}

// newStorage подключает Redis, если он настроен, иначе хранит данные клиентов в памяти.
func newStorage(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (domain.ClientStorage, func()) {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("webapp: REDIS_ADDR не задан, хранилище клиентов в памяти")
		return cache.NewMemory(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("webapp: нет подключения к Redis")
	}
	return cache.NewRedis(rdb, cfg.Client.StorageTTL), func() { _ = rdb.Close() }
}
