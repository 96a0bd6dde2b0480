package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"univers-nexus/internal/adapters/ai"
	"univers-nexus/internal/adapters/api"
	"univers-nexus/internal/adapters/auth"
	"univers-nexus/internal/adapters/repo"
	"univers-nexus/internal/domain"
	"univers-nexus/internal/infra/cache"
	"univers-nexus/internal/infra/config"
	"univers-nexus/internal/infra/db"
	httpinfra "univers-nexus/internal/infra/http"
	applog "univers-nexus/internal/infra/log"
	"univers-nexus/internal/infra/metrics"
	"univers-nexus/internal/usecase/assistant"
	"univers-nexus/internal/usecase/feed"
	"univers-nexus/internal/usecase/notify"
	"univers-nexus/internal/usecase/session"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var contentRepo domain.ContentRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		contentRepo, err = repo.NewPostgresStore(pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: зеркало в Postgres не инициализировано")
		}
		logger.Info().Msg("api: зеркало контента в Postgres")
	} else {
		store, err := repo.NewJSONStore(cfg.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("api: зеркало на диске не инициализировано")
		}
		contentRepo = store
		logger.Info().Str("dir", cfg.DataDir).Msg("api: зеркало контента на диске")
	}

	var sessionCache domain.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sessionCache = cache.NewRedis(client)
	}

	authClient := auth.NewClient(cfg.Auth.BaseURL, cfg.Auth.AnonKey, cfg.Auth.Timeout)

	var generator domain.Generator
	if cfg.Gemini.APIKey != "" {
		g, err := ai.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.TextModel, cfg.Gemini.ImageModel, cfg.Gemini.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: генеративный бэкенд не инициализирован")
		}
		generator = g
	} else {
		logger.Warn().Msg("api: GEMINI_API_KEY не задан, ассистент работает на запасных ответах")
		generator = unavailableGenerator{}
	}

	notifyUC := notify.NewService()
	sessionUC := session.NewService(authClient, sessionCache, nil, notifyUC, cfg.Auth.AllowDemo, cfg.Limits.StartTokens, logger.With().Str("component", "session").Logger())
	feedUC := feed.NewService(contentRepo, notifyUC, sessionUC, cfg.Limits.CommentPreview, logger.With().Str("component", "feed").Logger())
	sessionUC.AttachWiper(feedUC)
	aiUC := assistant.NewService(generator, logger.With().Str("component", "assistant").Logger())

	if sessionUC.Restore() {
		logger.Info().Msg("api: сессия восстановлена из кэша")
	}

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	api.NewHandler(logger.With().Str("component", "api").Logger(), feedUC, sessionUC, notifyUC, aiUC).Mount(srv.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("api: остановка")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", cfg.Port).Msg("api: старт")
	if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
		logger.Error().Err(err).Msg("api: сервер остановлен")
	}
}

// unavailableGenerator подменяет генеративный бэкенд, когда ключ API не задан.
// Все вызовы завершаются ошибкой, и usecase отдаёт запасные значения.
type unavailableGenerator struct{}

func (unavailableGenerator) GenerateText(context.Context, string, string) (string, error) {
	return "", errGeneratorUnavailable
}

func (unavailableGenerator) GenerateImage(context.Context, string) (string, error) {
	return "", errGeneratorUnavailable
}

var errGeneratorUnavailable = errors.New("генеративный бэкенд не настроен")
