package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_publish_total",
		Help: "Количество публикаций по каналам",
	}, []string{"channel"})

	LikeToggleTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "like_toggle_total",
		Help: "Переключения лайков по направлению",
	}, []string{"direction"})

	CommentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comment_submit_total",
		Help: "Количество отправленных комментариев",
	})

	DeleteTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_delete_total",
		Help: "Количество удалённых публикаций",
	})

	PersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mirror_persist_errors_total",
		Help: "Ошибки записи зеркала контента",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов к внешним сервисам",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов к внешним сервисам",
	}, []string{"component", "operation", "status"})

	AIGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ai_generation_duration_seconds",
		Help:    "Длительность генерации ответа AI",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	AIFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_fallback_total",
		Help: "Количество ответов, заменённых запасным значением",
	}, []string{"operation"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PublishTotal,
		LikeToggleTotal,
		CommentTotal,
		DeleteTotal,
		PersistErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
		AIGenerationDuration,
		AIFallbackTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: сервер не остановился корректно")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: сервер остановлен")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}

// ObserveAIGeneration записывает длительность генерации.
func ObserveAIGeneration(model string, duration time.Duration) {
	if model == "" {
		model = "unknown"
	}
	AIGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// IncAIFallback отмечает подмену ответа запасным значением.
func IncAIFallback(operation string) {
	AIFallbackTotal.WithLabelValues(operation).Inc()
}
