package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	registerOnce sync.Once

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность запросов к бэкенду",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество запросов к бэкенду",
	}, []string{"component", "operation", "target", "status"})

	AsyncCallErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "async_call_errors_total",
		Help: "Ошибки, поглощённые обёрткой асинхронных вызовов",
	}, []string{"status"})

	GuardRedirects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_redirects_total",
		Help: "Перенаправления, сделанные гардом навигации",
	}, []string{"target"})

	CacheNotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_notify_failures_total",
		Help: "Неудачные уведомления об обновлении кэша бота",
	})

	SummaryGroupsVisible = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "summary_groups_visible",
		Help:    "Число видимых групп сводок после фильтрации",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			NetworkRequestDuration,
			NetworkRequestTotal,
			AsyncCallErrors,
			GuardRedirects,
			CacheNotifyFailures,
			SummaryGroupsVisible,
		)
	})
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

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncAsyncError учитывает ошибку, поглощённую обёрткой вызовов.
func IncAsyncError(status int) {
	AsyncCallErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// IncGuardRedirect учитывает перенаправление гарда.
func IncGuardRedirect(target string) {
	GuardRedirects.WithLabelValues(target).Inc()
}

// IncNotifyFailure учитывает неудачное уведомление.
func IncNotifyFailure() {
	CacheNotifyFailures.Inc()
}

// ObserveVisibleGroups записывает размер видимого списка сводок.
func ObserveVisibleGroups(n int) {
	SummaryGroupsVisible.Observe(float64(n))
}
