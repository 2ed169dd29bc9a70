// Package metrics содержит prometheus-метрики сервиса
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quiz"

var (
	// HTTPRequestDuration - длительность HTTP запросов по маршруту
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// Submissions - оцененные попытки по типу идентичности
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Scored quiz submissions by identity tier.",
	}, []string{"identity"})

	// ScorePercentage - распределение результатов
	ScorePercentage = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "score_percentage",
		Help:      "Distribution of attempt percentages.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	// AuthAttempts - попытки входа по способу и результату
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Authentication attempts by method and result.",
	}, []string{"method", "result"})

	// RateLimited - запросы, отклоненные rate limiter
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"scope"})

	// QuestionsImported - импортированные вопросы по источнику
	QuestionsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "questions_imported_total",
		Help:      "Questions imported by source format.",
	}, []string{"source"})

	// LiveClients - подключенные клиенты live-ленты
	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_clients",
		Help:      "Connected admin live feed clients.",
	})
)

// ObserveAuth учитывает результат попытки аутентификации
func ObserveAuth(method string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	AuthAttempts.WithLabelValues(method, result).Inc()
}
