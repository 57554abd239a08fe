package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты переходов для метки result.
const (
	ResultOK                = "ok"
	ResultNotStartable      = "not_startable"
	ResultInvalidTransition = "invalid_transition"
	ResultNotFound          = "not_found"
	ResultConfiguration     = "configuration_error"
	ResultStoreUnavailable  = "store_unavailable"
)

var (
	// TransitionsTotal — переходы Start/Complete по результату.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procedura_transitions_total",
		Help: "Step transitions handled by the transition API",
	}, []string{"op", "result"})

	// ResolveDuration — время построения графа и разрешения статусов.
	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "procedura_resolve_duration_seconds",
		Help:    "Time spent building the step graph and resolving statuses",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	// StepsUnblocked — шаги, ставшие доступными после завершения зависимостей.
	StepsUnblocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procedura_steps_unblocked_total",
		Help: "Steps that became startable after a dependency was completed",
	})

	// FlowsMisconfigured — активные процедуры с ошибкой конфигурации
	// по результатам последнего аудита.
	FlowsMisconfigured = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "procedura_flows_misconfigured",
		Help: "Active flows whose step graph failed validation in the last audit",
	})

	// UnlockNotifications — уведомления о доступных шагах, отправленные воркером.
	UnlockNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procedura_unlock_notifications_total",
		Help: "Startable-step notifications produced by the unlock notifier",
	})

	// AuditRunsTotal — запуски аудита конфигурации процедур.
	AuditRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procedura_audit_runs_total",
		Help: "Flow configuration audit runs by result",
	}, []string{"result"})

	// HTTPRequestsTotal — запросы к REST API.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procedura_api_http_requests_total",
		Help: "Total HTTP requests handled by procedura-api",
	}, []string{"method", "status"})
)
