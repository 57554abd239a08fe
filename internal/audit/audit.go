package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shaiso/Procedura/internal/domain"
	"github.com/shaiso/Procedura/internal/engine"
	"github.com/shaiso/Procedura/internal/procedure"
	"github.com/shaiso/Procedura/internal/telemetry"
)

// DefaultSchedule — расписание по умолчанию.
const DefaultSchedule = "@every 15m"

// FlowValidator — источник процедур для аудита. Реализуется *procedure.Service.
type FlowValidator interface {
	ListFlows(ctx context.Context, filter domain.FlowFilter) ([]domain.Flow, error)
	ValidateFlow(ctx context.Context, flowID uuid.UUID) (*procedure.Validation, error)
}

// Finding — процедура с ошибкой конфигурации.
type Finding struct {
	FlowID   uuid.UUID
	FlowName string
	Err      *engine.ConfigurationError
}

// Report — результат одного прогона.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration

	// Checked — проверенные процедуры.
	Checked int

	// Misconfigured — процедуры с ошибкой конфигурации.
	Misconfigured []Finding

	// Failed — процедуры, которые не удалось проверить (хранилище недоступно).
	Failed int
}

// Auditor запускает проверку по расписанию.
type Auditor struct {
	flows    FlowValidator
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
	now      func() time.Time

	cron *cron.Cron

	mu   sync.RWMutex
	last *Report
}

// Config — конфигурация Auditor.
type Config struct {
	Flows FlowValidator

	// Schedule — cron-выражение (5 полей) или дескриптор "@every 1h".
	Schedule string

	Logger *slog.Logger
	Now    func() time.Time
}

// New создаёт Auditor. Возвращает ошибку при некорректном расписании.
func New(cfg Config) (*Auditor, error) {
	spec := cfg.Schedule
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse audit schedule %q: %w", spec, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Auditor{
		flows:    cfg.Flows,
		schedule: schedule,
		spec:     spec,
		logger:   logger.With("component", "audit"),
		now:      now,
	}, nil
}

// Run выполняет первый прогон сразу, затем по расписанию до отмены ctx.
func (a *Auditor) Run(ctx context.Context) error {
	a.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	a.cron.Schedule(a.schedule, cron.FuncJob(func() { a.tick(ctx) }))

	a.tick(ctx)

	a.cron.Start()
	a.logger.Info("audit scheduled", "schedule", a.spec)

	<-ctx.Done()

	// Ждём завершения текущего прогона
	<-a.cron.Stop().Done()
	a.logger.Info("audit stopped")
	return ctx.Err()
}

func (a *Auditor) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := a.Tick(ctx); err != nil {
		a.logger.Error("audit failed", "error", err)
	}
}

// Tick выполняет один прогон аудита.
//
// Возвращает ошибку, только если не удалось получить список процедур.
func (a *Auditor) Tick(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: a.now()}

	active := true
	flows, err := a.flows.ListFlows(ctx, domain.FlowFilter{IsActive: &active})
	if err != nil {
		telemetry.AuditRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list active flows: %w", err)
	}

	for i := range flows {
		flow := &flows[i]
		logger := telemetry.WithFlowID(a.logger, flow.ID)

		v, err := a.flows.ValidateFlow(ctx, flow.ID)
		if err != nil {
			if errors.Is(err, procedure.ErrNotFound) {
				// Удалена между ListFlows и ValidateFlow
				continue
			}
			report.Failed++
			logger.Error("failed to validate flow", "flow", flow.Name, "error", err)
			continue
		}

		report.Checked++
		if v.Valid() {
			continue
		}

		report.Misconfigured = append(report.Misconfigured, Finding{
			FlowID:   flow.ID,
			FlowName: flow.Name,
			Err:      v.Err,
		})
		logger.Error("flow misconfigured",
			"flow", flow.Name,
			"step_id", v.Err.StepID,
			"field", v.Err.Field,
			"error", v.Err,
		)
	}

	report.Duration = a.now().Sub(report.StartedAt)
	telemetry.FlowsMisconfigured.Set(float64(len(report.Misconfigured)))
	telemetry.AuditRunsTotal.WithLabelValues("ok").Inc()

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()

	a.logger.Info("audit completed",
		"checked", report.Checked,
		"misconfigured", len(report.Misconfigured),
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report, nil
}

// LastReport возвращает результат последнего успешного прогона или nil.
func (a *Auditor) LastReport() *Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Next возвращает время следующего прогона после from.
func (a *Auditor) Next(from time.Time) time.Time {
	return a.schedule.Next(from)
}
