package procedure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/catalog"
	"github.com/shaiso/Procedura/internal/domain"
	"github.com/shaiso/Procedura/internal/engine"
	"github.com/shaiso/Procedura/internal/mq"
	"github.com/shaiso/Procedura/internal/progress"
	"github.com/shaiso/Procedura/internal/repo"
	"github.com/shaiso/Procedura/internal/telemetry"
)

// EventPublisher публикует события переходов. Реализуется mq.Publisher.
type EventPublisher interface {
	PublishStepStarted(ctx context.Context, payload mq.StepEventPayload) error
	PublishStepCompleted(ctx context.Context, payload mq.StepEventPayload) error
}

// Actor — пользователь, выполняющий переход.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// FlowDetail — процедура с разрешёнными статусами шагов.
type FlowDetail struct {
	Flow       *domain.Flow
	Resolution *engine.Resolution
	Stats      engine.Stats

	// Anonymous — пользователь не указан: все шаги NOT_STARTED, canStart не вычислен.
	Anonymous bool
}

// TransitionResult — результат успешного перехода.
type TransitionResult struct {
	// Progress — сохранённая запись.
	Progress domain.Progress

	// Step — шаг после перехода, разрешённый по всей процедуре.
	Step engine.StepState

	// Stats — статистика процедуры после перехода.
	Stats engine.Stats

	// Unblocked — шаги, ставшие доступными (только для complete).
	Unblocked []uuid.UUID
}

// Validation — результат проверки графа процедуры.
type Validation struct {
	Flow  *domain.Flow
	Steps int

	// Order — шаги в топологическом порядке (если граф корректен).
	Order []uuid.UUID

	// Err — ошибка конфигурации, nil если граф корректен.
	Err *engine.ConfigurationError
}

// Valid возвращает true, если ошибок конфигурации нет.
func (v *Validation) Valid() bool {
	return v.Err == nil
}

// Service — Transition API и чтение процедур.
type Service struct {
	catalog   catalog.Source
	store     progress.Store
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	locks     *keyedLock
}

// Config — зависимости Service.
type Config struct {
	// Catalog — процедуры и шаги (repo.FlowRepo или catalog.MemCatalog).
	Catalog catalog.Source

	// Store — прогресс (repo.ProgressRepo или progress.MemStore).
	Store progress.Store

	// Publisher — события переходов. Может быть nil.
	Publisher EventPublisher

	// Logger (default: slog.Default()).
	Logger *slog.Logger

	// Now — источник времени (default: time.Now).
	Now func() time.Time
}

// New создаёт Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		catalog:   cfg.Catalog,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    logger,
		now:       now,
		locks:     newKeyedLock(),
	}
}

// --- Чтение ---

// GetFlowDetail возвращает процедуру с разрешёнными статусами для userID.
//
// universityID = uuid.Nil не проверяется; иначе процедура другого
// университета считается не найденной. userID = nil (или uuid.Nil) —
// анонимный просмотр.
func (s *Service) GetFlowDetail(ctx context.Context, flowID, universityID uuid.UUID, userID *uuid.UUID) (*FlowDetail, error) {
	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if universityID != uuid.Nil && flow.UniversityID != universityID {
		return nil, notFound("flow", flowID)
	}

	g, err := s.buildGraph(ctx, flowID)
	if err != nil {
		return nil, err
	}

	if userID == nil || *userID == uuid.Nil {
		res := engine.Preview(g)
		return &FlowDetail{Flow: flow, Resolution: res, Stats: engine.Aggregate(res), Anonymous: true}, nil
	}

	snapshot, err := s.store.ListForFlow(ctx, *userID, flowID)
	if err != nil {
		return nil, unavailable("list progress", err)
	}

	res := s.resolve(g, snapshot)
	return &FlowDetail{Flow: flow, Resolution: res, Stats: engine.Aggregate(res)}, nil
}

// ListFlows возвращает процедуры по фильтру.
func (s *Service) ListFlows(ctx context.Context, filter domain.FlowFilter) ([]domain.Flow, error) {
	flows, err := s.catalog.ListFlows(ctx, filter)
	if err != nil {
		return nil, unavailable("list flows", err)
	}
	return flows, nil
}

// ValidateFlow строит граф процедуры и сообщает об ошибке конфигурации.
// Ошибка конфигурации возвращается в Validation, а не как error.
func (s *Service) ValidateFlow(ctx context.Context, flowID uuid.UUID) (*Validation, error) {
	flow, err := s.getFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}

	g, err := s.buildGraph(ctx, flowID)
	if cfgErr := engine.AsConfigurationError(err); cfgErr != nil {
		return &Validation{Flow: flow, Err: cfgErr}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Validation{Flow: flow, Steps: g.Size(), Order: g.StepIDs()}, nil
}

// ListUserProgress возвращает все записи прогресса пользователя.
func (s *Service) ListUserProgress(ctx context.Context, userID uuid.UUID) ([]domain.Progress, error) {
	if userID == uuid.Nil {
		return nil, notFound("user", userID)
	}
	records, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, unavailable("list progress", err)
	}
	return records, nil
}

// --- Transition API ---

// StartStep переводит шаг в IN_PROGRESS.
//
// Проверки по порядку: шаг существует, пользователь указан, процедура
// активна, роль подходит, шаг ещё не начат, все зависимости COMPLETED.
func (s *Service) StartStep(ctx context.Context, actor Actor, stepID uuid.UUID, notes string) (*TransitionResult, error) {
	result, err := s.start(ctx, actor, stepID, notes)
	s.observe(OpStart, actor, stepID, err)
	return result, err
}

// CompleteStep переводит шаг из IN_PROGRESS в COMPLETED.
// Пустые notes сохраняют прежний комментарий.
func (s *Service) CompleteStep(ctx context.Context, actor Actor, stepID uuid.UUID, notes string) (*TransitionResult, error) {
	result, err := s.complete(ctx, actor, stepID, notes)
	s.observe(OpComplete, actor, stepID, err)
	return result, err
}

// transition — загруженное окружение перехода.
type transition struct {
	step *domain.Step
	flow *domain.Flow
	g    *engine.Graph
}

// prepare проверяет существование шага и пользователя и строит граф.
// Граф строится до любых изменений: ошибка конфигурации ничего не меняет.
func (s *Service) prepare(ctx context.Context, actor Actor, stepID uuid.UUID) (*transition, error) {
	step, err := s.catalog.GetStep(ctx, stepID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("step", stepID)
		}
		if errors.Is(err, domain.ErrMalformedStepIDs) {
			return nil, engine.NewConfigurationError(uuid.Nil, stepID, "depends_on_step_ids", err.Error(), err)
		}
		return nil, unavailable("get step", err)
	}
	if actor.UserID == uuid.Nil {
		return nil, notFound("user", actor.UserID)
	}

	flow, err := s.getFlow(ctx, step.FlowID)
	if err != nil {
		return nil, err
	}

	g, err := s.buildGraph(ctx, flow.ID)
	if err != nil {
		return nil, err
	}
	return &transition{step: step, flow: flow, g: g}, nil
}

func (s *Service) start(ctx context.Context, actor Actor, stepID uuid.UUID, notes string) (*TransitionResult, error) {
	t, err := s.prepare(ctx, actor, stepID)
	if err != nil {
		return nil, err
	}

	if !t.flow.IsActive {
		return nil, notStartable(OpStart, actor, stepID, "flow is not active")
	}
	if !t.step.AllowsRole(actor.Role) {
		return nil, notStartable(OpStart, actor, stepID,
			fmt.Sprintf("role %q cannot act on step requiring %q", actor.Role, t.step.RequiredRole))
	}

	unlock := s.locks.lock(actor.UserID, stepID)
	defer unlock()

	snapshot, err := s.store.ListForFlow(ctx, actor.UserID, t.flow.ID)
	if err != nil {
		return nil, unavailable("list progress", err)
	}

	before := s.resolve(t.g, snapshot)
	state, _ := before.Step(stepID)

	switch state.BaseStatus {
	case domain.StepStatusInProgress, domain.StepStatusCompleted, domain.StepStatusSkipped:
		return nil, notStartable(OpStart, actor, stepID, "step is already "+state.BaseStatus.String())
	}
	if !state.CanStart {
		e := notStartable(OpStart, actor, stepID, "waiting for dependencies "+domain.FormatStepIDs(state.WaitingFor))
		e.WaitingFor = state.WaitingFor
		return nil, e
	}

	now := s.now().UTC()
	record := domain.Progress{
		UserID: actor.UserID,
		StepID: stepID,
		FlowID: t.flow.ID,
		Notes:  notes,
	}
	if state.Progress != nil {
		record = *state.Progress
		record.FlowID = t.flow.ID
		if notes != "" {
			record.Notes = notes
		}
	}
	record.MarkStarted(now)

	if err := s.store.Upsert(ctx, &record, domain.StepStatusNotStarted); err != nil {
		if errors.Is(err, progress.ErrConflict) {
			return nil, notStartable(OpStart, actor, stepID, "step was started concurrently")
		}
		return nil, unavailable("save progress", err)
	}

	snapshot[stepID] = record
	after := s.resolve(t.g, snapshot)
	result := newResult(record, after, nil)

	s.publish(ctx, OpStart, record, nil)
	return result, nil
}

func (s *Service) complete(ctx context.Context, actor Actor, stepID uuid.UUID, notes string) (*TransitionResult, error) {
	t, err := s.prepare(ctx, actor, stepID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(actor.UserID, stepID)
	defer unlock()

	current, err := s.store.Get(ctx, actor.UserID, stepID)
	if errors.Is(err, progress.ErrNotFound) {
		return nil, invalidTransition(OpComplete, actor, stepID, "step was never started")
	}
	if err != nil {
		return nil, unavailable("get progress", err)
	}

	switch current.Status {
	case domain.StepStatusInProgress:
	case domain.StepStatusNotStarted:
		return nil, invalidTransition(OpComplete, actor, stepID, "step was never started")
	default:
		return nil, invalidTransition(OpComplete, actor, stepID, "step is already "+current.Status.String())
	}

	snapshot, err := s.store.ListForFlow(ctx, actor.UserID, t.flow.ID)
	if err != nil {
		return nil, unavailable("list progress", err)
	}
	snapshot[stepID] = *current
	before := s.resolve(t.g, snapshot)

	record := *current
	record.FlowID = t.flow.ID
	if notes != "" {
		record.Notes = notes
	}
	record.MarkCompleted(s.now().UTC())

	if err := s.store.Upsert(ctx, &record, domain.StepStatusInProgress); err != nil {
		if errors.Is(err, progress.ErrConflict) {
			return nil, invalidTransition(OpComplete, actor, stepID, "step was modified concurrently")
		}
		return nil, unavailable("save progress", err)
	}

	snapshot[stepID] = record
	after := s.resolve(t.g, snapshot)
	unblocked := engine.NewlyStartable(before, after)
	result := newResult(record, after, unblocked)

	if len(unblocked) > 0 {
		telemetry.StepsUnblocked.Add(float64(len(unblocked)))
	}

	s.publish(ctx, OpComplete, record, unblocked)
	return result, nil
}

func newResult(record domain.Progress, res *engine.Resolution, unblocked []uuid.UUID) *TransitionResult {
	state, _ := res.Step(record.StepID)
	return &TransitionResult{
		Progress:  record,
		Step:      state,
		Stats:     engine.Aggregate(res),
		Unblocked: unblocked,
	}
}

// --- Helpers ---

func (s *Service) getFlow(ctx context.Context, flowID uuid.UUID) (*domain.Flow, error) {
	flow, err := s.catalog.GetFlow(ctx, flowID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("flow", flowID)
		}
		return nil, unavailable("get flow", err)
	}
	return flow, nil
}

// buildGraph загружает шаги и строит граф. Некорректный
// depends_on_step_ids в хранилище — тоже ошибка конфигурации.
func (s *Service) buildGraph(ctx context.Context, flowID uuid.UUID) (*engine.Graph, error) {
	steps, err := s.catalog.ListSteps(ctx, flowID)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedStepIDs) {
			return nil, engine.NewConfigurationError(flowID, uuid.Nil, "depends_on_step_ids", err.Error(), err)
		}
		return nil, unavailable("list steps", err)
	}
	return engine.BuildGraph(flowID, steps)
}

func (s *Service) resolve(g *engine.Graph, snapshot map[uuid.UUID]domain.Progress) *engine.Resolution {
	started := time.Now()
	res := engine.Resolve(g, snapshot)
	telemetry.ResolveDuration.Observe(time.Since(started).Seconds())
	return res
}

// publish отправляет событие перехода. Ошибка публикации не отменяет переход.
func (s *Service) publish(ctx context.Context, op string, record domain.Progress, unblocked []uuid.UUID) {
	if s.publisher == nil {
		return
	}

	payload := mq.StepEventPayload{
		UserID:    record.UserID,
		StepID:    record.StepID,
		FlowID:    record.FlowID,
		Status:    record.Status.String(),
		Unblocked: unblocked,
	}

	var err error
	switch op {
	case OpStart:
		payload.OccurredAt = *record.StartedAt
		err = s.publisher.PublishStepStarted(ctx, payload)
	case OpComplete:
		payload.OccurredAt = *record.CompletedAt
		err = s.publisher.PublishStepCompleted(ctx, payload)
	}
	if err != nil {
		s.logger.Warn("failed to publish progress event",
			"op", op,
			"step_id", record.StepID,
			"user_id", record.UserID,
			"error", err,
		)
	}
}

// observe логирует результат перехода и обновляет метрики.
func (s *Service) observe(op string, actor Actor, stepID uuid.UUID, err error) {
	result := Classify(err)
	telemetry.TransitionsTotal.WithLabelValues(op, result).Inc()

	logger := telemetry.WithStepID(telemetry.WithUserID(s.logger, actor.UserID), stepID)
	switch result {
	case telemetry.ResultOK:
		logger.Info("step transition applied", "op", op)
	case telemetry.ResultConfiguration, telemetry.ResultStoreUnavailable:
		logger.Error("step transition failed", "op", op, "result", result, "error", err)
	default:
		logger.Debug("step transition rejected", "op", op, "result", result, "error", err)
	}
}

// Classify относит ошибку к метке результата перехода.
func Classify(err error) string {
	switch {
	case err == nil:
		return telemetry.ResultOK
	case errors.Is(err, ErrNotStartable):
		return telemetry.ResultNotStartable
	case errors.Is(err, ErrInvalidTransition):
		return telemetry.ResultInvalidTransition
	case errors.Is(err, ErrNotFound):
		return telemetry.ResultNotFound
	case engine.IsConfigurationError(err):
		return telemetry.ResultConfiguration
	default:
		return telemetry.ResultStoreUnavailable
	}
}

// isNotFound распознаёт "не найдено" от любого источника каталога.
func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound) || errors.Is(err, repo.ErrNotFound)
}
