package engine

import (
	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// StepState — шаг с вычисленным для пользователя состоянием
// (ProcedureStepWithProgress). Никогда не сохраняется.
type StepState struct {
	// Step — определение шага.
	Step *domain.Step

	// Progress — сохранённая запись прогресса, nil если записи нет.
	Progress *domain.Progress

	// BaseStatus — хранимый статус (NOT_STARTED при отсутствии записи).
	BaseStatus domain.StepStatus

	// Status — статус для отображения: BaseStatus или BLOCKED.
	Status domain.StepStatus

	// CanStart — шаг можно начать прямо сейчас.
	CanStart bool

	// WaitingFor — незавершённые зависимости (для BLOCKED шагов).
	WaitingFor []uuid.UUID
}

// Resolution — результат разрешения статусов всех шагов процедуры.
type Resolution struct {
	// FlowID — процедура.
	FlowID uuid.UUID

	// Steps — состояния шагов в порядке отображения.
	Steps []StepState

	// index — stepID → позиция в Steps.
	index map[uuid.UUID]int
}

// Resolve вычисляет статус и canStart каждого шага по графу и снимку прогресса.
//
// snapshot — записи прогресса пользователя по этой процедуре (stepID → Progress).
// Записи для шагов, которых нет в графе, игнорируются.
//
// Функция чистая: одинаковые входы дают одинаковый результат.
func Resolve(g *Graph, snapshot map[uuid.UUID]domain.Progress) *Resolution {
	// Базовые статусы в топологическом порядке: к моменту обработки шага
	// статусы всех его зависимостей уже вычислены
	base := make(map[uuid.UUID]domain.StepStatus, len(g.Nodes))
	states := make(map[uuid.UUID]StepState, len(g.Nodes))

	for _, node := range g.Order {
		state := StepState{
			Step:       node.Step,
			BaseStatus: domain.StepStatusNotStarted,
		}

		if p, ok := snapshot[node.ID]; ok {
			state.Progress = &p
			state.BaseStatus = normalizeStatus(p.Status)
		}
		base[node.ID] = state.BaseStatus

		state.Status = state.BaseStatus
		if state.BaseStatus == domain.StepStatusNotStarted {
			for _, dep := range node.DependsOn {
				if base[dep.ID] != domain.StepStatusCompleted {
					state.WaitingFor = append(state.WaitingFor, dep.ID)
				}
			}
			state.CanStart = len(state.WaitingFor) == 0
			if !state.CanStart {
				state.Status = domain.StepStatusBlocked
			}
		}

		states[node.ID] = state
	}

	return newResolution(g, states)
}

// Preview возвращает представление для анонимного пользователя:
// все шаги NOT_STARTED, canStart не вычисляется.
func Preview(g *Graph) *Resolution {
	states := make(map[uuid.UUID]StepState, len(g.Nodes))
	for _, node := range g.Order {
		states[node.ID] = StepState{
			Step:       node.Step,
			BaseStatus: domain.StepStatusNotStarted,
			Status:     domain.StepStatusNotStarted,
		}
	}
	return newResolution(g, states)
}

// newResolution раскладывает состояния в порядке отображения.
func newResolution(g *Graph, states map[uuid.UUID]StepState) *Resolution {
	res := &Resolution{
		FlowID: g.FlowID,
		Steps:  make([]StepState, 0, len(states)),
		index:  make(map[uuid.UUID]int, len(states)),
	}
	for _, node := range g.display {
		res.index[node.ID] = len(res.Steps)
		res.Steps = append(res.Steps, states[node.ID])
	}
	return res
}

// normalizeStatus приводит хранимое значение к допустимому базовому статусу.
func normalizeStatus(s domain.StepStatus) domain.StepStatus {
	if !s.IsPersistable() {
		return domain.StepStatusNotStarted
	}
	return s
}

// Step возвращает состояние шага по ID.
func (r *Resolution) Step(id uuid.UUID) (StepState, bool) {
	i, ok := r.index[id]
	if !ok {
		return StepState{}, false
	}
	return r.Steps[i], true
}

// Startable возвращает ID шагов, которые можно начать, в порядке отображения.
func (r *Resolution) Startable() []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range r.Steps {
		if s.CanStart {
			ids = append(ids, s.Step.ID)
		}
	}
	return ids
}

// NewlyStartable возвращает шаги, которые стали доступны между двумя
// разрешениями одной процедуры (например, до и после complete).
func NewlyStartable(before, after *Resolution) []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range after.Steps {
		if !s.CanStart {
			continue
		}
		if prev, ok := before.Step(s.Step.ID); ok && prev.CanStart {
			continue
		}
		ids = append(ids, s.Step.ID)
	}
	return ids
}
