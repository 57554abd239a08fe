package domain

// StepStatus — статус шага процедуры для конкретного пользователя.
//
// Жизненный цикл (хранимые статусы):
//
//	NOT_STARTED → IN_PROGRESS → COMPLETED
//	           ↘ SKIPPED (административно, вне Transition API)
//
// BLOCKED — производный статус для отображения: NOT_STARTED, у которого
// хотя бы одна зависимость не завершена. BLOCKED никогда не сохраняется.
type StepStatus string

const (
	// StepStatusNotStarted — шаг ещё не начат.
	StepStatusNotStarted StepStatus = "NOT_STARTED"

	// StepStatusInProgress — пользователь начал шаг.
	StepStatusInProgress StepStatus = "IN_PROGRESS"

	// StepStatusCompleted — шаг завершён.
	StepStatusCompleted StepStatus = "COMPLETED"

	// StepStatusSkipped — шаг пропущен администратором.
	StepStatusSkipped StepStatus = "SKIPPED"

	// StepStatusBlocked — шаг не начат и ждёт завершения зависимостей.
	// Только для отображения.
	StepStatusBlocked StepStatus = "BLOCKED"
)

// IsTerminal возвращает true, если из статуса нет переходов через Transition API.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusSkipped:
		return true
	default:
		return false
	}
}

// IsPersistable возвращает true, если статус допустимо сохранять в progress.
func (s StepStatus) IsPersistable() bool {
	switch s {
	case StepStatusNotStarted, StepStatusInProgress, StepStatusCompleted, StepStatusSkipped:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// ParseStepStatus парсит сохранённое значение статуса.
// Неизвестные значения (в том числе BLOCKED, попавший в БД по ошибке)
// трактуются как NOT_STARTED.
func ParseStepStatus(s string) StepStatus {
	switch s {
	case "IN_PROGRESS":
		return StepStatusInProgress
	case "COMPLETED":
		return StepStatusCompleted
	case "SKIPPED":
		return StepStatusSkipped
	default:
		return StepStatusNotStarted
	}
}
