package domain

import (
	"time"

	"github.com/google/uuid"
)

// Progress — состояние шага для одного пользователя.
//
// Запись уникальна по (UserID, StepID). Создаётся лениво при первом start
// и изменяется только через Transition API. Отсутствие записи означает
// NOT_STARTED.
type Progress struct {
	// UserID — владелец прогресса.
	UserID uuid.UUID `json:"user_id"`

	// StepID — шаг процедуры.
	StepID uuid.UUID `json:"step_id"`

	// FlowID — процедура шага. В БД не хранится, восстанавливается через join
	// с procedure_steps.
	FlowID uuid.UUID `json:"flow_id"`

	// Status — хранимый статус (никогда не BLOCKED).
	Status StepStatus `json:"status"`

	// StartedAt — время перехода в IN_PROGRESS.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt — время перехода в COMPLETED.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Notes — комментарий пользователя или сотрудника.
	Notes string `json:"notes,omitempty"`

	// UpdatedAt — время последнего изменения записи.
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkStarted переводит прогресс в IN_PROGRESS.
func (p *Progress) MarkStarted(now time.Time) {
	p.Status = StepStatusInProgress
	p.StartedAt = &now
	p.UpdatedAt = now
}

// MarkCompleted переводит прогресс в COMPLETED.
func (p *Progress) MarkCompleted(now time.Time) {
	p.Status = StepStatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
}

// Duration возвращает время между стартом и завершением.
// Возвращает 0, если шаг ещё не завершён.
func (p *Progress) Duration() time.Duration {
	if p.StartedAt == nil || p.CompletedAt == nil {
		return 0
	}
	return p.CompletedAt.Sub(*p.StartedAt)
}
