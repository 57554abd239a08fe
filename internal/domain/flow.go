package domain

import (
	"time"

	"github.com/google/uuid"
)

// Типы процедур, встречающиеся в каталоге.
// Список открытый: flowType хранится как строка.
const (
	FlowTypeAdmission  = "admission"
	FlowTypeGraduation = "graduation"
	FlowTypeTransfer   = "transfer"
)

// Flow — процедура университета (поступление, выпуск и т.д.).
//
// Flow — упорядоченный набор шагов, которые проходит студент или родитель.
// Создаётся и редактируется административно; движок только читает его.
type Flow struct {
	// ID — уникальный идентификатор процедуры.
	ID uuid.UUID `json:"id"`

	// UniversityID — университет, которому принадлежит процедура.
	UniversityID uuid.UUID `json:"university_id"`

	// Name — название процедуры ("Поступление 2026").
	Name string `json:"name"`

	// Description — описание для пользователя.
	Description string `json:"description,omitempty"`

	// FlowType — тег типа: "admission", "graduation", ...
	FlowType string `json:"flow_type"`

	// IsActive — неактивные процедуры показываются, но шаги в них не стартуют.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Step — шаг процедуры.
type Step struct {
	// ID — уникальный идентификатор шага.
	ID uuid.UUID `json:"id"`

	// FlowID — процедура, которой принадлежит шаг (ровно одна).
	FlowID uuid.UUID `json:"flow_id"`

	// Name — название шага ("Подать документы").
	Name string `json:"name"`

	// Description — инструкция для пользователя.
	Description string `json:"description,omitempty"`

	// StepOrder — порядок отображения. Не задаёт порядок выполнения:
	// порядок выполнения определяется только DependsOn.
	StepOrder int `json:"step_order"`

	// RequiredRole — роль, которой разрешено выполнять шаг ("student", "parent").
	// Пустая строка — любая роль.
	RequiredRole string `json:"required_role,omitempty"`

	// IsRequired — обязателен ли шаг для завершения процедуры.
	IsRequired bool `json:"is_required"`

	// DependsOn — шаги той же процедуры, которые должны быть COMPLETED,
	// прежде чем этот шаг можно начать.
	DependsOn []uuid.UUID `json:"depends_on_step_ids,omitempty"`
}

// AllowsRole проверяет, может ли пользователь с ролью role работать с шагом.
func (s *Step) AllowsRole(role string) bool {
	return s.RequiredRole == "" || s.RequiredRole == role
}

// FlowFilter — параметры выборки процедур.
type FlowFilter struct {
	UniversityID *uuid.UUID
	FlowType     string
	IsActive     *bool
}

// Matches проверяет, подходит ли процедура под фильтр.
func (f FlowFilter) Matches(flow *Flow) bool {
	if f.UniversityID != nil && flow.UniversityID != *f.UniversityID {
		return false
	}
	if f.FlowType != "" && flow.FlowType != f.FlowType {
		return false
	}
	if f.IsActive != nil && flow.IsActive != *f.IsActive {
		return false
	}
	return true
}
